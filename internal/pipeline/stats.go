package pipeline

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
}

// StatsSnapshot is a point-in-time aggregate of latency samples.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// Window tracks recent latencies within a rolling window.
type Window struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewWindow(maxAge time.Duration) *Window {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Window{
		samples: make([]sample, 0, 64),
		maxAge:  maxAge,
	}
}

func (w *Window) Record(durationMs int64) {
	if durationMs < 0 {
		durationMs = 0
	}
	now := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	w.samples = append(w.samples, sample{
		timestamp:  now,
		durationMs: durationMs,
	})
}

func (w *Window) Snapshot() StatsSnapshot {
	now := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	if len(w.samples) == 0 {
		return StatsSnapshot{}
	}

	values := make([]int64, 0, len(w.samples))
	var sum int64
	for _, sm := range w.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	slices.Sort(values)

	return StatsSnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func (w *Window) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.maxAge)
	writeIdx := 0
	for _, sm := range w.samples {
		if !sm.timestamp.Before(cutoff) {
			w.samples[writeIdx] = sm
			writeIdx++
		}
	}
	w.samples = w.samples[:writeIdx]
}

// StageStats keeps one Window per pipeline stage.
type StageStats struct {
	mu      sync.Mutex
	windows map[Stage]*Window
	maxAge  time.Duration
}

func NewStageStats(maxAge time.Duration) *StageStats {
	return &StageStats{
		windows: make(map[Stage]*Window),
		maxAge:  maxAge,
	}
}

// Record adds a sample for stage.
func (s *StageStats) Record(stage Stage, d time.Duration) {
	s.mu.Lock()
	w, ok := s.windows[stage]
	if !ok {
		w = NewWindow(s.maxAge)
		s.windows[stage] = w
	}
	s.mu.Unlock()
	w.Record(d.Milliseconds())
}

// Snapshot returns a snapshot for every stage seen so far.
func (s *StageStats) Snapshot() map[Stage]StatsSnapshot {
	s.mu.Lock()
	windows := make(map[Stage]*Window, len(s.windows))
	for k, w := range s.windows {
		windows[k] = w
	}
	s.mu.Unlock()

	out := make(map[Stage]StatsSnapshot, len(windows))
	for k, w := range windows {
		out[k] = w.Snapshot()
	}
	return out
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
