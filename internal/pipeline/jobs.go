package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of an uploaded run.
type JobStatus string

const (
	StatusQueued       JobStatus = "queued"
	StatusParsing      JobStatus = "parsing"
	StatusNormalizing  JobStatus = "normalizing"
	StatusAnnotating   JobStatus = "annotating"
	StatusExtracting   JobStatus = "extracting"
	StatusSynthesizing JobStatus = "synthesizing"
	StatusStoring      JobStatus = "storing"
	StatusCompleted    JobStatus = "completed"
	StatusFailed       JobStatus = "failed"
)

// statusForStage maps a run stage to the job status shown while it runs.
func statusForStage(s Stage) JobStatus {
	switch s {
	case StageParse:
		return StatusParsing
	case StageNormalize:
		return StatusNormalizing
	case StageAnnotate:
		return StatusAnnotating
	case StageExtract, StageImages:
		return StatusExtracting
	case StageConverse:
		return StatusSynthesizing
	default:
		return StatusStoring
	}
}

// Job tracks one uploaded document through a full run.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	RunID string `json:"run_id,omitempty"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	MaxFacts      int `json:"max_facts"`
	Conversations int `json:"conversations"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress reports what the run has produced so far.
type Progress struct {
	Documents     int      `json:"documents"`
	Pages         int      `json:"pages"`
	Facts         int      `json:"facts"`
	Conversations int      `json:"conversations"`
	ImagePairs    int      `json:"image_pairs"`
	Errors        []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetResult copies the counts of a finished run onto the job.
func (j *Job) SetResult(res *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.RunID = res.RunID
	j.Progress.Documents = res.Record.Documents
	j.Progress.Pages = res.Record.Pages
	j.Progress.Facts = len(res.Facts)
	j.Progress.Conversations = len(res.Conversations)
	j.Progress.ImagePairs = len(res.ImagePairs)
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the upload once the run no longer needs it.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID            string    `json:"job_id"`
	RunID         string    `json:"run_id,omitempty"`
	Status        JobStatus `json:"status"`
	Phase         string    `json:"phase"`
	Filename      string    `json:"filename"`
	MaxFacts      int       `json:"max_facts"`
	Conversations int       `json:"conversations"`
	ContentHash   string    `json:"content_hash,omitempty"`
	Progress      Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:            j.ID,
		RunID:         j.RunID,
		Status:        j.Status,
		Phase:         j.Phase,
		Filename:      j.Filename,
		MaxFacts:      j.MaxFacts,
		Conversations: j.Conversations,
		ContentHash:   j.ContentHash,
		Progress:      p,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
