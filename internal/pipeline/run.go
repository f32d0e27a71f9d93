package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/docdialog/internal/config"
	"github.com/dgallion1/docdialog/internal/converse"
	"github.com/dgallion1/docdialog/internal/document"
	"github.com/dgallion1/docdialog/internal/extract"
	"github.com/dgallion1/docdialog/internal/images"
	"github.com/dgallion1/docdialog/internal/normalize"
	"github.com/dgallion1/docdialog/internal/parser"
	"github.com/dgallion1/docdialog/internal/store"
	"github.com/dgallion1/docdialog/internal/structure"
	"github.com/google/uuid"
)

// ErrNoInput is returned when the input path is empty, missing or unreadable.
var ErrNoInput = errors.New("no input")

// Stage names one step of a run.
type Stage string

const (
	StageParse     Stage = "parse"
	StageNormalize Stage = "normalize"
	StageAnnotate  Stage = "annotate"
	StageExtract   Stage = "extract"
	StageImages    Stage = "images"
	StageConverse  Stage = "converse"
	StageStore     Stage = "store"
	StageExport    Stage = "export"
)

// Scope selects how far a run goes.
type Scope int

const (
	// ScopeAnnotate stops after the structural annotator.
	ScopeAnnotate Scope = iota + 1
	// ScopeFacts stops after fact extraction.
	ScopeFacts
	// ScopeFull runs every stage.
	ScopeFull
)

// Request describes one run.
type Request struct {
	Input         string
	Scope         Scope
	MaxFacts      int
	Conversations int
	Seed          uint64
	ArtifactPath  string
	ExportDir     string
	ExtractImages bool

	// OnStage is called as each stage starts.
	OnStage func(Stage)
}

// RequestFromConfig builds a request from the configured defaults.
func RequestFromConfig(cfg config.Config, scope Scope) Request {
	return Request{
		Input:         cfg.InputPath,
		Scope:         scope,
		MaxFacts:      cfg.MaxFacts,
		Conversations: cfg.Conversations,
		Seed:          cfg.Seed,
		ArtifactPath:  cfg.ArtifactPath,
		ExportDir:     cfg.ExportDir,
		ExtractImages: cfg.ExtractImages,
	}
}

// Result is what a run produced.
type Result struct {
	RunID         string
	Documents     []*document.Document
	Facts         []extract.Fact
	Conversations []converse.Conversation
	ImagePairs    []images.Pair
	Record        store.RunRecord
}

// Runner executes runs. The store may be nil, in which case nothing is
// persisted.
type Runner struct {
	cfg   config.Config
	store *store.Store
	stats *StageStats
	log   *slog.Logger
}

func NewRunner(cfg config.Config, st *store.Store, stats *StageStats, log *slog.Logger) *Runner {
	if stats == nil {
		stats = NewStageStats(time.Hour)
	}
	return &Runner{
		cfg:   cfg,
		store: st,
		stats: stats,
		log:   log,
	}
}

// Stats returns the per-stage latency tracker.
func (r *Runner) Stats() *StageStats {
	return r.stats
}

// run holds the state of a single execution. Nothing in it outlives the run.
type run struct {
	id      string
	req     Request
	log     *slog.Logger
	started time.Time
	// pdfs maps document id to the file it was parsed from.
	pdfs map[string]string
	res  *Result
}

// Execute runs req to its scope. On failure the run is recorded in the
// ledger when a store is configured.
func (r *Runner) Execute(ctx context.Context, req Request) (*Result, error) {
	if req.MaxFacts <= 0 {
		return nil, fmt.Errorf("max facts must be positive, got %d", req.MaxFacts)
	}
	if req.Conversations < 0 {
		return nil, fmt.Errorf("conversations must not be negative, got %d", req.Conversations)
	}
	if req.Scope == 0 {
		req.Scope = ScopeFull
	}
	if req.Scope == ScopeAnnotate && document.IsArtifact(req.Input) {
		return nil, fmt.Errorf("input %s is already an artifact; annotate needs source documents", req.Input)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	rn := &run{
		id:      id.String(),
		req:     req,
		log:     r.log.With("run_id", id.String()),
		started: time.Now().UTC(),
		pdfs:    make(map[string]string),
		res:     &Result{RunID: id.String()},
	}

	rn.log.Info("run started", "input", req.Input, "max_facts", req.MaxFacts, "conversations", req.Conversations)
	if err := r.execute(ctx, rn); err != nil {
		rn.log.Error("run failed", "error", err)
		r.recordFailure(ctx, rn, err)
		return nil, err
	}
	rn.log.Info("run completed",
		"documents", len(rn.res.Documents),
		"facts", len(rn.res.Facts),
		"conversations", len(rn.res.Conversations),
		"image_pairs", len(rn.res.ImagePairs),
	)
	return rn.res, nil
}

func (r *Runner) execute(ctx context.Context, rn *run) error {
	res := rn.res

	var docs []*document.Document
	fromArtifact := false
	if err := r.stage(rn, StageParse, func() error {
		var err error
		docs, fromArtifact, err = r.load(ctx, rn)
		return err
	}); err != nil {
		return err
	}
	res.Documents = docs

	if !fromArtifact {
		r.stage(rn, StageNormalize, func() error {
			r.normalize(rn, docs)
			return nil
		})
		r.stage(rn, StageAnnotate, func() error {
			structure.Annotate(docs)
			return nil
		})
		if rn.req.ArtifactPath != "" {
			if err := document.WriteArtifact(rn.req.ArtifactPath, docs); err != nil {
				return err
			}
			rn.log.Info("artifact written", "path", rn.req.ArtifactPath, "pages", document.PageCount(docs))
		}
	}
	if rn.req.Scope == ScopeAnnotate {
		return nil
	}

	r.stage(rn, StageExtract, func() error {
		ex := extract.NewExtractor(rn.req.MaxFacts)
		res.Facts = ex.Documents(docs)
		if ex.Budget.Exhausted() {
			rn.log.Info("fact cap reached", "max_facts", rn.req.MaxFacts)
		}
		return nil
	})
	if res.Facts == nil {
		res.Facts = []extract.Fact{}
	}

	if rn.req.Scope == ScopeFull {
		if rn.req.ExtractImages && len(rn.pdfs) > 0 {
			r.stage(rn, StageImages, func() error {
				res.ImagePairs = r.extractImages(ctx, rn, docs)
				return nil
			})
		}
		r.stage(rn, StageConverse, func() error {
			synth := converse.NewSynthesizer(r.cfg.ConversationTopic, converse.NewRand(rn.req.Seed))
			res.Conversations = synth.Generate(res.Facts, rn.req.Conversations)
			if len(res.Conversations) < rn.req.Conversations {
				rn.log.Info("fact pool exhausted",
					"requested", rn.req.Conversations,
					"generated", len(res.Conversations),
				)
			}
			return nil
		})
	}
	if res.Conversations == nil {
		res.Conversations = []converse.Conversation{}
	}

	res.Record = rn.record(store.RunSucceeded, "")
	if r.store != nil {
		if err := r.stage(rn, StageStore, func() error {
			return r.save(ctx, rn, store.RunOutput{
				Run:           res.Record,
				Facts:         res.Facts,
				Conversations: res.Conversations,
				ImagePairs:    res.ImagePairs,
			})
		}); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}

	if rn.req.ExportDir != "" {
		if err := r.stage(rn, StageExport, func() error {
			return Export(rn.req.ExportDir, res)
		}); err != nil {
			return err
		}
		rn.log.Info("exports written", "dir", rn.req.ExportDir)
	}
	return nil
}

// save writes the run in one transaction, retrying lock conflicts with
// another writer of the same database file.
func (r *Runner) save(ctx context.Context, rn *run, out store.RunOutput) error {
	var err error
	for attempt := range MaxRetries {
		err = r.store.SaveRun(ctx, out)
		if err == nil || !IsRetryable(err) {
			return err
		}
		rn.log.Warn("database busy, retrying", "attempt", attempt, "error", err)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// stage announces, times and runs fn.
func (r *Runner) stage(rn *run, s Stage, fn func() error) error {
	if rn.req.OnStage != nil {
		rn.req.OnStage(s)
	}
	start := time.Now()
	err := fn()
	r.stats.Record(s, time.Since(start))
	return err
}

// load reads the input as an artifact, a single document or a directory of
// documents. The bool reports whether the documents came from an artifact.
func (r *Runner) load(ctx context.Context, rn *run) ([]*document.Document, bool, error) {
	input := rn.req.Input
	if input == "" {
		return nil, false, fmt.Errorf("%w: input path is empty", ErrNoInput)
	}
	info, err := os.Stat(input)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrNoInput, err)
	}

	if !info.IsDir() {
		if document.IsArtifact(input) {
			docs, err := document.ReadArtifact(input)
			if err != nil {
				return nil, false, err
			}
			rn.log.Info("loaded artifact", "path", input, "documents", len(docs), "pages", document.PageCount(docs))
			return docs, true, nil
		}
		doc, err := r.parseFile(ctx, rn, input)
		if err != nil {
			return nil, false, err
		}
		return []*document.Document{doc}, false, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrNoInput, err)
	}
	var docs []*document.Document
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(input, e.Name())
		if !parser.IsSupportedExtension(path) {
			rn.log.Warn("skipping unsupported file", "file", e.Name())
			continue
		}
		doc, err := r.parseFile(ctx, rn, path)
		if err != nil {
			rn.log.Warn("skipping unreadable document", "file", e.Name(), "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		rn.log.Warn("no documents found", "input", input)
	}
	return docs, false, nil
}

func (r *Runner) parseFile(ctx context.Context, rn *run, path string) (*document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := parser.ForFile(path, parser.Options{
		PDFFallbackPdftotext: r.cfg.PDFFallbackPdftotext,
		ColumnGap:            r.cfg.ColumnGapThreshold,
		Logger:               rn.log,
	})
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := p.Parse(bytes.NewReader(data), path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		rn.pdfs[doc.ID] = path
	}
	rn.log.Info("parsed document", "document", doc.ID, "pages", len(doc.Pages))
	return doc, nil
}

func (r *Runner) normalize(rn *run, docs []*document.Document) {
	for _, d := range docs {
		for _, p := range d.Pages {
			p.CleanedText = normalize.Clean(p.RawText, p.Layout)
			if p.CleanedText == "" {
				rn.log.Warn("page has no text", "document", d.ID, "page", p.Number)
			}
		}
	}
}

func (r *Runner) extractImages(ctx context.Context, rn *run, docs []*document.Document) []images.Pair {
	ocr := images.NewOCR(r.cfg.OCRCommand, rn.log)
	ex := images.NewExtractor(r.cfg.ImageDir, ocr, rn.log)

	var pairs []images.Pair
	for _, d := range docs {
		path, ok := rn.pdfs[d.ID]
		if !ok {
			continue
		}
		got, err := ex.ExtractFile(ctx, path, d.ID)
		if err != nil {
			rn.log.Warn("image extraction failed", "document", d.ID, "error", err)
			continue
		}
		pairs = append(pairs, got...)
	}
	rn.log.Info("images extracted", "pairs", len(pairs))
	return pairs
}

func (rn *run) record(status, errMsg string) store.RunRecord {
	res := rn.res
	return store.RunRecord{
		RunID:         rn.id,
		StartedAt:     rn.started,
		FinishedAt:    time.Now().UTC(),
		Status:        status,
		Documents:     len(res.Documents),
		Pages:         document.PageCount(res.Documents),
		Facts:         len(res.Facts),
		Conversations: len(res.Conversations),
		ImagePairs:    len(res.ImagePairs),
		Error:         errMsg,
	}
}

func (r *Runner) recordFailure(ctx context.Context, rn *run, cause error) {
	if r.store == nil {
		return
	}
	rec := rn.record(store.RunFailed, cause.Error())
	if err := r.store.RecordRun(context.WithoutCancel(ctx), rec); err != nil {
		rn.log.Warn("could not record failed run", "error", err)
	}
}
