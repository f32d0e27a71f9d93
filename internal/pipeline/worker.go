package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/docdialog/internal/config"
)

// Worker executes uploaded documents as full runs.
type Worker struct {
	runner *Runner
	cfg    config.Config
	log    *slog.Logger
}

func NewWorker(runner *Runner, cfg config.Config, log *slog.Logger) *Worker {
	return &Worker{
		runner: runner,
		cfg:    cfg,
		log:    log,
	}
}

// Process writes the upload to a scratch directory and runs it end to end.
// Ids restart at 001 for every job, so its rows replace same-id rows of
// earlier jobs in the store.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	defer job.releaseFileData()

	dir, err := os.MkdirTemp("", "docdialog-job-*")
	if err != nil {
		log.Error("create scratch dir failed", "error", err)
		job.AddError(fmt.Sprintf("scratch dir: %s", err))
		job.SetStatus(StatusFailed, "queued")
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, filepath.Base(job.Filename))
	if err := os.WriteFile(path, job.FileData(), 0o600); err != nil {
		log.Error("write upload failed", "error", err)
		job.AddError(fmt.Sprintf("write upload: %s", err))
		job.SetStatus(StatusFailed, "queued")
		return
	}

	req := RequestFromConfig(w.cfg, ScopeFull)
	req.Input = path
	req.MaxFacts = job.MaxFacts
	req.Conversations = job.Conversations
	// Uploads are persisted to the store only.
	req.ArtifactPath = ""
	req.ExportDir = ""

	var phase Stage
	req.OnStage = func(s Stage) {
		phase = s
		job.SetStatus(statusForStage(s), string(s))
	}

	res, err := w.runner.Execute(ctx, req)
	if err != nil {
		log.Error("run failed", "phase", phase, "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, string(phase))
		return
	}

	job.SetResult(res)
	job.SetStatus(StatusCompleted, "done")
	log.Info("job completed", "run_id", res.RunID, "facts", len(res.Facts), "conversations", len(res.Conversations))
}
