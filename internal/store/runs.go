package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/docdialog/internal/converse"
	"github.com/dgallion1/docdialog/internal/extract"
	"github.com/dgallion1/docdialog/internal/images"
)

// Run statuses recorded in the ledger.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// RunRecord is one row of the run ledger.
type RunRecord struct {
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Status        string    `json:"status"`
	Documents     int       `json:"documents"`
	Pages         int       `json:"pages"`
	Facts         int       `json:"facts"`
	Conversations int       `json:"conversations"`
	ImagePairs    int       `json:"image_pairs"`
	Error         string    `json:"error,omitempty"`
}

// RunOutput is everything one run persists.
type RunOutput struct {
	Run           RunRecord
	Facts         []extract.Fact
	Conversations []converse.Conversation
	ImagePairs    []images.Pair
}

const insertRunSQL = `
	INSERT INTO runs (run_id, started_at, finished_at, status, documents, pages, facts,
	                  conversations, image_pairs, error)
	VALUES (?,?,?,?,?,?,?,?,?,?)
	ON CONFLICT(run_id) DO UPDATE SET
		finished_at=excluded.finished_at,
		status=excluded.status,
		documents=excluded.documents,
		pages=excluded.pages,
		facts=excluded.facts,
		conversations=excluded.conversations,
		image_pairs=excluded.image_pairs,
		error=excluded.error`

func recordRun(ctx context.Context, db execer, r RunRecord) error {
	_, err := db.ExecContext(ctx, insertRunSQL,
		r.RunID, formatTime(r.StartedAt), formatTime(r.FinishedAt), r.Status,
		r.Documents, r.Pages, r.Facts, r.Conversations, r.ImagePairs, r.Error)
	return err
}

// RecordRun writes a ledger row on its own, e.g. for a failed run.
func (s *Store) RecordRun(ctx context.Context, r RunRecord) error {
	if err := recordRun(ctx, s.DB, r); err != nil {
		return s.wrap("record run", err)
	}
	return nil
}

// SaveRun writes the facts, conversations, image pairs and ledger row of a
// run in one transaction. Nothing is written if any statement fails.
func (s *Store) SaveRun(ctx context.Context, out RunOutput) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return s.wrap("begin", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err := upsertFacts(ctx, tx, out.Facts); err != nil {
		return s.wrap("upsert facts", err)
	}
	if err := upsertConversations(ctx, tx, out.Conversations); err != nil {
		return s.wrap("upsert conversations", err)
	}
	if err := upsertImagePairs(ctx, tx, out.ImagePairs); err != nil {
		return s.wrap("upsert image pairs", err)
	}
	if err := recordRun(ctx, tx, out.Run); err != nil {
		return s.wrap("record run", err)
	}
	if err := tx.Commit(); err != nil {
		return s.wrap("commit", err)
	}
	return nil
}

// LastRun returns the most recently started run, or nil when the ledger is
// empty.
func (s *Store) LastRun(ctx context.Context) (*RunRecord, error) {
	var r RunRecord
	var started, finished string
	err := s.DB.QueryRowContext(ctx, `
		SELECT run_id, started_at, finished_at, status, documents, pages, facts,
		       conversations, image_pairs, error
		FROM runs ORDER BY started_at DESC, run_id DESC LIMIT 1`).Scan(
		&r.RunID, &started, &finished, &r.Status, &r.Documents, &r.Pages, &r.Facts,
		&r.Conversations, &r.ImagePairs, &r.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap("last run", err)
	}
	r.StartedAt = parseTime(started)
	r.FinishedAt = parseTime(finished)
	return &r, nil
}

// Stats summarizes the knowledge base.
type Stats struct {
	Facts         int                      `json:"facts"`
	ByCategory    map[extract.Category]int `json:"by_category"`
	Conversations int                      `json:"conversations"`
	ImagePairs    int                      `json:"image_pairs"`
	Runs          int                      `json:"runs"`
	LastRun       *RunRecord               `json:"last_run,omitempty"`
}

// Stats counts rows per table and facts per category.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByCategory: make(map[extract.Category]int)}

	rows, err := s.DB.QueryContext(ctx, `SELECT category, COUNT(*) FROM qa_pairs GROUP BY category`)
	if err != nil {
		return nil, s.wrap("count facts", err)
	}
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			rows.Close()
			return nil, s.wrap("scan category count", err)
		}
		st.ByCategory[extract.Category(cat)] = n
		st.Facts += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, s.wrap("count facts", err)
	}

	counts := []struct {
		table string
		dst   *int
	}{
		{"conversations", &st.Conversations},
		{"image_text_pairs", &st.ImagePairs},
		{"runs", &st.Runs},
	}
	for _, c := range counts {
		if err := s.DB.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", c.table)).Scan(c.dst); err != nil {
			return nil, s.wrap("count "+c.table, err)
		}
	}

	st.LastRun, err = s.LastRun(ctx)
	if err != nil {
		return nil, err
	}
	return st, nil
}
