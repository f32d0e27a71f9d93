package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dgallion1/docdialog/internal/extract"
)

const upsertFactSQL = `
	INSERT INTO qa_pairs (id, question, answer, source_document, page_number, created_at, category)
	VALUES (?,?,?,?,?,?,?)
	ON CONFLICT(id) DO UPDATE SET
		question=excluded.question,
		answer=excluded.answer,
		source_document=excluded.source_document,
		page_number=excluded.page_number,
		created_at=excluded.created_at,
		category=excluded.category`

// FactFilter narrows ListFacts. Zero fields match everything.
type FactFilter struct {
	Category       extract.Category
	SourceDocument string
	Limit          int
}

// UpsertFacts writes facts, replacing rows with the same id.
func (s *Store) UpsertFacts(ctx context.Context, facts []extract.Fact) error {
	if err := upsertFacts(ctx, s.DB, facts); err != nil {
		return s.wrap("upsert facts", err)
	}
	return nil
}

func upsertFacts(ctx context.Context, db execer, facts []extract.Fact) error {
	for _, f := range facts {
		_, err := db.ExecContext(ctx, upsertFactSQL,
			f.ID, f.Question, f.Answer, f.SourceDocument, f.PageNumber,
			formatTime(f.CreatedAt), string(f.Category))
		if err != nil {
			return err
		}
	}
	return nil
}

// ListFacts returns facts ordered by id.
func (s *Store) ListFacts(ctx context.Context, filter FactFilter) ([]extract.Fact, error) {
	var where []string
	var args []any
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.SourceDocument != "" {
		where = append(where, "source_document = ?")
		args = append(args, filter.SourceDocument)
	}

	q := `SELECT id, question, answer, source_document, page_number, created_at, category FROM qa_pairs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"
	if filter.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, s.wrap("list facts", err)
	}
	defer rows.Close()

	var facts []extract.Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, s.wrap("scan fact", err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("list facts", err)
	}
	return facts, nil
}

// GetFact returns the fact with id, or nil when it does not exist.
func (s *Store) GetFact(ctx context.Context, id string) (*extract.Fact, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, question, answer, source_document, page_number, created_at, category
		 FROM qa_pairs WHERE id = ?`, id)
	f, err := scanFact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap("get fact", err)
	}
	return &f, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFact(sc scanner) (extract.Fact, error) {
	var f extract.Fact
	var createdAt, category string
	if err := sc.Scan(&f.ID, &f.Question, &f.Answer, &f.SourceDocument, &f.PageNumber, &createdAt, &category); err != nil {
		return f, err
	}
	f.CreatedAt = parseTime(createdAt)
	f.Category = extract.Category(category)
	return f, nil
}
