package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgallion1/docdialog/internal/converse"
)

const upsertConversationSQL = `
	INSERT INTO conversations (conversation_id, topic, created_at, content)
	VALUES (?,?,?,?)
	ON CONFLICT(conversation_id) DO UPDATE SET
		topic=excluded.topic,
		created_at=excluded.created_at,
		content=excluded.content`

// UpsertConversations writes conversations with their full JSON content.
func (s *Store) UpsertConversations(ctx context.Context, convs []converse.Conversation) error {
	if err := upsertConversations(ctx, s.DB, convs); err != nil {
		return s.wrap("upsert conversations", err)
	}
	return nil
}

func upsertConversations(ctx context.Context, db execer, convs []converse.Conversation) error {
	for _, c := range convs {
		content, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal conversation %s: %w", c.ID, err)
		}
		if _, err := db.ExecContext(ctx, upsertConversationSQL,
			c.ID, c.Topic, formatTime(c.CreatedAt), string(content)); err != nil {
			return err
		}
	}
	return nil
}

// ListConversations returns conversations ordered by id. limit <= 0 means all.
func (s *Store) ListConversations(ctx context.Context, limit int) ([]converse.Conversation, error) {
	q := `SELECT content FROM conversations ORDER BY conversation_id`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, s.wrap("list conversations", err)
	}
	defer rows.Close()

	var convs []converse.Conversation
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, s.wrap("scan conversation", err)
		}
		var c converse.Conversation
		if err := json.Unmarshal([]byte(content), &c); err != nil {
			return nil, s.wrap("decode conversation", err)
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("list conversations", err)
	}
	return convs, nil
}

// GetConversation returns the conversation with id, or nil when it does not
// exist.
func (s *Store) GetConversation(ctx context.Context, id string) (*converse.Conversation, error) {
	var content string
	err := s.DB.QueryRowContext(ctx,
		`SELECT content FROM conversations WHERE conversation_id = ?`, id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap("get conversation", err)
	}
	var c converse.Conversation
	if err := json.Unmarshal([]byte(content), &c); err != nil {
		return nil, s.wrap("decode conversation", err)
	}
	return &c, nil
}
