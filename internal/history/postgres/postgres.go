// Package postgres implements history.Store on a PostgreSQL conversations
// table with transcripts stored as JSONB.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sonara-voice/sonara/internal/history"
	"github.com/sonara-voice/sonara/internal/transcript"
)

// Compile-time assertion that Store satisfies history.Store.
var _ history.Store = (*Store)(nil)

// Store is a PostgreSQL-backed conversation store. All methods are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database at connString and ensures the schema
// exists.
func Open(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("history: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history: ping postgres: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL,
    timestamp TIMESTAMPTZ NOT NULL,
    mode TEXT NOT NULL,
    transcripts JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_user_time ON conversations(user_id, timestamp DESC);
`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("history: init schema: %w", err)
	}
	return nil
}

// Save implements history.Store.
func (s *Store) Save(ctx context.Context, conv history.Conversation) error {
	payload, err := json.Marshal(conv.Transcripts)
	if err != nil {
		return fmt.Errorf("history: marshal transcripts: %w", err)
	}

	const q = `
		INSERT INTO conversations (id, user_id, title, timestamp, mode, transcripts)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
		    title = EXCLUDED.title,
		    timestamp = EXCLUDED.timestamp,
		    mode = EXCLUDED.mode,
		    transcripts = EXCLUDED.transcripts`

	_, err = s.pool.Exec(ctx, q,
		conv.ID, conv.UserID, conv.Title, conv.Timestamp, string(conv.Mode), payload)
	if err != nil {
		return fmt.Errorf("history: save conversation: %w", err)
	}
	return nil
}

// List implements history.Store.
func (s *Store) List(ctx context.Context, userID string) ([]history.Conversation, error) {
	const q = `
		SELECT id, user_id, title, timestamp, mode, transcripts
		FROM   conversations
		WHERE  user_id = $1
		ORDER  BY timestamp DESC`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("history: list conversations: %w", err)
	}
	return pgx.CollectRows(rows, collectConversation)
}

// Get implements history.Store.
func (s *Store) Get(ctx context.Context, userID, id string) (history.Conversation, error) {
	const q = `
		SELECT id, user_id, title, timestamp, mode, transcripts
		FROM   conversations
		WHERE  user_id = $1 AND id = $2`

	rows, err := s.pool.Query(ctx, q, userID, id)
	if err != nil {
		return history.Conversation{}, fmt.Errorf("history: get conversation: %w", err)
	}
	conv, err := pgx.CollectOneRow(rows, collectConversation)
	if errors.Is(err, pgx.ErrNoRows) {
		return history.Conversation{}, history.ErrNotFound
	}
	return conv, err
}

// Delete implements history.Store.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM conversations WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("history: delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return history.ErrNotFound
	}
	return nil
}

// Close implements history.Store.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func collectConversation(row pgx.CollectableRow) (history.Conversation, error) {
	var (
		conv    history.Conversation
		mode    string
		payload []byte
	)
	if err := row.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.Timestamp, &mode, &payload); err != nil {
		return history.Conversation{}, fmt.Errorf("history: scan conversation: %w", err)
	}
	conv.Mode = history.Mode(mode)
	if err := json.Unmarshal(payload, &conv.Transcripts); err != nil {
		return history.Conversation{}, fmt.Errorf("history: unmarshal transcripts: %w", err)
	}
	if conv.Transcripts == nil {
		conv.Transcripts = []transcript.Message{}
	}
	return conv, nil
}
