// Package sqlite implements history.Store on an embedded SQLite database
// (modernc.org/sqlite, no cgo). Transcripts are stored as a JSON blob per
// conversation; the access pattern is always whole-conversation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sonara-voice/sonara/internal/history"
	"github.com/sonara-voice/sonara/internal/transcript"
)

// Compile-time assertion that Store satisfies history.Store.
var _ history.Store = (*Store)(nil)

// Store is a SQLite-backed conversation store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and ensures the
// schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: ping sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
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
    timestamp TIMESTAMP NOT NULL,
    mode TEXT NOT NULL,
    transcripts BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_user_time ON conversations(user_id, timestamp DESC);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
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
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    timestamp = excluded.timestamp,
    mode = excluded.mode,
    transcripts = excluded.transcripts`

	_, err = s.db.ExecContext(ctx, q,
		conv.ID, conv.UserID, conv.Title, conv.Timestamp.UTC().Format(time.RFC3339Nano),
		string(conv.Mode), payload)
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
WHERE  user_id = ?
ORDER  BY timestamp DESC`

	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("history: list conversations: %w", err)
	}
	defer rows.Close()

	var out []history.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list conversations: %w", err)
	}
	return out, nil
}

// Get implements history.Store.
func (s *Store) Get(ctx context.Context, userID, id string) (history.Conversation, error) {
	const q = `
SELECT id, user_id, title, timestamp, mode, transcripts
FROM   conversations
WHERE  user_id = ? AND id = ?`

	row := s.db.QueryRowContext(ctx, q, userID, id)
	conv, err := scanConversation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return history.Conversation{}, history.ErrNotFound
	}
	return conv, err
}

// Delete implements history.Store.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("history: delete conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("history: delete conversation: %w", err)
	}
	if n == 0 {
		return history.ErrNotFound
	}
	return nil
}

// Close implements history.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanConversation(scan func(dest ...any) error) (history.Conversation, error) {
	var (
		conv    history.Conversation
		ts      string
		mode    string
		payload []byte
	)
	if err := scan(&conv.ID, &conv.UserID, &conv.Title, &ts, &mode, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return history.Conversation{}, err
		}
		return history.Conversation{}, fmt.Errorf("history: scan conversation: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return history.Conversation{}, fmt.Errorf("history: parse timestamp: %w", err)
	}
	conv.Timestamp = t
	conv.Mode = history.Mode(mode)
	if err := json.Unmarshal(payload, &conv.Transcripts); err != nil {
		return history.Conversation{}, fmt.Errorf("history: unmarshal transcripts: %w", err)
	}
	if conv.Transcripts == nil {
		conv.Transcripts = []transcript.Message{}
	}
	return conv, nil
}
