package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sonara-voice/sonara/internal/history"
	"github.com/sonara-voice/sonara/internal/history/postgres"
	"github.com/sonara-voice/sonara/internal/transcript"
)

// testDSN returns the test database DSN from the environment, or skips the
// test if SONARA_TEST_POSTGRES_DSN is not set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("SONARA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SONARA_TEST_POSTGRES_DSN not set — skipping PostgreSQL integration tests")
	}
	return dsn
}

// newTestStore creates a fresh [postgres.Store] with a clean conversations
// table. It calls t.Cleanup to close the store when the test finishes.
func newTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS conversations"); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleConversation(id, userID string, ts time.Time) history.Conversation {
	return history.Conversation{
		ID:        id,
		UserID:    userID,
		Title:     "what is the weather",
		Timestamp: ts,
		Mode:      history.ModeText,
		Transcripts: []transcript.Message{
			{Speaker: transcript.SpeakerUser, Text: "what is the weather"},
			{Speaker: transcript.SpeakerModel, Text: "sunny today"},
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := sampleConversation("c1", "alice@example.com", time.Now().UTC().Truncate(time.Millisecond))
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, "alice@example.com", "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != want.Title || got.Mode != want.Mode || len(got.Transcripts) != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestStore_UpsertAndOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	if err := s.Save(ctx, sampleConversation("old", "alice@example.com", base.Add(-time.Hour))); err != nil {
		t.Fatalf("Save: %v", err)
	}
	updated := sampleConversation("old", "alice@example.com", base)
	updated.Title = "updated title"
	if err := s.Save(ctx, updated); err != nil {
		t.Fatalf("re-Save: %v", err)
	}
	if err := s.Save(ctx, sampleConversation("other", "bob@example.com", base)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	all, err := s.List(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 || all[0].Title != "updated title" {
		t.Errorf("got %+v", all)
	}
}

func TestStore_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "alice@example.com", "nope"); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("Get = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "alice@example.com", "nope"); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("Delete = %v, want ErrNotFound", err)
	}
}
