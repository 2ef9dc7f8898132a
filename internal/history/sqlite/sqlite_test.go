package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sonara-voice/sonara/internal/history"
	"github.com/sonara-voice/sonara/internal/history/sqlite"
	"github.com/sonara-voice/sonara/internal/transcript"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleConversation(id, userID string, ts time.Time) history.Conversation {
	return history.Conversation{
		ID:        id,
		UserID:    userID,
		Title:     "what is the weather",
		Timestamp: ts,
		Mode:      history.ModeVoice,
		Transcripts: []transcript.Message{
			{Speaker: transcript.SpeakerUser, Text: "what is the weather"},
			{Speaker: transcript.SpeakerModel, Text: "sunny today"},
		},
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()

	want := sampleConversation("c1", "alice@example.com", time.Now().UTC().Truncate(time.Millisecond))
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, "alice@example.com", "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != want.Title || got.Mode != want.Mode {
		t.Errorf("got %+v", got)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
	if len(got.Transcripts) != 2 || got.Transcripts[1].Text != "sunny today" {
		t.Errorf("transcripts = %+v", got.Transcripts)
	}
}

func TestStore_SaveUpserts(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()

	conv := sampleConversation("c1", "alice@example.com", time.Now().UTC())
	if err := s.Save(ctx, conv); err != nil {
		t.Fatalf("Save: %v", err)
	}
	conv.Title = "updated title"
	conv.Transcripts = append(conv.Transcripts, transcript.Message{
		Speaker: transcript.SpeakerUser, Text: "and tomorrow?",
	})
	if err := s.Save(ctx, conv); err != nil {
		t.Fatalf("re-Save: %v", err)
	}

	all, err := s.List(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("conversation count = %d, want 1 (upsert)", len(all))
	}
	if all[0].Title != "updated title" || len(all[0].Transcripts) != 3 {
		t.Errorf("got %+v", all[0])
	}
}

func TestStore_ListNewestFirstScopedToUser(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	if err := s.Save(ctx, sampleConversation("old", "alice@example.com", base.Add(-time.Hour))); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, sampleConversation("new", "alice@example.com", base)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, sampleConversation("other", "bob@example.com", base)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	all, err := s.List(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("conversation count = %d, want 2", len(all))
	}
	if all[0].ID != "new" || all[1].ID != "old" {
		t.Errorf("order = [%s, %s], want [new, old]", all[0].ID, all[1].ID)
	}
}

func TestStore_GetUnknownIsNotFound(t *testing.T) {
	t.Parallel()
	s := openStore(t)

	_, err := s.Get(context.Background(), "alice@example.com", "nope")
	if !errors.Is(err, history.ErrNotFound) {
		t.Errorf("Get = %v, want ErrNotFound", err)
	}

	// A conversation belonging to another user is also not found.
	conv := sampleConversation("c1", "bob@example.com", time.Now().UTC())
	if err := s.Save(context.Background(), conv); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_, err = s.Get(context.Background(), "alice@example.com", "c1")
	if !errors.Is(err, history.ErrNotFound) {
		t.Errorf("cross-user Get = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, sampleConversation("c1", "alice@example.com", time.Now().UTC())); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(ctx, "alice@example.com", "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "alice@example.com", "c1"); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}
