// Package history persists finished conversations per user. A conversation
// is the finalized transcript list plus identifying metadata; stores upsert
// by ID so re-saving a viewed conversation updates it in place.
package history

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/sonara-voice/sonara/internal/transcript"
)

// ErrNotFound is returned by Get and Delete for an unknown conversation ID.
var ErrNotFound = errors.New("history: conversation not found")

// Mode records which surface produced a conversation.
type Mode string

const (
	ModeVoice Mode = "voice"
	ModeText  Mode = "text"
)

// titleLimit is the maximum title length derived from the first user
// message.
const titleLimit = 40

// Conversation is one persisted conversation.
type Conversation struct {
	ID          string               `json:"id"`
	UserID      string               `json:"-"`
	Title       string               `json:"title"`
	Timestamp   time.Time            `json:"timestamp"`
	Mode        Mode                 `json:"mode"`
	Transcripts []transcript.Message `json:"transcripts"`
}

// Store is the persistence abstraction for conversations. Implementations
// must be safe for concurrent use.
type Store interface {
	// Save upserts conv by ID.
	Save(ctx context.Context, conv Conversation) error

	// List returns the user's conversations, newest first.
	List(ctx context.Context, userID string) ([]Conversation, error)

	// Get fetches one conversation by ID, scoped to the user.
	Get(ctx context.Context, userID, id string) (Conversation, error)

	// Delete removes one conversation by ID, scoped to the user.
	Delete(ctx context.Context, userID, id string) error

	// Close releases underlying resources.
	Close() error
}

// New assembles a Conversation from a finished transcript. id may be empty
// for a fresh conversation, in which case a new one is assigned. All
// messages are marked final.
func New(id, userID string, mode Mode, msgs []transcript.Message) Conversation {
	if id == "" {
		id = uuid.NewString()
	}
	final := make([]transcript.Message, len(msgs))
	copy(final, msgs)
	for i := range final {
		final[i].Partial = false
	}
	return Conversation{
		ID:          id,
		UserID:      userID,
		Title:       Title(msgs, mode),
		Timestamp:   time.Now().UTC(),
		Mode:        mode,
		Transcripts: final,
	}
}

// Title derives a conversation title from the first user message, truncated
// to 40 runes with an ellipsis. Truncation is rune-based so multi-byte
// scripts are never cut mid-character. Without any user message the title
// falls back to "New <mode> Chat".
func Title(msgs []transcript.Message, mode Mode) string {
	var first string
	for _, m := range msgs {
		if m.Speaker == transcript.SpeakerUser {
			first = m.Text
			break
		}
	}
	title := strings.TrimSpace(truncate(first, titleLimit))
	if utf8.RuneCountInString(first) > titleLimit {
		title += "..."
	}
	if title == "" {
		return "New " + string(mode) + " Chat"
	}
	return title
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
