// Package transcript maintains the live conversation transcript: it merges
// streamed partial speech-to-text fragments into a growing message list and
// finalizes entries on turn completion.
//
// The remote service emits cumulative fragments — each fragment carries the
// full text observed so far for that speaker, not a delta. The merge policy
// (replace rather than append) is therefore isolated in a single function,
// [Merger.merge], so a protocol change to delta semantics touches one place.
//
// This package is internal because it encapsulates application-private
// transcript state and is not intended for import by external code.
package transcript

import "sync"

// Speaker identifies who produced a transcript message.
type Speaker string

const (
	// SpeakerUser marks speech recognised from the user's microphone.
	SpeakerUser Speaker = "user"

	// SpeakerModel marks the model's replies (spoken or typed).
	SpeakerModel Speaker = "model"
)

// Message is one entry in the conversation transcript. While Partial is true
// the entry is still being extended by incoming fragments; turn completion
// flips it to final.
type Message struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
	Partial bool    `json:"partial"`
}

// Corrector post-processes finalized transcript text. Implementations must
// be safe for concurrent use.
type Corrector interface {
	// Correct returns text with corrections applied, or text unchanged when
	// no correction matches.
	Correct(text string) string
}

// MergerOption is a functional option for configuring a [Merger].
type MergerOption func(*Merger)

// WithCorrector attaches a [Corrector] applied to user entries when a turn
// completes. Partial entries are never corrected. When nil (the default)
// finalization leaves text untouched.
func WithCorrector(c Corrector) MergerOption {
	return func(m *Merger) {
		m.corrector = c
	}
}

// Merger owns the transcript message list for one conversation. It keeps one
// accumulator per speaker; within a turn the trailing partial entry for a
// speaker is mutated in place, and turn completion finalizes every entry and
// resets both accumulators.
//
// Merger is safe for concurrent use.
type Merger struct {
	mu        sync.Mutex
	messages  []Message
	userAcc   string
	modelAcc  string
	corrector Corrector
}

// NewMerger returns an empty Merger configured with the supplied options.
func NewMerger(opts ...MergerOption) *Merger {
	m := &Merger{}
	for _, o := range opts {
		o(m)
	}
	return m
}

// ApplyInput merges a cumulative user speech-to-text fragment. An empty
// fragment is a no-op.
func (m *Merger) ApplyInput(fragment string) {
	m.applyFragment(SpeakerUser, fragment)
}

// ApplyOutput merges a cumulative model speech-to-text fragment. An empty
// fragment is a no-op.
func (m *Merger) ApplyOutput(fragment string) {
	m.applyFragment(SpeakerModel, fragment)
}

func (m *Merger) applyFragment(speaker Speaker, fragment string) {
	if fragment == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	text := m.merge(speaker, fragment)
	if text == "" {
		return
	}

	if n := len(m.messages); n > 0 {
		last := &m.messages[n-1]
		if last.Partial && last.Speaker == speaker {
			last.Text = text
			return
		}
	}
	m.messages = append(m.messages, Message{Speaker: speaker, Text: text, Partial: true})
}

// merge folds a fragment into the speaker's accumulator and returns the new
// accumulated text. Fragments are cumulative, so the policy is replacement;
// switching the protocol to delta fragments means changing only this
// function to append. Callers must hold m.mu.
func (m *Merger) merge(speaker Speaker, fragment string) string {
	switch speaker {
	case SpeakerUser:
		m.userAcc = fragment
		return m.userAcc
	default:
		m.modelAcc = fragment
		return m.modelAcc
	}
}

// FinalizeTurn marks every message final and resets both accumulators. When
// a corrector is configured it is applied to user entries that were still
// partial at finalization time.
func (m *Merger) FinalizeTurn() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.messages {
		if m.messages[i].Partial {
			m.messages[i].Partial = false
			if m.corrector != nil && m.messages[i].Speaker == SpeakerUser {
				m.messages[i].Text = m.corrector.Correct(m.messages[i].Text)
			}
		}
	}
	m.userAcc = ""
	m.modelAcc = ""
}

// Append adds a finalized message directly, bypassing the accumulators.
// Used by text mode where full messages arrive atomically.
func (m *Merger) Append(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.Partial = false
	m.messages = append(m.messages, msg)
}

// RemoveLast removes the trailing message if one exists. Text mode uses this
// to roll back an optimistically appended user message after a failed send.
func (m *Merger) RemoveLast() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := len(m.messages); n > 0 {
		m.messages = m.messages[:n-1]
	}
}

// SetMessages replaces the transcript wholesale, e.g. when loading a saved
// conversation. All loaded messages are treated as final and the
// accumulators are reset.
func (m *Merger) SetMessages(msgs []Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = make([]Message, len(msgs))
	copy(m.messages, msgs)
	for i := range m.messages {
		m.messages[i].Partial = false
	}
	m.userAcc = ""
	m.modelAcc = ""
}

// Reset clears the transcript and both accumulators.
func (m *Merger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	m.userAcc = ""
	m.modelAcc = ""
}

// ResetAccumulators clears only the per-speaker accumulators, leaving the
// message list intact. Session teardown uses this to drop partial state
// without discarding the transcript being handed to storage.
func (m *Merger) ResetAccumulators() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userAcc = ""
	m.modelAcc = ""
}

// Messages returns a snapshot copy of the transcript.
func (m *Merger) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Len returns the number of transcript messages.
func (m *Merger) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}
