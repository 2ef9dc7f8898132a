// Package mock provides an in-memory live.Provider for tests: sessions
// record outbound packets and play back scripted events.
package mock

import (
	"context"
	"sync"

	"github.com/sonara-voice/sonara/pkg/provider/live"
)

// Compile-time assertions against the live interfaces.
var (
	_ live.Provider = (*Provider)(nil)
	_ live.Session  = (*Session)(nil)
)

// Provider hands out mock Sessions.
type Provider struct {
	// ConnectErr, when set, fails every Connect call.
	ConnectErr error

	mu       sync.Mutex
	sessions []*Session
	configs  []live.Config
}

// Connect implements live.Provider.
func (p *Provider) Connect(_ context.Context, cfg live.Config) (live.Session, error) {
	if p.ConnectErr != nil {
		return nil, p.ConnectErr
	}
	s := NewSession()
	p.mu.Lock()
	p.sessions = append(p.sessions, s)
	p.configs = append(p.configs, cfg)
	p.mu.Unlock()
	return s, nil
}

// Last returns the most recently connected session and its config.
func (p *Provider) Last() (*Session, live.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sessions) == 0 {
		return nil, live.Config{}
	}
	return p.sessions[len(p.sessions)-1], p.configs[len(p.configs)-1]
}

// Session is a scriptable live session.
type Session struct {
	events chan live.Event

	mu     sync.Mutex
	sent   []live.Packet
	err    error
	closed bool
}

// NewSession returns an open Session with a buffered event channel.
func NewSession() *Session {
	return &Session{events: make(chan live.Event, 64)}
}

// SendAudio implements live.Session.
func (s *Session) SendAudio(pkt live.Packet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, pkt)
	return nil
}

// Events implements live.Session.
func (s *Session) Events() <-chan live.Event { return s.events }

// Err implements live.Session.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close implements live.Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

// Emit queues one server event. Panics if the session was terminated.
func (s *Session) Emit(ev live.Event) {
	s.events <- ev
}

// Terminate simulates the remote side ending the session with err as the
// terminal error (nil for a clean close).
func (s *Session) Terminate(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.err = err
	s.closed = true
	s.mu.Unlock()
	close(s.events)
}

// Sent returns a snapshot of every packet sent so far.
func (s *Session) Sent() []live.Packet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]live.Packet, len(s.sent))
	copy(out, s.sent)
	return out
}
