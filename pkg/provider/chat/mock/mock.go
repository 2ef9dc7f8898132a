// Package mock provides a scriptable chat.Provider for tests.
package mock

import (
	"context"
	"sync"

	"github.com/sonara-voice/sonara/pkg/provider/chat"
)

// Compile-time assertion that Provider satisfies chat.Provider.
var _ chat.Provider = (*Provider)(nil)

// Request records one Send call.
type Request struct {
	History []chat.Message
	Text    string
}

// Provider returns a canned reply or a canned error.
type Provider struct {
	// Reply is returned by every Send call when Err is nil.
	Reply string

	// Err, when set, fails every Send call.
	Err error

	mu       sync.Mutex
	requests []Request
}

// Send implements chat.Provider.
func (p *Provider) Send(_ context.Context, history []chat.Message, text string) (string, error) {
	hist := make([]chat.Message, len(history))
	copy(hist, history)
	p.mu.Lock()
	p.requests = append(p.requests, Request{History: hist, Text: text})
	p.mu.Unlock()
	if p.Err != nil {
		return "", p.Err
	}
	return p.Reply, nil
}

// Requests returns a snapshot of all recorded calls.
func (p *Provider) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Request, len(p.requests))
	copy(out, p.requests)
	return out
}
