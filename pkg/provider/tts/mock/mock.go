// Package mock provides a scriptable tts.Provider for tests.
package mock

import (
	"context"
	"sync"

	"github.com/sonara-voice/sonara/pkg/provider/tts"
)

// Compile-time assertion that Provider satisfies tts.Provider.
var _ tts.Provider = (*Provider)(nil)

// Request records one Synthesize call.
type Request struct {
	Text  string
	Voice string
}

// Provider returns canned PCM or a canned error.
type Provider struct {
	// PCM is returned by every Synthesize call when Err is nil.
	PCM []byte

	// Err, when set, fails every Synthesize call.
	Err error

	mu       sync.Mutex
	requests []Request
}

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(_ context.Context, text, voice string) ([]byte, error) {
	p.mu.Lock()
	p.requests = append(p.requests, Request{Text: text, Voice: voice})
	p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	return p.PCM, nil
}

// Requests returns a snapshot of all recorded calls.
func (p *Provider) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Request, len(p.requests))
	copy(out, p.requests)
	return out
}
