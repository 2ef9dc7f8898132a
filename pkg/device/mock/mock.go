// Package mock provides in-memory [device.Platform] implementations for
// tests. The capture source emits blocks on demand and the output records
// scheduled buffers against a manually advanced clock.
package mock

import (
	"sync"

	"github.com/sonara-voice/sonara/internal/capture"
	"github.com/sonara-voice/sonara/internal/playback"
	"github.com/sonara-voice/sonara/pkg/device"
)

// Compile-time assertions against the device interfaces.
var (
	_ device.Platform = (*Platform)(nil)
	_ capture.Source  = (*Source)(nil)
	_ device.Output   = (*Output)(nil)
)

// Platform is a fake device platform. The zero value is usable; set the Err
// fields to simulate device failures.
type Platform struct {
	CaptureErr  error
	PlaybackErr error
	DevicesErr  error
	Devices     []device.Info

	mu     sync.Mutex
	source *Source
	output *Output
}

// OpenCapture implements [device.Platform].
func (p *Platform) OpenCapture(sampleRate, blockSize int) (capture.Source, error) {
	if p.CaptureErr != nil {
		return nil, p.CaptureErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = &Source{enabled: true, blockSize: blockSize}
	return p.source, nil
}

// OpenPlayback implements [device.Platform].
func (p *Platform) OpenPlayback(sampleRate int) (device.Output, error) {
	if p.PlaybackErr != nil {
		return nil, p.PlaybackErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = &Output{rate: sampleRate}
	return p.output, nil
}

// OutputDevices implements [device.Platform].
func (p *Platform) OutputDevices() ([]device.Info, error) {
	if p.DevicesErr != nil {
		return nil, p.DevicesErr
	}
	return p.Devices, nil
}

// Close implements [device.Platform].
func (p *Platform) Close() error { return nil }

// Source returns the most recently opened capture source, or nil.
func (p *Platform) Source() *Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}

// Output returns the most recently opened output, or nil.
func (p *Platform) Output() *Output {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.output
}

// Source is a hand-cranked capture source.
type Source struct {
	mu        sync.Mutex
	onBlock   func([]float32)
	enabled   bool
	blockSize int
	closed    int
}

// Start implements [capture.Source].
func (s *Source) Start(onBlock func(samples []float32)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onBlock = onBlock
	return nil
}

// SetEnabled implements [capture.Source].
func (s *Source) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Close implements [capture.Source].
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

// Enabled reports the current enabled flag.
func (s *Source) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// CloseCount reports how many times Close was called.
func (s *Source) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Emit synthesizes one device callback of blockSize samples (zero-valued
// unless samples is non-nil), honoring the enabled flag.
func (s *Source) Emit(samples []float32) {
	s.mu.Lock()
	cb, enabled := s.onBlock, s.enabled
	size := s.blockSize
	s.mu.Unlock()
	if cb == nil || !enabled {
		return
	}
	if samples == nil {
		samples = make([]float32, size)
	}
	cb(samples)
}

// Played records one Play call on an Output.
type Played struct {
	Buffer  playback.Buffer
	StartAt float64
	Stopped bool

	onEnded func()
}

// Output records scheduled buffers and exposes a manual clock.
type Output struct {
	rate int

	mu     sync.Mutex
	now    float64
	played []*Played
	closed int
}

// Clock implements [device.Output].
func (o *Output) Clock() playback.Clock { return o }

// Now implements [playback.Clock].
func (o *Output) Now() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.now
}

// Advance moves the manual clock forward by d seconds.
func (o *Output) Advance(d float64) {
	o.mu.Lock()
	o.now += d
	o.mu.Unlock()
}

// Play implements [playback.Sink].
func (o *Output) Play(buf playback.Buffer, startAt float64, onEnded func()) (playback.Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p := &Played{Buffer: buf, StartAt: startAt, onEnded: onEnded}
	o.played = append(o.played, p)
	return &mockHandle{output: o, played: p}, nil
}

// Close implements [playback.Sink].
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed++
	return nil
}

// CloseCount reports how many times Close was called.
func (o *Output) CloseCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// Playback returns a snapshot of every Play call so far.
func (o *Output) Playback() []Played {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Played, len(o.played))
	for i, p := range o.played {
		out[i] = *p
	}
	return out
}

// FinishAll fires the natural-end callback of every non-stopped buffer.
func (o *Output) FinishAll() {
	o.mu.Lock()
	var ended []func()
	for _, p := range o.played {
		if !p.Stopped && p.onEnded != nil {
			ended = append(ended, p.onEnded)
			p.onEnded = nil
		}
	}
	o.mu.Unlock()
	for _, f := range ended {
		f()
	}
}

type mockHandle struct {
	output *Output
	played *Played
}

// Stop implements [playback.Handle].
func (h *mockHandle) Stop() {
	h.output.mu.Lock()
	defer h.output.mu.Unlock()
	h.played.Stopped = true
	h.played.onEnded = nil
}
