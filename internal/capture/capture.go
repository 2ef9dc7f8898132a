// Package capture turns a live microphone stream into a steady sequence of
// transport-encoded audio packets.
//
// A [Source] delivers fixed-size blocks of mono float32 samples at the
// device-driven cadence. The [Pipeline] encodes each block and hands the
// packet to a sink without waiting for the sink to finish: audio capture must
// never stall on network backpressure. The cost of that choice is that
// delivery ordering is best effort — if sink completions are not FIFO,
// packets may arrive out of order. Strengthening this to a sequenced
// outbound queue is an open question; the current behavior matches the
// service's tolerance for it.
package capture

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/sonara-voice/sonara/pkg/audio"
	"github.com/sonara-voice/sonara/pkg/provider/live"
)

const (
	// BlockSize is the number of samples per capture block. Fixed by design,
	// not user-configurable.
	BlockSize = 4096

	// SampleRate is the capture rate in Hz.
	SampleRate = 16000

	// MIMEType tags outbound packets with the wire PCM format.
	MIMEType = "audio/pcm;rate=16000"
)

// Source is a capture device delivering mono float32 sample blocks.
type Source interface {
	// Start begins capture. onBlock is invoked once per block of exactly
	// BlockSize samples at SampleRate; the slice is only valid for the
	// duration of the call. Start returns an error if the device cannot be
	// opened.
	Start(onBlock func(samples []float32)) error

	// SetEnabled toggles sample delivery without releasing the device.
	// While disabled the device keeps running but onBlock is not invoked.
	SetEnabled(enabled bool)

	// Close stops capture and releases the device. Idempotent.
	Close() error
}

// Sink receives encoded packets. Errors are the sink's to handle; the
// pipeline never retries.
type Sink func(pkt live.Packet)

// Option is a functional option for configuring a [Pipeline].
type Option func(*Pipeline)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.log = logger
	}
}

// Pipeline connects a Source to a Sink. There is no buffering across blocks:
// each block is encoded and dispatched independently.
type Pipeline struct {
	source Source
	sink   Sink
	log    *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewPipeline returns an unstarted Pipeline reading from source and
// dispatching to sink.
func NewPipeline(source Source, sink Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		source: source,
		sink:   sink,
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start opens the device and begins dispatching packets.
func (p *Pipeline) Start() error {
	if err := p.source.Start(p.handleBlock); err != nil {
		return fmt.Errorf("capture: start: %w", err)
	}
	p.log.Debug("capture started", "block_size", BlockSize, "sample_rate", SampleRate)
	return nil
}

// handleBlock encodes one block and dispatches it. The sink call runs in its
// own goroutine so a slow send never delays the device callback.
func (p *Pipeline) handleBlock(samples []float32) {
	pcm := audio.FloatToPCM16(samples)
	pkt := live.Packet{
		Data:     audio.EncodeTransport(pcm),
		MIMEType: MIMEType,
	}
	go p.sink(pkt)
}

// SetMuted suspends or resumes packet production. The device stays open so
// unmuting is instant.
func (p *Pipeline) SetMuted(muted bool) {
	p.source.SetEnabled(!muted)
}

// Close stops capture and releases the device. Idempotent.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.source.Close()
	})
	return p.closeErr
}
