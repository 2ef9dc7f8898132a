// Package native implements [device.Platform] on host audio hardware, using
// miniaudio (via malgo) for microphone capture and device enumeration and
// oto for playback.
package native

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/sonara-voice/sonara/internal/capture"
	"github.com/sonara-voice/sonara/pkg/device"
)

// Compile-time assertion that Platform satisfies device.Platform.
var _ device.Platform = (*Platform)(nil)

// Platform is the host-hardware device platform. Create one per process with
// [New] and Close it on shutdown.
type Platform struct {
	ctx *malgo.AllocatedContext

	mu     sync.Mutex
	output *output
	closed bool
}

// New initialises the host audio context.
func New() (*Platform, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{
		ThreadPriority: malgo.ThreadPriorityRealtime,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("native: init context: %w (%w)", err, device.ErrUnavailable)
	}
	return &Platform{ctx: ctx}, nil
}

// OpenCapture implements [device.Platform]. It opens the default microphone
// in 32-bit float mono and regroups the driver's period callbacks into fixed
// blockSize blocks.
func (p *Platform) OpenCapture(sampleRate, blockSize int) (capture.Source, error) {
	s := &source{blockSize: blockSize}
	s.enabled.Store(true)

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = uint32(sampleRate)
	cfg.PeriodSizeInMilliseconds = 20

	dev, err := malgo.InitDevice(p.ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			s.ingest(input)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("native: open capture: %w (%w)", err, device.ErrUnavailable)
	}
	s.device = dev
	return s, nil
}

// OpenPlayback implements [device.Platform]. The underlying playback context
// is process-global and opened once; subsequent calls must use the same
// sample rate.
func (p *Platform) OpenPlayback(sampleRate int) (device.Output, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.output == nil {
		out, err := newOutput(sampleRate)
		if err != nil {
			return nil, err
		}
		p.output = out
		return out, nil
	}
	if p.output.rate != sampleRate {
		return nil, fmt.Errorf("native: playback context already open at %d Hz (%w)", p.output.rate, device.ErrUnavailable)
	}
	p.output.reopen()
	return p.output, nil
}

// OutputDevices implements [device.Platform].
func (p *Platform) OutputDevices() ([]device.Info, error) {
	infos, err := p.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("native: enumerate playback devices: %w", err)
	}
	out := make([]device.Info, 0, len(infos))
	for _, di := range infos {
		out = append(out, device.Info{
			ID:   di.ID.String(),
			Name: di.Name(),
		})
	}
	return out, nil
}

// Close releases the audio context. Idempotent.
func (p *Platform) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.ctx.Uninit(); err != nil {
		return fmt.Errorf("native: uninit context: %w", err)
	}
	p.ctx.Free()
	return nil
}

// source adapts a malgo capture device to [capture.Source]. The driver
// delivers arbitrary-sized periods; ingest regroups them into exact
// blockSize blocks.
type source struct {
	device    *malgo.Device
	blockSize int
	enabled   atomic.Bool

	mu      sync.Mutex
	onBlock func([]float32)
	pending []float32
	closed  bool
}

func (s *source) Start(onBlock func(samples []float32)) error {
	s.mu.Lock()
	s.onBlock = onBlock
	s.mu.Unlock()
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("native: start capture: %w (%w)", err, device.ErrUnavailable)
	}
	return nil
}

func (s *source) SetEnabled(enabled bool) {
	s.enabled.Store(enabled)
}

// ingest runs on the device thread. It converts the raw little-endian f32
// bytes and emits full blocks.
func (s *source) ingest(input []byte) {
	if !s.enabled.Load() {
		return
	}
	s.mu.Lock()
	cb := s.onBlock
	if cb == nil || s.closed {
		s.mu.Unlock()
		return
	}
	for i := 0; i+4 <= len(input); i += 4 {
		s.pending = append(s.pending, math.Float32frombits(binary.LittleEndian.Uint32(input[i:])))
	}
	var blocks [][]float32
	for len(s.pending) >= s.blockSize {
		block := make([]float32, s.blockSize)
		copy(block, s.pending[:s.blockSize])
		s.pending = s.pending[s.blockSize:]
		blocks = append(blocks, block)
	}
	s.mu.Unlock()

	for _, b := range blocks {
		cb(b)
	}
}

func (s *source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.pending = nil
	s.mu.Unlock()

	_ = s.device.Stop()
	s.device.Uninit()
	return nil
}
