package native

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/sonara-voice/sonara/internal/playback"
	"github.com/sonara-voice/sonara/pkg/audio"
	"github.com/sonara-voice/sonara/pkg/device"
)

// Compile-time assertion that output satisfies device.Output.
var _ device.Output = (*output)(nil)

// scheduled is one buffer placed on the output timeline. start is an
// absolute sample index; off tracks how many pcm bytes have been pulled.
type scheduled struct {
	start   int64
	pcm     []byte
	off     int
	onEnded func()
}

// output plays scheduled buffers through oto. The player pulls from Read on
// its own thread; Read lays queued buffers onto the timeline at their start
// positions and fills everything else with silence, which is how scheduled
// start times are honored on a pull-based device.
//
// The output clock is the number of samples the device has pulled, so it
// only advances while the player runs.
type output struct {
	ctx  *oto.Context
	rate int

	mu     sync.Mutex
	player *oto.Player
	pos    int64
	queue  []*scheduled
}

func newOutput(sampleRate int) (*output, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("native: open playback: %w (%w)", err, device.ErrUnavailable)
	}
	<-ready

	o := &output{ctx: ctx, rate: sampleRate}
	o.reopen()
	return o, nil
}

// reopen starts a fresh player after a previous session closed it.
func (o *output) reopen() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		o.player = o.ctx.NewPlayer(o)
		o.player.Play()
	}
}

// Clock implements [device.Output].
func (o *output) Clock() playback.Clock { return o }

// Now implements [playback.Clock].
func (o *output) Now() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return float64(o.pos) / float64(o.rate)
}

// Play implements [playback.Sink].
func (o *output) Play(buf playback.Buffer, startAt float64, onEnded func()) (playback.Handle, error) {
	if buf.SampleRate != o.rate {
		return nil, fmt.Errorf("native: buffer rate %d does not match output rate %d", buf.SampleRate, o.rate)
	}
	it := &scheduled{
		start:   int64(startAt * float64(o.rate)),
		pcm:     audio.FloatToPCM16(buf.Samples),
		onEnded: onEnded,
	}
	o.mu.Lock()
	if o.player == nil {
		o.mu.Unlock()
		return nil, fmt.Errorf("native: playback closed")
	}
	o.queue = append(o.queue, it)
	o.mu.Unlock()
	return &handle{out: o, item: it}, nil
}

// Read implements io.Reader for the oto player. It fills p with the queued
// buffers due in [pos, pos+len(p)/2) and silence elsewhere.
func (o *output) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	span := p[:len(p)&^1]

	o.mu.Lock()
	startPos := o.pos
	endPos := startPos + int64(len(span)/2)

	var finished []func()
	keep := o.queue[:0]
	for _, it := range o.queue {
		if it.start >= endPos {
			keep = append(keep, it)
			continue
		}
		from := it.start
		if from < startPos {
			// The scheduler read the clock just before we advanced it; play
			// the remainder immediately.
			from = startPos
		}
		dst := (from - startPos) * 2
		n := copy(span[dst:], it.pcm[it.off:])
		it.off += n
		if it.off >= len(it.pcm) {
			if it.onEnded != nil {
				finished = append(finished, it.onEnded)
			}
			continue
		}
		it.start = from + int64(n/2)
		keep = append(keep, it)
	}
	o.queue = keep
	o.pos = endPos
	o.mu.Unlock()

	for _, f := range finished {
		f()
	}
	return len(p), nil
}

// Close implements [playback.Sink]. It drops everything still queued and
// closes the player; the process-global context stays open for the next
// session.
func (o *output) Close() error {
	o.mu.Lock()
	o.queue = nil
	player := o.player
	o.player = nil
	o.mu.Unlock()

	if player == nil {
		return nil
	}
	if err := player.Close(); err != nil {
		return fmt.Errorf("native: close player: %w", err)
	}
	return nil
}

// handle removes one scheduled buffer from the timeline.
type handle struct {
	out  *output
	item *scheduled
}

// Stop implements [playback.Handle]. Removing an item that already finished
// or was never queued is a no-op, and onEnded never fires after Stop.
func (h *handle) Stop() {
	o := h.out
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, it := range o.queue {
		if it == h.item {
			o.queue = append(o.queue[:i], o.queue[i+1:]...)
			return
		}
	}
}
