// Package playback schedules decoded audio buffers onto a shared output
// clock so they play back-to-back with no gap and no overlap.
//
// Buffers arrive asynchronously from the network, but presentation order is
// arrival order: the scheduler keeps a single cursor holding the earliest
// time the next buffer may begin, and every submission advances it by the
// buffer's duration. Barge-in interruption force-stops everything scheduled
// and resets the cursor so the next buffer starts immediately.
//
// The cursor and the active set are owned exclusively by the Scheduler; the
// rest of the application interacts only through Submit, Interrupt and Close.
package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrClosed is returned by Submit after the scheduler has been closed.
var ErrClosed = errors.New("playback: scheduler closed")

// Buffer is one contiguous run of mono audio samples ready for playback.
// Ownership passes to the Scheduler on Submit and ends when playback
// completes naturally or the buffer is force-stopped.
type Buffer struct {
	// Samples holds mono PCM in the range [-1, 1).
	Samples []float32

	// SampleRate is the playback rate in Hz.
	SampleRate int
}

// Duration returns the buffer's play time in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Clock reads the output audio clock. Implementations must be monotonic and
// safe for concurrent use.
type Clock interface {
	// Now returns the current output clock time in seconds.
	Now() float64
}

// Handle controls one buffer that has been handed to a Sink.
type Handle interface {
	// Stop cancels playback immediately. Stopping a buffer that has not
	// started yet cancels it; the sink must not fire onEnded afterwards.
	Stop()
}

// Sink plays buffers on an output device.
type Sink interface {
	// Play schedules buf to begin at startAt on the sink's clock. onEnded
	// fires exactly once when playback finishes naturally and never after
	// Stop.
	Play(buf Buffer, startAt float64, onEnded func()) (Handle, error)

	// Close releases the output device. Called once during teardown.
	Close() error
}

// Option is a functional option for configuring a [Scheduler].
type Option func(*Scheduler)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.log = logger
	}
}

// Scheduler sequences buffers gaplessly on a Sink. It is safe for concurrent
// use, though submissions are expected from a single producer.
type Scheduler struct {
	clock Clock
	sink  Sink
	log   *slog.Logger

	mu        sync.Mutex
	nextStart float64
	active    map[uint64]Handle
	nextID    uint64
	epoch     uint64
	closed    bool

	closeOnce sync.Once
	closeErr  error
}

// NewScheduler returns a Scheduler playing through sink, timed by clock.
func NewScheduler(clock Clock, sink Sink, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:  clock,
		sink:   sink,
		log:    slog.Default(),
		active: make(map[uint64]Handle),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit schedules buf for playback. The computed start time is the later of
// the current clock reading and the cursor, so a buffer arriving late starts
// immediately while a buffer arriving early waits its turn. A zero-duration
// buffer leaves the cursor where it is; it and the following buffer share the
// same start time.
func (s *Scheduler) Submit(buf Buffer) error {
	d := buf.Duration()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	startAt := s.clock.Now()
	if s.nextStart > startAt {
		startAt = s.nextStart
	}
	s.nextStart = startAt + d
	id := s.nextID
	s.nextID++
	epoch := s.epoch
	s.mu.Unlock()

	// Play is called outside the lock: sinks may invoke onEnded inline for
	// degenerate buffers.
	handle, err := s.sink.Play(buf, startAt, func() { s.finished(id) })
	if err != nil {
		return fmt.Errorf("playback: submit: %w", err)
	}

	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		// An interruption or teardown raced the sink call. The buffer was
		// never registered, so stop it here rather than leak it.
		s.mu.Unlock()
		handle.Stop()
		return nil
	}
	s.active[id] = handle
	s.mu.Unlock()
	return nil
}

// finished removes a naturally-completed buffer from the active set. The
// cursor is deliberately left alone: normal completion never rewinds it.
func (s *Scheduler) finished(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}

// Interrupt force-stops every scheduled buffer, clears the active set and
// resets the cursor to zero so the next submission starts as soon as
// possible. Safe to call at any time, including with buffers that have not
// started yet.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	handles := make([]Handle, 0, len(s.active))
	for _, h := range s.active {
		handles = append(handles, h)
	}
	clear(s.active)
	s.nextStart = 0
	s.epoch++
	n := len(handles)
	s.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
	if n > 0 {
		s.log.Debug("playback interrupted", "stopped", n)
	}
}

// Active returns the number of scheduled-but-unfinished buffers.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Close interrupts playback and releases the output device. Idempotent.
func (s *Scheduler) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.Interrupt()
		s.closeErr = s.sink.Close()
	})
	return s.closeErr
}
