// Package session owns the lifecycle of one realtime voice connection: the
// idle → connecting → live → idle state machine, mute state, and the routing
// of inbound server events to playback and to the transcript.
//
// The microphone, the playback output and the live connection are acquired
// during Start and exclusively owned by the Controller until teardown.
// A monotonic epoch counter guards against stale async completions: any
// operation that suspends (device acquisition, connection open) re-checks
// the epoch before applying side effects, so a user who cancels mid-connect
// never sees a zombie session come alive.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sonara-voice/sonara/internal/capture"
	"github.com/sonara-voice/sonara/internal/playback"
	"github.com/sonara-voice/sonara/internal/transcript"
	"github.com/sonara-voice/sonara/pkg/audio"
	"github.com/sonara-voice/sonara/pkg/device"
	"github.com/sonara-voice/sonara/pkg/provider/live"
)

// PlaybackRate is the sample rate of inbound model speech in Hz.
const PlaybackRate = 24000

// State is the connection lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateLive       State = "live"
)

// StartConfig selects the conversation languages and voice for one session.
type StartConfig struct {
	// InputLanguage is the language code the user speaks, e.g. "en-US".
	InputLanguage string

	// OutputLanguage is the language code the model replies in.
	OutputLanguage string

	// Voice overrides the spoken reply voice. Empty means DefaultVoice.
	Voice string
}

// Option is a functional option for configuring a [Controller].
type Option func(*Controller)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.log = logger
	}
}

// WithStateListener registers a callback invoked on every state transition
// and progress update. The callback must not call back into the Controller.
func WithStateListener(fn func(state State, message string)) Option {
	return func(c *Controller) {
		c.onState = fn
	}
}

// WithErrorListener registers a callback for errors raised outside a Start
// call, i.e. failures of an already-live session. The callback must not call
// back into the Controller.
func WithErrorListener(fn func(err error)) Option {
	return func(c *Controller) {
		c.onError = fn
	}
}

// Controller is the session state machine. All methods are safe for
// concurrent use; Stop is idempotent from any state.
type Controller struct {
	provider live.Provider
	platform device.Platform
	merger   *transcript.Merger
	log      *slog.Logger
	onState  func(State, string)
	onError  func(error)

	mu        sync.Mutex
	state     State
	epoch     uint64
	muted     bool
	sess      live.Session
	pipeline  *capture.Pipeline
	scheduler *playback.Scheduler
}

// NewController returns an idle Controller. Inbound transcription fragments
// are merged into merger; the caller keeps ownership of it.
func NewController(provider live.Provider, platform device.Platform, merger *transcript.Merger, opts ...Option) *Controller {
	c := &Controller{
		provider: provider,
		platform: platform,
		merger:   merger,
		log:      slog.Default(),
		state:    StateIdle,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Muted reports the mute flag.
func (c *Controller) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// SetMuted toggles microphone muting. The device stays open; only packet
// production is suspended. A no-op unless the session is live.
func (c *Controller) SetMuted(muted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateLive {
		return
	}
	c.muted = muted
	c.pipeline.SetMuted(muted)
}

// Start acquires the microphone and playback output, opens the realtime
// connection and transitions to live. Any failure releases everything
// acquired so far and returns to idle. Calling Stop while Start is still
// connecting cancels the attempt; Start then returns nil.
func (c *Controller) Start(ctx context.Context, cfg StartConfig) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateConnecting
	c.epoch++
	epoch := c.epoch
	c.muted = false
	c.mu.Unlock()

	c.merger.Reset()
	c.notify(StateConnecting, "Requesting microphone access...")

	source, err := c.platform.OpenCapture(capture.SampleRate, capture.BlockSize)
	if err != nil {
		return c.abortStart(epoch, classifyDeviceErr("open microphone", err))
	}
	if c.cancelled(epoch) {
		_ = source.Close()
		return nil
	}

	c.notify(StateConnecting, "Initializing audio...")
	output, err := c.platform.OpenPlayback(PlaybackRate)
	if err != nil {
		_ = source.Close()
		return c.abortStart(epoch, classifyDeviceErr("open playback", err))
	}
	if c.cancelled(epoch) {
		_ = source.Close()
		_ = output.Close()
		return nil
	}

	c.notify(StateConnecting, "Connecting...")
	voice := cfg.Voice
	if voice == "" {
		voice = DefaultVoice
	}
	sess, err := c.provider.Connect(ctx, live.Config{
		Instructions:        SystemInstruction(cfg.InputLanguage, cfg.OutputLanguage),
		Voice:               voice,
		InputTranscription:  true,
		OutputTranscription: true,
	})
	if err != nil {
		_ = source.Close()
		_ = output.Close()
		return c.abortStart(epoch, fmt.Errorf("%w: %v", ErrConnectionFailed, err))
	}

	scheduler := playback.NewScheduler(output.Clock(), output, playback.WithLogger(c.log))
	pipeline := capture.NewPipeline(source, func(pkt live.Packet) {
		if err := sess.SendAudio(pkt); err != nil {
			c.log.Debug("dropping outbound packet", "error", err)
		}
	}, capture.WithLogger(c.log))

	if err := pipeline.Start(); err != nil {
		_ = pipeline.Close()
		_ = scheduler.Close()
		_ = sess.Close()
		return c.abortStart(epoch, classifyDeviceErr("start capture", err))
	}

	c.mu.Lock()
	if c.epoch != epoch || c.state != StateConnecting {
		// Stopped while the last step was in flight.
		c.mu.Unlock()
		_ = pipeline.Close()
		_ = scheduler.Close()
		_ = sess.Close()
		return nil
	}
	c.state = StateLive
	c.sess = sess
	c.pipeline = pipeline
	c.scheduler = scheduler
	c.mu.Unlock()

	c.log.Info("session live",
		"input_language", cfg.InputLanguage,
		"output_language", cfg.OutputLanguage,
		"voice", voice)
	c.notify(StateLive, "Ready")

	go c.eventLoop(epoch, sess, scheduler)
	return nil
}

// Stop tears the session down and returns to idle. Safe to call from any
// state, any number of times; teardown runs at most once per session.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	c.epoch++
	sess, pipeline, scheduler := c.sess, c.pipeline, c.scheduler
	c.sess, c.pipeline, c.scheduler = nil, nil, nil
	c.state = StateIdle
	c.muted = false
	c.mu.Unlock()

	if pipeline != nil {
		_ = pipeline.Close()
	}
	if scheduler != nil {
		_ = scheduler.Close()
	}
	if sess != nil {
		_ = sess.Close()
	}
	c.merger.ResetAccumulators()
	c.log.Info("session stopped")
	c.notify(StateIdle, "")
}

// eventLoop drains the session's event channel, routing each event to the
// transcript and the playback scheduler. Field application order within one
// event is transcription, audio, turn complete, interrupted.
func (c *Controller) eventLoop(epoch uint64, sess live.Session, scheduler *playback.Scheduler) {
	for ev := range sess.Events() {
		if ev.InputTranscription != "" {
			c.merger.ApplyInput(ev.InputTranscription)
			c.notify(StateLive, "Listening...")
		}
		if ev.OutputTranscription != "" {
			c.merger.ApplyOutput(ev.OutputTranscription)
			c.notify(StateLive, "Speaking...")
		}
		if len(ev.Audio) > 0 {
			channels := audio.PCM16ToFloat(ev.Audio, 1)
			if err := scheduler.Submit(playback.Buffer{Samples: channels[0], SampleRate: PlaybackRate}); err != nil && !errors.Is(err, playback.ErrClosed) {
				c.log.Warn("playback submit failed", "error", err)
			}
		}
		if ev.TurnComplete {
			c.merger.FinalizeTurn()
			c.notify(StateLive, "Ready")
		}
		if ev.Interrupted {
			scheduler.Interrupt()
		}
	}

	// The channel closed: remote close or remote error. Teardown is the
	// same as an explicit stop, but only if this session is still current.
	err := sess.Err()
	c.mu.Lock()
	stale := c.epoch != epoch
	c.mu.Unlock()
	if stale {
		return
	}
	c.Stop()
	if err != nil {
		c.raise(fmt.Errorf("%w: %v", ErrConnectionError, err))
	} else {
		c.raise(ErrConnectionClosed)
	}
}

// abortStart releases the connecting state after a failed acquisition step.
// When the attempt was already cancelled by Stop, the error is suppressed.
func (c *Controller) abortStart(epoch uint64, err error) error {
	c.mu.Lock()
	if c.epoch != epoch || c.state != StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.state = StateIdle
	c.mu.Unlock()

	c.log.Warn("session start failed", "error", err)
	c.notify(StateIdle, "")
	return err
}

// cancelled reports whether Stop invalidated the given epoch.
func (c *Controller) cancelled(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch != epoch || c.state != StateConnecting
}

func (c *Controller) notify(state State, message string) {
	if c.onState != nil {
		c.onState(state, message)
	}
}

func (c *Controller) raise(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}

// classifyDeviceErr maps platform errors onto the session error taxonomy,
// preserving the original error text.
func classifyDeviceErr(op string, err error) error {
	switch {
	case errors.Is(err, device.ErrAccessDenied):
		return fmt.Errorf("%w: %s: %v", ErrDeviceAccessDenied, op, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, op, err)
	}
}
