// Package live defines the Provider interface for realtime bidirectional
// voice backends.
//
// A live provider wraps a streaming voice model service that accepts raw
// audio input and returns synthesised audio output plus incremental
// transcriptions in a single, stateful session. The central abstraction is
// [Session]: a long-lived connection that carries microphone packets out and
// multiplexed server events (audio, transcription fragments, turn and
// interruption markers) back in.
//
// All implementations must be safe for concurrent use.
package live

import "context"

// Packet is one outbound audio chunk, already transport-encoded. Packets are
// immutable: the capture pipeline produces one per microphone block, sends
// it, and discards it.
type Packet struct {
	// Data is the transport-encoded (base64) PCM payload.
	Data string

	// MIMEType tags the PCM format and rate, e.g. "audio/pcm;rate=16000".
	MIMEType string
}

// Event is the decoded content of a single server message. A message may
// carry any combination of fields; consumers must apply all that are
// present, in the order transcription → audio → turn complete → interrupted.
type Event struct {
	// InputTranscription is the cumulative speech-to-text of the user's
	// current utterance, empty when the message carried none.
	InputTranscription string

	// OutputTranscription is the cumulative speech-to-text of the model's
	// spoken reply, empty when the message carried none.
	OutputTranscription string

	// Audio is a decoded chunk of the model's synthesised speech (16-bit
	// little-endian PCM, 24 kHz mono), nil when the message carried none.
	Audio []byte

	// TurnComplete marks the end of the current conversation turn.
	TurnComplete bool

	// Interrupted signals barge-in: the user started speaking while model
	// audio was still playing, and all pending playback must stop.
	Interrupted bool
}

// Config is the initial configuration for a new live session.
type Config struct {
	// Instructions is the system-level prompt sent at session setup. The
	// session controller embeds the selected input/output language names
	// here.
	Instructions string

	// Voice is the provider-specific voice identifier for synthesised
	// speech output.
	Voice string

	// InputTranscription enables incremental speech-to-text of the user's
	// microphone audio.
	InputTranscription bool

	// OutputTranscription enables incremental speech-to-text of the
	// model's spoken replies.
	OutputTranscription bool
}

// Session represents an open realtime voice session.
//
// The session is the hot path of the voice loop — SendAudio must return
// quickly and must not wait for server acknowledgement. Events are
// channel-based so the consumer's handler loop owns its own pacing.
//
// Callers must call Close when the session is no longer needed.
type Session interface {
	// SendAudio delivers one outbound audio packet to the provider. It
	// returns an error if the session is closed or the transport write
	// fails; delivery ordering across concurrent senders is best effort.
	SendAudio(pkt Packet) error

	// Events returns a read-only channel of decoded server events in
	// arrival order. The channel is closed when the session ends; after it
	// closes, call [Session.Err] to check whether the session ended
	// cleanly.
	Events() <-chan Event

	// Err returns the error that terminated the session, or nil if it was
	// closed locally or ended cleanly.
	Err() error

	// Close terminates the session and releases all resources. Calling
	// Close more than once is safe and returns nil.
	Close() error
}

// Provider is the abstraction over any realtime voice backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Connect establishes a new live session with the given configuration.
	// The returned Session is ready to accept audio immediately. The caller
	// owns the Session and is responsible for calling Close.
	Connect(ctx context.Context, cfg Config) (Session, error)
}
