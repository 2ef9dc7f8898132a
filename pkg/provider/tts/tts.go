// Package tts defines the Provider interface for on-demand speech
// synthesis.
//
// Text mode uses this for per-message audio: the whole message is
// synthesised in one request and the raw PCM is wrapped into a WAV artifact
// for playback or download. There is no streaming; on-demand synthesis is
// not on the realtime path.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// SampleRate is the PCM rate of synthesised audio in Hz.
const SampleRate = 24000

// Provider is the abstraction over any speech synthesis backend.
type Provider interface {
	// Synthesize renders text as 16-bit little-endian mono PCM at
	// SampleRate using the given voice. An empty voice selects the
	// provider default. Returns an error when the request fails or the
	// service returns no audio.
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}
