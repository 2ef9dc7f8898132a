// Package audio provides the PCM sample conversions shared by the capture
// and playback pipelines, the base64 transport codec used on the realtime
// wire, and a WAV container writer for downloadable audio artifacts.
//
// All functions in this package are pure and allocation-predictable: they
// never touch devices, never block, and have no error paths beyond malformed
// transport text. This keeps them callable from audio callbacks.
//
// This package lives under pkg/ because device adapters and provider
// implementations outside internal/ depend on these primitives.
package audio

import "encoding/base64"

// FloatToPCM16 converts normalized float32 samples in [-1, 1] to 16-bit
// signed little-endian PCM. Each sample is scaled by 32768 and truncated;
// values outside [-1, 1] wrap per int16 truncation semantics. This mirrors
// the wire producer exactly and is intentionally not a clamping conversion.
func FloatToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int16(s * 32768)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// PCM16ToFloat converts little-endian 16-bit PCM to per-channel float32
// sample buffers, dividing by 32768 and de-interleaving in sample order.
// channels must be >= 1; a trailing odd byte is ignored. Samples beyond the
// last complete interleaved frame are dropped so every returned channel has
// equal length.
func PCM16ToFloat(pcm []byte, channels int) [][]float32 {
	if channels < 1 {
		channels = 1
	}
	frames := len(pcm) / 2 / channels
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * 2
			v := int16(pcm[off]) | int16(pcm[off+1])<<8
			out[ch][i] = float32(v) / 32768.0
		}
	}
	return out
}

// EncodeTransport encodes raw bytes into the transport-safe text form used
// for audio payloads on the realtime wire.
func EncodeTransport(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeTransport is the inverse of [EncodeTransport]. The round trip is
// exact for arbitrary byte sequences.
func DecodeTransport(text string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(text)
}
