package audio_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"testing"

	"github.com/sonara-voice/sonara/pkg/audio"
)

// samplesToBytes converts a slice of int16 samples to little-endian byte representation.
func samplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

func TestFloatToPCM16(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 0.999969}
	got := audio.FloatToPCM16(samples)
	want := samplesToBytes([]int16{0, 16384, -16384, 32767})
	if !bytes.Equal(got, want) {
		t.Errorf("FloatToPCM16(%v) = %v, want %v", samples, got, want)
	}
}

func TestFloatToPCM16_TruncatesWithoutClamping(t *testing.T) {
	// 1.0 scales to 32768 which wraps to -32768 per int16 truncation. This
	// mirrors the wire producer; the behaviour is documented, not a bug.
	got := audio.FloatToPCM16([]float32{1.0})
	want := samplesToBytes([]int16{-32768})
	if !bytes.Equal(got, want) {
		t.Errorf("FloatToPCM16([1.0]) = %v, want %v", got, want)
	}
}

func TestPCM16ToFloat_Mono(t *testing.T) {
	pcm := samplesToBytes([]int16{16384, -16384, 0})
	chans := audio.PCM16ToFloat(pcm, 1)
	if len(chans) != 1 {
		t.Fatalf("channel count = %d, want 1", len(chans))
	}
	want := []float32{0.5, -0.5, 0}
	for i, w := range want {
		if chans[0][i] != w {
			t.Errorf("sample %d = %v, want %v", i, chans[0][i], w)
		}
	}
}

func TestPCM16ToFloat_StereoDeinterleave(t *testing.T) {
	// Interleaved L R L R.
	pcm := samplesToBytes([]int16{100, -100, 200, -200})
	chans := audio.PCM16ToFloat(pcm, 2)
	if len(chans) != 2 {
		t.Fatalf("channel count = %d, want 2", len(chans))
	}
	if len(chans[0]) != 2 || len(chans[1]) != 2 {
		t.Fatalf("frame counts = %d/%d, want 2/2", len(chans[0]), len(chans[1]))
	}
	if chans[0][0] != 100.0/32768 || chans[0][1] != 200.0/32768 {
		t.Errorf("left channel = %v", chans[0])
	}
	if chans[1][0] != -100.0/32768 || chans[1][1] != -200.0/32768 {
		t.Errorf("right channel = %v", chans[1])
	}
}

func TestPCM16ToFloat_OddLengthIgnoresTrailingByte(t *testing.T) {
	pcm := append(samplesToBytes([]int16{1000}), 0x7F)
	chans := audio.PCM16ToFloat(pcm, 1)
	if len(chans[0]) != 1 {
		t.Fatalf("frame count = %d, want 1", len(chans[0]))
	}
}

func TestFloatRoundTrip_WithinOneStep(t *testing.T) {
	// For any sample in [-1, 1], decode(encode(s)) must be within 1/32768 of s.
	rng := rand.New(rand.NewSource(1))
	samples := make([]float32, 512)
	for i := range samples {
		samples[i] = rng.Float32()*2 - 1
	}
	back := audio.PCM16ToFloat(audio.FloatToPCM16(samples), 1)[0]
	for i, s := range samples {
		if diff := math.Abs(float64(back[i] - s)); diff > 1.0/32768 {
			t.Fatalf("sample %d: round trip error %v exceeds 1/32768 (in %v, out %v)", i, diff, s, back[i])
		}
	}
}

func TestTransportRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, n := range []int{0, 1, 2, 3, 63, 64, 65, 4096} {
		data := make([]byte, n)
		rng.Read(data)
		got, err := audio.DecodeTransport(audio.EncodeTransport(data))
		if err != nil {
			t.Fatalf("DecodeTransport(len=%d): %v", n, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("transport round trip mismatch for len=%d", n)
		}
	}
}

func TestDecodeTransport_Invalid(t *testing.T) {
	if _, err := audio.DecodeTransport("not!!base64"); err == nil {
		t.Error("DecodeTransport accepted invalid text")
	}
}
