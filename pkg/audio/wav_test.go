package audio_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/sonara-voice/sonara/pkg/audio"
)

func TestEncodeWAV_HeaderFields(t *testing.T) {
	pcm := make([]byte, 9600) // 200ms at 24kHz mono s16le
	wav := audio.EncodeWAV(pcm, 24000, 1, 16)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("total size = %d, want %d", len(wav), 44+len(pcm))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE markers: %q %q", wav[0:4], wav[8:12])
	}
	if got, want := binary.LittleEndian.Uint32(wav[4:8]), uint32(36+len(pcm)); got != want {
		t.Errorf("chunk size = %d, want %d", got, want)
	}
	if string(wav[12:16]) != "fmt " {
		t.Errorf("fmt marker = %q", wav[12:16])
	}
	if got := binary.LittleEndian.Uint32(wav[16:20]); got != 16 {
		t.Errorf("fmt chunk size = %d, want 16", got)
	}
	if got := binary.LittleEndian.Uint16(wav[20:22]); got != 1 {
		t.Errorf("audio format = %d, want 1 (PCM)", got)
	}
	if got := binary.LittleEndian.Uint16(wav[22:24]); got != 1 {
		t.Errorf("channels = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != 24000 {
		t.Errorf("sample rate = %d, want 24000", got)
	}
	if got := binary.LittleEndian.Uint32(wav[28:32]); got != 48000 {
		t.Errorf("byte rate = %d, want 48000", got)
	}
	if got := binary.LittleEndian.Uint16(wav[32:34]); got != 2 {
		t.Errorf("block align = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint16(wav[34:36]); got != 16 {
		t.Errorf("bits per sample = %d, want 16", got)
	}
	if string(wav[36:40]) != "data" {
		t.Errorf("data marker = %q", wav[36:40])
	}
	if got, want := binary.LittleEndian.Uint32(wav[40:44]), uint32(len(pcm)); got != want {
		t.Errorf("data size = %d, want %d", got, want)
	}
}

func TestEncodeWAV_EmptyPayload(t *testing.T) {
	wav := audio.EncodeWAV(nil, 16000, 1, 16)
	if len(wav) != 44 {
		t.Fatalf("empty payload size = %d, want 44", len(wav))
	}
	if got := binary.LittleEndian.Uint32(wav[4:8]); got != 36 {
		t.Errorf("chunk size = %d, want 36", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != 0 {
		t.Errorf("data size = %d, want 0", got)
	}
}

func TestEncodeWAV_PayloadUnmodified(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	wav := audio.EncodeWAVMono16(pcm, 24000)
	if !bytes.Equal(wav[44:], pcm) {
		t.Errorf("payload modified: got %v, want %v", wav[44:], pcm)
	}
}

func TestEncodeWAV_Stereo(t *testing.T) {
	wav := audio.EncodeWAV(make([]byte, 8), 48000, 2, 16)
	if got := binary.LittleEndian.Uint16(wav[32:34]); got != 4 {
		t.Errorf("stereo block align = %d, want 4", got)
	}
	if got := binary.LittleEndian.Uint32(wav[28:32]); got != 192000 {
		t.Errorf("stereo byte rate = %d, want 192000", got)
	}
}
