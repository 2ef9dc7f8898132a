package audio

import "encoding/binary"

// wavHeaderSize is the fixed size of a canonical PCM WAV header:
// RIFF descriptor (12) + fmt chunk (24) + data chunk header (8).
const wavHeaderSize = 44

// EncodeWAV wraps raw PCM bytes in a standard RIFF/WAVE container and
// returns the complete file contents. The PCM data is copied unmodified —
// no resampling or re-encoding takes place.
//
// The header is the canonical 44-byte PCM layout: chunk size 36+len(pcm),
// audio format 1 (PCM), byte rate sampleRate*blockAlign and block align
// channels*bitsPerSample/8, all fields little-endian.
func EncodeWAV(pcm []byte, sampleRate, channels, bitsPerSample int) []byte {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	buf := make([]byte, wavHeaderSize+len(pcm))

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // fmt chunk size for PCM
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // audio format: PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bitsPerSample))

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))

	copy(buf[wavHeaderSize:], pcm)
	return buf
}

// EncodeWAVMono16 is the common case for speech synthesis output: mono
// 16-bit PCM at the given sample rate.
func EncodeWAVMono16(pcm []byte, sampleRate int) []byte {
	return EncodeWAV(pcm, sampleRate, 1, 16)
}
