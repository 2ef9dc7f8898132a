// Package device abstracts the host audio hardware behind small interfaces
// so the session layer can run against real devices or in-memory fakes.
//
// A [Platform] hands out one capture source and one playback output per
// session; both are exclusively owned by the session until teardown.
package device

import (
	"errors"

	"github.com/sonara-voice/sonara/internal/capture"
	"github.com/sonara-voice/sonara/internal/playback"
)

var (
	// ErrAccessDenied means the user or OS refused microphone access.
	ErrAccessDenied = errors.New("device: access denied")

	// ErrUnavailable means no usable device was found or the device broke.
	ErrUnavailable = errors.New("device: unavailable")
)

// Info describes one playback device for selection UIs.
type Info struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Output is an open playback path: a schedulable sink plus the output clock
// that times it.
type Output interface {
	playback.Sink

	// Clock returns the output clock backing scheduled start times.
	Clock() playback.Clock
}

// Platform supplies audio devices. Implementations must be safe for
// concurrent use.
type Platform interface {
	// OpenCapture acquires the default microphone, delivering blocks of
	// blockSize mono float32 samples at sampleRate. Errors unwrap to
	// ErrAccessDenied or ErrUnavailable.
	OpenCapture(sampleRate, blockSize int) (capture.Source, error)

	// OpenPlayback acquires an output path at sampleRate mono.
	OpenPlayback(sampleRate int) (Output, error)

	// OutputDevices enumerates available playback devices.
	OutputDevices() ([]Info, error)

	// Close releases the platform's underlying audio context.
	Close() error
}
