package session

import "errors"

// Session error taxonomy. Start and the event loop wrap failures with one of
// these sentinels so callers can distinguish permission denials from generic
// failures with errors.Is.
var (
	// ErrDeviceAccessDenied means the user or OS refused microphone access.
	ErrDeviceAccessDenied = errors.New("session: microphone access denied")

	// ErrDeviceUnavailable means no usable audio device was found.
	ErrDeviceUnavailable = errors.New("session: audio device unavailable")

	// ErrConnectionFailed means the realtime session could not be opened.
	ErrConnectionFailed = errors.New("session: connection failed")

	// ErrConnectionError means the realtime session errored after opening.
	ErrConnectionError = errors.New("session: connection error")

	// ErrConnectionClosed means the remote side closed the session.
	ErrConnectionClosed = errors.New("session: connection closed")

	// ErrBusy means Start was called while a session was already starting
	// or live.
	ErrBusy = errors.New("session: already active")
)
