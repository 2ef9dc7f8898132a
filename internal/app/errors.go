package app

import "errors"

var (
	// ErrNotAuthenticated is returned by operations that require a logged-in
	// user.
	ErrNotAuthenticated = errors.New("app: not authenticated")

	// ErrChatRequestFailed wraps text-mode send failures. The optimistically
	// appended user message has already been rolled back when this is
	// returned.
	ErrChatRequestFailed = errors.New("app: chat request failed")

	// ErrSynthesisFailed wraps on-demand speech synthesis failures.
	ErrSynthesisFailed = errors.New("app: speech synthesis failed")
)
