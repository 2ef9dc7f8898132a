// Package chat defines the Provider interface for the text-mode
// conversation fallback.
//
// Unlike the live voice session, text mode is stateless request/response:
// each send carries the full conversation history plus the new user message
// and returns the model's reply as plain text.
package chat

import "context"

// Role identifies the author of a history message.
type Role string

const (
	// RoleUser marks messages written by the user.
	RoleUser Role = "user"

	// RoleModel marks the model's replies.
	RoleModel Role = "model"
)

// Message is one entry of the conversation history sent with a request.
type Message struct {
	Role Role
	Text string
}

// Provider is the abstraction over any text completion backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Send submits text as the next user message on top of history and
	// returns the model's reply. history carries prior turns in order and
	// may be empty for a fresh conversation.
	Send(ctx context.Context, history []Message, text string) (string, error)
}
