// Package dispatch routes incoming messages to registered handlers and
// normalizes handler output into a strict ok/error envelope.
package dispatch

import "context"

// Message is an incoming request. Type is the routing discriminant; the
// dispatcher never mutates a message.
type Message struct {
	Type          string `json:"type"`
	Payload       any    `json:"payload,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// HandlerFunc handles one dispatched message. A non-nil return value is
// delivered as the response unless the handler already called call.Send.
// A returned error (or a panic) is converted into an error envelope by the
// dispatcher; it never reaches the caller as a Go error.
type HandlerFunc func(ctx context.Context, msg *Message, call *Context) (any, error)
