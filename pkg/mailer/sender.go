package mailer

import "context"

// Sender defines the minimal interface that email providers must implement.
// It accepts a built Message and handles the actual delivery.
type Sender interface {
	// Send delivers one message and returns the provider-assigned id.
	// Implementations report rejected credentials as ErrUnauthorized.
	Send(ctx context.Context, msg *Message) (*SendResult, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, msg *Message) (*SendResult, error)

// Send calls f(ctx, msg).
func (f SenderFunc) Send(ctx context.Context, msg *Message) (*SendResult, error) {
	return f(ctx, msg)
}
