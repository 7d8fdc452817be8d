// Package transport abstracts the outbound delivery channel for rendered
// notifications. Implementations report acceptance by the downstream
// provider, not end delivery.
package transport

import "context"

// Message is a fully rendered notification ready to hand to a provider.
type Message struct {
	From     string
	FromName string
	To       string
	ToName   string
	Subject  string
	HTMLBody string
	TextBody string
}

// Result describes what the provider said about a send attempt.
type Result struct {
	// Accepted is true when the provider took responsibility for the message.
	Accepted bool
	// StatusCode is the provider's status where one exists (HTTP-backed
	// providers), zero otherwise.
	StatusCode int
	MessageID  string
	Body       string
}

// Transport sends a rendered message through one delivery channel. Send must
// honor ctx cancellation; callers bound every attempt with a deadline.
type Transport interface {
	Send(ctx context.Context, msg Message) (Result, error)
	Name() string
}
