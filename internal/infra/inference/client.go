// Package inference talks to the external model backend.
package inference

import (
	"context"
	"encoding/json"
)

// Client performs a single prediction call against the backend.
// Implementations must be safe for concurrent use.
type Client interface {
	Call(ctx context.Context, sequence string) (json.RawMessage, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, sequence string) (json.RawMessage, error)

// Call implements Client.
func (f ClientFunc) Call(ctx context.Context, sequence string) (json.RawMessage, error) {
	return f(ctx, sequence)
}
