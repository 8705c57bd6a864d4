package util

import (
	"context"

	"github.com/oklog/ulid/v2"
)

type key string

const (
	requestIDKey = key("x-request-id")
)

// WithRequestID returns a context with request id
func WithRequestID(ctx context.Context, id string) context.Context {
	return ContextWithRequestID(ctx, id)
}

// GetRequestID returns request id from context
// will return empty string if not present
func GetRequestID(ctx context.Context) string {
	return FromContext(ctx)
}

// NewRunID generates a lexicographically sortable run-correlation id.
// backtestsim passes it to the strategy as the run id; it is not attached to
// log lines.
func NewRunID() string {
	return ulid.Make().String()
}
