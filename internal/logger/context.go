package logger

import "context"

type requestIDKey struct{}

// WithRequestID stores the request's correlation ID in the context. The HTTP
// middleware sets it; the NATS publisher reads it back so booking events
// carry the ID of the request that caused them.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation ID stored in ctx, or "" when the context
// did not pass through the request middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
