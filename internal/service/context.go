package service

import "context"

type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID stores the inbound request id so events can carry it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
