package types

import "context"

// Context Keys
type contextKey string

const (
	requestIDKey  contextKey = "request_id"
	clientAddrKey contextKey = "client_addr"
)

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithClientAddr stores the caller's network address in the context.
func WithClientAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, clientAddrKey, addr)
}

// GetClientAddr retrieves the caller's network address from the context.
// Returns an empty string when none was recorded.
func GetClientAddr(ctx context.Context) string {
	addr, _ := ctx.Value(clientAddrKey).(string)
	return addr
}
