package guardkit

import (
	"context"
)

// Context keys for GuardKit values.
type contextKey string

const (
	contextKeyAuthContext contextKey = "guardkit:auth_context"
	contextKeyRequestID   contextKey = "guardkit:request_id"
)

// WithAuthContext adds the request's AuthContext to the context. This
// is set by middleware and read by handlers and the management service.
func WithAuthContext(ctx context.Context, actx *AuthContext) context.Context {
	return context.WithValue(ctx, contextKeyAuthContext, actx)
}

// GetAuthContext retrieves the AuthContext from context. Returns nil
// if not set.
func GetAuthContext(ctx context.Context) *AuthContext {
	if v := ctx.Value(contextKeyAuthContext); v != nil {
		if a, ok := v.(*AuthContext); ok {
			return a
		}
	}
	return nil
}

// FromContext retrieves the AuthContext from context. Alias for
// GetAuthContext for convenience.
func FromContext(ctx context.Context) *AuthContext {
	return GetAuthContext(ctx)
}

// WithRequestID adds a request ID to the context (for audit
// correlation).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// GetRequestID retrieves the request ID from context. Returns empty
// string if not set.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(contextKeyRequestID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
