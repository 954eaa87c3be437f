package middleware

import (
	"context"
	"net/http"
	"strings"
)

type requestIDKey struct{}

// RequestIDFromContext returns the id stored by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// JSON routes answer with the error envelope instead of a page or redirect.
func isJSONRoute(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
