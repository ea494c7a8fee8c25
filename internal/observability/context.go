package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	doiKey       contextKey = "doi"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithDOI adds the DOI being resolved to the context.
func WithDOI(ctx context.Context, doi string) context.Context {
	return context.WithValue(ctx, doiKey, doi)
}

// DOIFromContext retrieves the DOI from context.
// Returns empty string if not present.
func DOIFromContext(ctx context.Context) string {
	if v := ctx.Value(doiKey); v != nil {
		if doi, ok := v.(string); ok {
			return doi
		}
	}
	return ""
}
