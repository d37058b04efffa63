package testutil

import (
	"context"
	"net/http"
	"time"

	id "curio/pkg/domain"
	"curio/pkg/requestcontext"
)

// WithCaller adds a caller account to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// Invalid account IDs are silently ignored.
func WithCaller(req *http.Request, account string) *http.Request {
	if parsed, err := id.ParseAccountID(account); err == nil {
		return req.WithContext(requestcontext.WithCaller(req.Context(), parsed))
	}
	return req
}

// WithOperator marks the request as carrying operator privileges, the way
// the operator token gate would.
func WithOperator(req *http.Request) *http.Request {
	return req.WithContext(requestcontext.WithOperator(req.Context()))
}

// WithTime pins the request-scoped clock, the way the request time
// middleware would, so handlers observe a deterministic now.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), key, value))
}
