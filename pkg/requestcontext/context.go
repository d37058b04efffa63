// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// This package defines context keys and getter/setter functions for values
// that are typically set by middleware but consumed by services. By keeping
// this package free of net/http dependencies, services can import only what
// they need without pulling in HTTP-related code.
//
// Usage in services (read values):
//
//	caller := requestcontext.Caller(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithCaller(ctx, accountID)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//
// The request time is the only clock the domain consults: auction deadlines
// compare against Now(ctx), so tests advance time by injecting it and all
// reads within one request observe the same instant.
package requestcontext

import (
	"context"
	"time"

	id "curio/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	callerKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	operatorKey    struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyCaller      = callerKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyOperator    = operatorKey{}
)

// Caller retrieves the authenticated caller identity from the context.
// Returns the zero AccountID if not set.
func Caller(ctx context.Context) id.AccountID {
	if caller, ok := ctx.Value(ContextKeyCaller).(id.AccountID); ok {
		return caller
	}
	return id.Nobody
}

// WithCaller injects a caller identity into the context.
func WithCaller(ctx context.Context, caller id.AccountID) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, caller)
}

// IsOperator reports whether the caller presented valid operator credentials.
func IsOperator(ctx context.Context) bool {
	if op, ok := ctx.Value(ContextKeyOperator).(bool); ok {
		return op
	}
	return false
}

// WithOperator marks the context as carrying operator privileges.
func WithOperator(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextKeyOperator, true)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like workers).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Tests use it to advance
// the auction clock without sleeping.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
