// Package request provides request ID middleware. Every request gets a
// unique ID that downstream handlers, services, and audit records include in
// their output, so one registry operation can be traced across log lines.
package request

import (
	"net/http"

	"github.com/google/uuid"

	"curio/pkg/requestcontext"
)

const HeaderRequestID = "X-Request-Id"

// Middleware assigns the request a unique ID, honoring one supplied by the
// caller, and echoes it back in the response header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
