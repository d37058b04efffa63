// Package oracle gates the fulfillment endpoint. Only the trusted randomness
// source holds the shared token; everyone else is turned away before the
// handler runs.
package oracle

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"curio/pkg/requestcontext"
)

const HeaderOracleToken = "X-Oracle-Token"

func RequireOracleToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderOracleToken)
			// Constant-time comparison to prevent timing attacks.
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "oracle token mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"oracle token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
