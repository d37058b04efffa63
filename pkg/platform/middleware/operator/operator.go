// Package operator gates the registry's administrative endpoints. The
// operator presents a shared token that is verified against a bcrypt hash,
// so the plaintext never lives in configuration at rest.
package operator

import (
	"log/slog"
	"net/http"

	"curio/pkg/platform/secrets"
	"curio/pkg/requestcontext"
)

const HeaderOperatorToken = "X-Operator-Token"

func RequireOperator(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderOperatorToken)
			if token == "" || secrets.Verify(token, tokenHash) != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "operator token mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"operator token required"}`))
				return
			}

			ctx := requestcontext.WithOperator(r.Context())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
