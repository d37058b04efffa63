package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"curio/internal/platform/metrics"
	"curio/pkg/platform/middleware/auth"
	"curio/pkg/platform/middleware/metadata"
	operatormw "curio/pkg/platform/middleware/operator"
	oraclemw "curio/pkg/platform/middleware/oracle"
	"curio/pkg/platform/middleware/request"
	"curio/pkg/platform/middleware/requesttime"
	"curio/pkg/requestcontext"
)

// Pinger reports backend health for the readiness endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig carries the transport-level dependencies the router wires in
// front of the handlers.
type RouterConfig struct {
	Validator    auth.TokenValidator
	OperatorHash string
	OracleToken  string
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	HealthCheck  Pinger
}

// NewRouter wires all endpoints behind the middleware chain. Mutating
// endpoints require a bearer token; fulfillment and admin sit behind their
// dedicated gates.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(chimiddleware.Recoverer)
	r.Use(logRequests(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(observeLatency(cfg.Metrics))
	}

	r.Get("/healthz", h.handleHealth(cfg.HealthCheck))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public reads.
	r.Get("/assets/{id}", h.handleGetAsset)
	r.Get("/assets/{id}/auction", h.handleGetAuction)
	r.Get("/stats", h.handleStats)

	// Authenticated caller operations.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(cfg.Validator, cfg.Logger))

		r.Post("/mint/requests", h.handleMintRequest)
		r.Post("/assets/{id}/transfer", h.handleTransfer)
		r.Post("/assets/{id}/listing", h.handleList)
		r.Delete("/assets/{id}/listing", h.handleDelist)
		r.Post("/assets/{id}/buy", h.handleBuy)
		r.Post("/assets/{id}/auction", h.handleStartAuction)
		r.Post("/assets/{id}/auction/bids", h.handleBid)
		r.Post("/assets/{id}/auction/finalize", h.handleFinalize)
		r.Post("/assets/{id}/auction/refund", h.handleWithdrawRefund)
		r.Get("/treasury/balance", h.handleTreasuryBalance)
	})

	// The trusted randomness source.
	r.Group(func(r chi.Router) {
		r.Use(oraclemw.RequireOracleToken(cfg.OracleToken, cfg.Logger))
		r.Post("/mint/fulfill", h.handleMintFulfill)
	})

	// Operator controls.
	r.Group(func(r chi.Router) {
		r.Use(operatormw.RequireOperator(cfg.OperatorHash, cfg.Logger))
		r.Put("/admin/minting-cost", h.handleSetMintingCost)
		r.Put("/admin/max-supply", h.handleSetMaxSupply)
	})

	return r
}

func (h *Handler) handleHealth(check Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check.Ping(r.Context()); err != nil {
				h.logger.ErrorContext(r.Context(), "health check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func logRequests(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "request handled",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"request_id", requestcontext.RequestID(r.Context()),
				"client_ip", metadata.GetClientIP(r.Context()),
			)
		})
	}
}

func observeLatency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			routePattern := chi.RouteContext(r.Context()).RoutePattern()
			if routePattern == "" {
				routePattern = "unmatched"
			}
			m.ObserveOperation(r.Method+" "+routePattern,
				float64(time.Since(start).Microseconds())/1000.0)
		})
	}
}
