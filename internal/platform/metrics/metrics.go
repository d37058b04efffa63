package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the registry.
type Metrics struct {
	MintRequestsTotal   prometheus.Counter
	AssetsMintedTotal   prometheus.Counter
	SalesTotal          prometheus.Counter
	BidsTotal           prometheus.Counter
	AuctionsStarted     prometheus.Counter
	AuctionsFinalized   prometheus.Counter
	RefundsWithdrawn    prometheus.Counter
	FailuresTotal       *prometheus.CounterVec
	OperationDurationMs *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		MintRequestsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "curio_mint_requests_total",
			Help: "Total number of accepted creation requests",
		}),
		AssetsMintedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "curio_assets_minted_total",
			Help: "Total number of assets minted",
		}),
		SalesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "curio_sales_total",
			Help: "Total number of completed fixed-price sales",
		}),
		BidsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "curio_bids_total",
			Help: "Total number of accepted auction bids",
		}),
		AuctionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "curio_auctions_started_total",
			Help: "Total number of auctions opened",
		}),
		AuctionsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "curio_auctions_finalized_total",
			Help: "Total number of auctions settled",
		}),
		RefundsWithdrawn: promauto.NewCounter(prometheus.CounterOpts{
			Name: "curio_refunds_withdrawn_total",
			Help: "Total number of refund withdrawals paid out",
		}),
		FailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "curio_operation_failures_total",
			Help: "Rejected operations by failure code",
		}, []string{"code"}),
		OperationDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "curio_operation_duration_ms",
			Help:    "Latency of registry operations in milliseconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		}, []string{"operation"}),
	}
}

func (m *Metrics) ObserveOperation(operation string, ms float64) {
	m.OperationDurationMs.WithLabelValues(operation).Observe(ms)
}

func (m *Metrics) IncrementFailure(code string) {
	m.FailuresTotal.WithLabelValues(code).Inc()
}
