package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction metrics
	TransactionsCreated *prometheus.CounterVec
	TransactionsSettled *prometheus.CounterVec
	TransactionAmount   prometheus.Histogram
	SettlementDuration  prometheus.Histogram
	SettlementConflicts prometheus.Counter
	TransactionErrors   *prometheus.CounterVec

	// Account metrics
	AccountsRegistered prometheus.Counter
	AccountsFrozen     prometheus.Counter
	BalanceCorrections prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBConnections prometheus.Gauge

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished *prometheus.CounterVec
	OutboxFailures  prometheus.Counter
	OutboxPurged    prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics and registers them on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TransactionsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_transactions_created_total",
				Help: "Total number of transactions created",
			},
			[]string{"direction", "status"},
		),
		TransactionsSettled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_transactions_settled_total",
				Help: "Total number of pending transactions approved or declined",
			},
			[]string{"status"},
		),
		TransactionAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gobank_transaction_amount",
			Help:    "Transaction amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 50000, 100000, 1000000},
		}),
		SettlementDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gobank_settlement_duration_seconds",
			Help:    "Duration of create and settle operations including retries",
			Buckets: prometheus.DefBuckets,
		}),
		SettlementConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobank_settlement_conflicts_total",
			Help: "Optimistic concurrency conflicts hit while settling",
		}),
		TransactionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_transaction_errors_total",
				Help: "Total number of transaction errors by type",
			},
			[]string{"error_type"},
		),

		AccountsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobank_accounts_registered_total",
			Help: "Total number of accounts opened",
		}),
		AccountsFrozen: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobank_accounts_frozen_total",
			Help: "Total number of freeze operations",
		}),
		BalanceCorrections: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobank_balance_corrections_total",
			Help: "Total number of administrative balance corrections",
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gobank_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		DBConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gobank_db_connections",
			Help: "Current number of acquired database connections",
		}),

		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_auth_attempts_total",
				Help: "Total authentication attempts",
			},
			[]string{"status"},
		),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),

		OutboxPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_outbox_published_total",
				Help: "Total outbox events published",
			},
			[]string{"event_type"},
		),
		OutboxFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobank_outbox_failures_total",
			Help: "Total outbox publish failures",
		}),
		OutboxPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobank_outbox_purged_total",
			Help: "Total published outbox events deleted by cleanup",
		}),
	}
}
