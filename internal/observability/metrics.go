// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Simulation metrics
	SimulationRunsTotal *prometheus.CounterVec
	SimulationDuration  prometheus.Histogram
	TradesSimulated     prometheus.Counter
	SignalsSkipped      *prometheus.CounterVec
	BarsProcessed       prometheus.Counter

	// Scan metrics
	SetupsDetected  *prometheus.CounterVec
	SignalsRejected *prometheus.CounterVec

	// Reporting metrics
	ReportsGenerated prometheus.Counter

	// Broker metrics
	OrdersPlaced     *prometheus.CounterVec
	OrderErrors      *prometheus.CounterVec
	QuotesReceived   prometheus.Counter
	StreamReconnects prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "swing_trade_lab"
	}

	return &Metrics{
		// Simulation metrics
		SimulationRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of simulation runs by status",
		}, []string{"status"}),
		SimulationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "duration_seconds",
			Help:      "Simulation run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		TradesSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trades_simulated_total",
			Help:      "Total number of trades simulated",
		}),
		SignalsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "signals_skipped_total",
			Help:      "Total number of entry signals skipped by reason",
		}, []string{"reason"}),
		BarsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "bars_processed_total",
			Help:      "Total number of bars walked during simulations",
		}),

		// Scan metrics
		SetupsDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "setups_detected_total",
			Help:      "Total number of setups detected by strategy",
		}, []string{"strategy"}),
		SignalsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "signals_rejected_total",
			Help:      "Total number of signals rejected by the risk manager",
		}, []string{"strategy"}),

		// Reporting metrics
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporting",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Broker metrics
		OrdersPlaced: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "orders_placed_total",
			Help:      "Total number of orders placed by side and type",
		}, []string{"side", "type"}),
		OrderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "order_errors_total",
			Help:      "Total number of order submission errors",
		}, []string{"side", "type"}),
		QuotesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "quotes_received_total",
			Help:      "Total number of quotes received from the stream",
		}),
		StreamReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "stream_reconnects_total",
			Help:      "Total number of quote stream reconnects",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful simulation run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSimulationRun records a finished simulation run.
func RecordSimulationRun(status string, durationSeconds float64, trades int) {
	DefaultMetrics.SimulationRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.SimulationDuration.Observe(durationSeconds)
	DefaultMetrics.TradesSimulated.Add(float64(trades))
}

// RecordSignalSkipped records an entry signal skipped during simulation.
func RecordSignalSkipped(reason string) {
	DefaultMetrics.SignalsSkipped.WithLabelValues(reason).Inc()
}

// RecordSetupDetected records a scan hit for a strategy.
func RecordSetupDetected(strategy string) {
	DefaultMetrics.SetupsDetected.WithLabelValues(strategy).Inc()
}

// RecordSignalRejected records a risk-manager rejection for a strategy.
func RecordSignalRejected(strategy string) {
	DefaultMetrics.SignalsRejected.WithLabelValues(strategy).Inc()
}

// RecordReportGenerated increments the reports generated counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// RecordOrderPlaced records an order submission.
func RecordOrderPlaced(side, orderType string, err error) {
	if err != nil {
		DefaultMetrics.OrderErrors.WithLabelValues(side, orderType).Inc()
		return
	}
	DefaultMetrics.OrdersPlaced.WithLabelValues(side, orderType).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
