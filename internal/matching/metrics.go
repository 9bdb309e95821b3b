package matching

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the engine's Prometheus instruments, grounded in the
// teacher's internal/metrics/websocket_metrics.go and
// internal/hft/metrics/baseline_metrics.go construction style: a plain
// struct of pre-built instruments registered once at startup, no global
// registry mutation from inside the hot path.
type Metrics struct {
	OrdersProcessed  prometheus.Counter
	TradesEmitted    prometheus.Counter
	Unmatched        prometheus.Counter
	MalformedDropped prometheus.Counter
	Cancels          prometheus.Counter
	BidDepth         prometheus.Gauge
	AskDepth         prometheus.Gauge
	SnapshotLatency  prometheus.Histogram
}

// NewMetrics constructs and registers the engine's instruments against
// reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchcore_orders_processed_total",
			Help: "Total number of valid ORDER envelopes processed by the engine.",
		}),
		TradesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchcore_trades_emitted_total",
			Help: "Total number of TRADE events emitted.",
		}),
		Unmatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchcore_unmatched_emitted_total",
			Help: "Total number of UNMATCHED_ORDER events emitted.",
		}),
		MalformedDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchcore_malformed_envelopes_total",
			Help: "Total number of inbound envelopes dropped for failing validation.",
		}),
		Cancels: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchcore_cancels_total",
			Help: "Total number of CANCEL envelopes applied.",
		}),
		BidDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matchcore_bid_price_levels",
			Help: "Current number of distinct bid price levels.",
		}),
		AskDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matchcore_ask_price_levels",
			Help: "Current number of distinct ask price levels.",
		}),
		SnapshotLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "matchcore_snapshot_publish_seconds",
			Help:    "Time spent formatting and publishing a snapshot.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.OrdersProcessed, m.TradesEmitted, m.Unmatched, m.MalformedDropped,
		m.Cancels, m.BidDepth, m.AskDepth, m.SnapshotLatency,
	)
	return m
}
