package marketdata

import "github.com/prometheus/client_golang/prometheus"

// Metrics collects fanout-side counters, following the naming convention
// of the teacher's internal/metrics/websocket_metrics.go.
type Metrics struct {
	ConnectedClients  prometheus.Gauge
	DroppedBroadcasts prometheus.Counter
	SnapshotsReceived prometheus.Counter
	StatusRequests    prometheus.Counter
	RateLimited       prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matchcore_fanout_connected_clients",
			Help: "Number of connected WebSocket subscribers.",
		}),
		DroppedBroadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchcore_fanout_dropped_broadcasts_total",
			Help: "Number of snapshot broadcasts dropped for a slow subscriber.",
		}),
		SnapshotsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchcore_fanout_snapshots_received_total",
			Help: "Number of snapshots received from the engine's PUB socket.",
		}),
		StatusRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchcore_fanout_status_requests_total",
			Help: "Number of HTTP /status requests served.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchcore_fanout_rate_limited_total",
			Help: "Number of HTTP requests rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(m.ConnectedClients, m.DroppedBroadcasts, m.SnapshotsReceived, m.StatusRequests, m.RateLimited)
	return m
}
