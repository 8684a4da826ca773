package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsOpen tracks live websocket connections.
	ConnectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "peercall_connections_open",
		Help: "Live websocket connections.",
	})

	// RoomsActive tracks rooms with at least one member.
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "peercall_rooms_active",
		Help: "Rooms with at least one member.",
	})

	// EventsTotal counts dispatched inbound events by type.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peercall_events_total",
		Help: "Inbound connection events by type.",
	}, []string{"event"})

	// SessionSeconds observes time between a connection's join and its
	// disconnect.
	SessionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "peercall_session_seconds",
		Help:    "Seconds between join and disconnect.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
