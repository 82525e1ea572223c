// Package monitoring exposes Prometheus metrics for the lobby server.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lobby_rooms_active",
		Help: "Number of rooms currently held in the registry",
	})

	SubscribersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lobby_subscribers_active",
		Help: "Number of live connections subscribed to room updates",
	})

	BroadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lobby_broadcasts_total",
		Help: "Total membership fan-outs performed",
	})

	DroppedSendsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lobby_dropped_sends_total",
		Help: "Total per-recipient sends skipped because the connection was not writable",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
