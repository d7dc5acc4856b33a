package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	SessionEvents     *prometheus.CounterVec
	ChatTurns         *prometheus.CounterVec
	CompactionRuns    *prometheus.CounterVec
	OrdersPlaced      prometheus.Counter
	GenerationLatency prometheus.Histogram
	WSMessages        *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		ChatTurns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Completed chat turns by outcome.",
		}, []string{"outcome"}),
		CompactionRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_compaction_runs_total",
			Help:      "Memory compaction attempts by result.",
		}, []string{"result"}),
		OrdersPlaced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Confirmed orders persisted.",
		}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "Websocket messages by direction and type.",
		}, []string{"direction", "type"}),
		GenerationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_latency_ms",
			Help:      "Latency of the generation backend call in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		}),
	}
}

func (m *Metrics) ObserveGenerationLatency(d time.Duration) {
	m.GenerationLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
