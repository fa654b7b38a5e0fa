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
	CompletionRequests *prometheus.CounterVec
	CompletionLatency  prometheus.Histogram
	ShortCircuits      *prometheus.CounterVec
	StoreErrors        *prometheus.CounterVec
	MessagesSent       *prometheus.CounterVec
	OTPEvents          *prometheus.CounterVec
	WSMessages         *prometheus.CounterVec
	ActiveWSChats      prometheus.Gauge

	stageWindow *stageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		CompletionRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_requests_total",
			Help:      "Completion calls by outcome.",
		}, []string{"outcome"}),
		CompletionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_latency_ms",
			Help:      "Latency of the upstream completion call in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		}),
		ShortCircuits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "short_circuit_replies_total",
			Help:      "Replies answered without the completion gateway, by kind.",
		}, []string{"kind"}),
		StoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Swallowed storage errors by operation.",
		}, []string{"op"}),
		MessagesSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Outbound messages by channel and status.",
		}, []string{"channel", "status"}),
		OTPEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_events_total",
			Help:      "OTP lifecycle events by type.",
		}, []string{"event"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket chat messages by direction and type.",
		}, []string{"direction", "type"}),
		ActiveWSChats: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_ws_chats",
			Help:      "Number of open websocket chat connections.",
		}),
		stageWindow: newStageWindow(256),
	}
}

// ObserveStage records one pipeline stage duration in the rolling
// latency window exposed via /v1/perf/latency.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageWindow.Observe(stage, float64(d.Milliseconds()))
}

// ObserveCompletion records the upstream call latency and outcome.
func (m *Metrics) ObserveCompletion(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.CompletionRequests.WithLabelValues(outcome).Inc()
	m.CompletionLatency.Observe(float64(d.Milliseconds()))
	m.stageWindow.Observe("complete", float64(d.Milliseconds()))
}

// SnapshotStages returns the current rolling-window latency stats.
func (m *Metrics) SnapshotStages() StageSnapshot {
	if m == nil {
		return StageSnapshot{}
	}
	return m.stageWindow.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
