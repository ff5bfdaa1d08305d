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
	ConversationTurns *prometheus.CounterVec
	ProviderErrors    *prometheus.CounterVec
	SynthesisLatency  prometheus.Histogram
	WSConnections     prometheus.Gauge
	PendingAudioBlobs prometheus.Gauge
	AudioBlobsSwept   prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ConversationTurns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversation_turns_total",
			Help:      "Completed conversation turns by input kind and action.",
		}, []string{"input", "action"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Provider errors by provider and operation.",
		}, []string{"provider", "operation"}),
		SynthesisLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_latency_ms",
			Help:      "Latency of speech synthesis round-trips in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000},
		}),
		WSConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Number of open WebSocket connections.",
		}),
		PendingAudioBlobs: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_audio_blobs",
			Help:      "Synthesized audio blobs awaiting retrieval.",
		}),
		AudioBlobsSwept: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_blobs_swept_total",
			Help:      "Audio blobs removed by the TTL janitor without retrieval.",
		}),
	}
}

func (m *Metrics) ObserveSynthesisLatency(d time.Duration) {
	m.SynthesisLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
