package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/gateway/pkg/config"
)

// StreamMetrics tracks relayed streams.
type StreamMetrics struct {
	active  prometheus.Gauge
	streams *prometheus.CounterVec
	chunks  prometheus.Counter
}

// NewStreamMetrics creates and registers stream metrics with the provided registry.
func NewStreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *StreamMetrics {
	sm := &StreamMetrics{
		active: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "relay",
				Name:      "active_streams",
				Help:      "Streams currently being relayed",
			},
		),
		streams: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "relay",
				Name:      "streams_total",
				Help:      "Finished streams by result",
			},
			[]string{"result"},
		),
		chunks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "relay",
				Name:      "chunks_total",
				Help:      "Chunks delivered to clients",
			},
		),
	}

	registry.MustRegister(sm.active, sm.streams, sm.chunks)
	return sm
}

// RecordStream records one finished stream.
func (sm *StreamMetrics) RecordStream(result string, chunks int) {
	sm.streams.WithLabelValues(result).Inc()
	if chunks > 0 {
		sm.chunks.Add(float64(chunks))
	}
}
