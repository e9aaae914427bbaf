package app

import (
	"time"

	"realtime_chat_service/internal/chat/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PipelineMetrics counters of the message pipeline
type PipelineMetrics struct {
	errors      *prometheus.CounterVec
	messages    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	connections prometheus.Gauge
}

// NewPipelineMetrics register on reg
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	f := promauto.With(reg)
	return &PipelineMetrics{
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_messages_errors_total",
				Help: "Abandoned message sends by reason",
			},
			[]string{"error_type"},
		),
		messages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_messages_total",
				Help: "Processed message sends",
			},
			[]string{"status", "message_type"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chat_messages_processing_seconds",
				Help:    "Time spent in the message pipeline, by success or abandon reason",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		connections: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "chat_websocket_connections_active",
				Help: "Current number of active websocket connections",
			},
		),
	}
}

// message_type is a validated type or "none"
func (m *PipelineMetrics) abandoned(reason domain.AbandonReason, msgType string, start time.Time) {
	m.errors.WithLabelValues(string(reason)).Inc()
	m.messages.WithLabelValues("error", msgType).Inc()
	m.duration.WithLabelValues(string(reason)).Observe(time.Since(start).Seconds())
}

func (m *PipelineMetrics) sent(msgType string, start time.Time) {
	m.messages.WithLabelValues("success", msgType).Inc()
	m.duration.WithLabelValues("success").Observe(time.Since(start).Seconds())
}

func (m *PipelineMetrics) ignored(msgType string) {
	m.messages.WithLabelValues("ignored", msgType).Inc()
}

// ConnectionOpened websocket gauge
func (m *PipelineMetrics) ConnectionOpened() { m.connections.Inc() }

// ConnectionClosed websocket gauge
func (m *PipelineMetrics) ConnectionClosed() { m.connections.Dec() }
