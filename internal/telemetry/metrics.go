package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reply outcomes.
const (
	OutcomeSucceeded           = "succeeded"
	OutcomeProviderUnavailable = "provider_unavailable"
	OutcomeGenerationFailed    = "generation_failed"
)

// Classification outcomes.
const (
	ClassificationParsed  = "parsed"
	ClassificationDefault = "default"
)

// Metrics holds all Prometheus metrics for the orchestrator.
type Metrics struct {
	ReplyTotal          *prometheus.CounterVec
	ReplyDurationMs     *prometheus.HistogramVec
	ClassificationTotal *prometheus.CounterVec
	MessagesTotal       *prometheus.CounterVec
	HTTPRequestTotal    *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReplyTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_reply_total",
			Help: "Total number of reply generations by outcome.",
		}, []string{"provider", "model", "outcome"}),

		ReplyDurationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orchestrator_reply_duration_ms",
			Help:    "Reply generation duration in milliseconds, including provider latency.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"provider"}),

		ClassificationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_classification_total",
			Help: "Total routing classifications by intent and whether the default was used.",
		}, []string{"intent", "outcome"}),

		MessagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_messages_total",
			Help: "Total conversation messages persisted by role.",
		}, []string{"role"}),

		HTTPRequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_http_request_total",
			Help: "Total HTTP requests by route and status code.",
		}, []string{"route", "status"}),
	}
}

// ReplyLabels holds the label values for recording a reply generation.
type ReplyLabels struct {
	Provider   string
	Model      string
	Outcome    string
	DurationMs float64
}

// RecordReply records metrics for a completed reply generation.
func (m *Metrics) RecordReply(labels ReplyLabels) {
	m.ReplyTotal.WithLabelValues(labels.Provider, labels.Model, labels.Outcome).Inc()
	m.ReplyDurationMs.WithLabelValues(labels.Provider).Observe(labels.DurationMs)
}

func (m *Metrics) RecordClassification(intent, outcome string) {
	m.ClassificationTotal.WithLabelValues(intent, outcome).Inc()
}

func (m *Metrics) RecordMessage(role string) {
	m.MessagesTotal.WithLabelValues(role).Inc()
}

func (m *Metrics) RecordHTTPRequest(route, status string) {
	m.HTTPRequestTotal.WithLabelValues(route, status).Inc()
}
