// Package telemetry exposes prometheus metrics for the chat pipeline.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Chat outcomes recorded per processed request.
const (
	OutcomeAnswered  = "answered"
	OutcomeEmergency = "emergency"
	OutcomeFallback  = "fallback"
	OutcomeRejected  = "rejected"
)

type Telemetry struct {
	registry *prometheus.Registry

	chatRequests *prometheus.CounterVec
	chatDuration prometheus.Histogram
	confidence   prometheus.Histogram
}

func New() *Telemetry {
	reg := prometheus.NewRegistry()
	t := &Telemetry{
		registry: reg,
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medibot_chat_requests_total",
			Help: "Chat requests processed, by outcome.",
		}, []string{"outcome"}),
		chatDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "medibot_chat_duration_seconds",
			Help:    "End-to-end chat processing time.",
			Buckets: prometheus.DefBuckets,
		}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "medibot_chat_confidence",
			Help:    "Confidence score of returned responses.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}
	reg.MustRegister(t.chatRequests, t.chatDuration, t.confidence)
	return t
}

// RecordChat notes one processed request. Safe on a nil receiver so callers
// can run without metrics wired.
func (t *Telemetry) RecordChat(outcome string, confidence float64, elapsed time.Duration) {
	if t == nil {
		return
	}
	t.chatRequests.WithLabelValues(outcome).Inc()
	t.chatDuration.Observe(elapsed.Seconds())
	if outcome != OutcomeRejected {
		t.confidence.Observe(confidence)
	}
}

// Handler serves the /metrics endpoint for this registry.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}
