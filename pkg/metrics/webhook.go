package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics counts gateway webhook deliveries by outcome.
type WebhookMetrics struct {
	received *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook counters on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_webhooks_received_total",
		Help: "Gateway webhook deliveries accepted for processing.",
	}, []string{"gateway", "outcome"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_webhooks_rejected_total",
		Help: "Gateway webhook deliveries rejected before processing.",
	}, []string{"gateway", "reason"})
	reg.MustRegister(received, rejected)
	return &WebhookMetrics{received: received, rejected: rejected}
}

// IncReceived counts a verified delivery by its reported outcome.
func (m *WebhookMetrics) IncReceived(gateway, outcome string) {
	if m == nil || m.received == nil {
		return
	}
	m.received.WithLabelValues(normalizeLabel(gateway), normalizeLabel(outcome)).Inc()
}

// IncRejected counts a delivery turned away (bad signature, unknown reference).
func (m *WebhookMetrics) IncRejected(gateway, reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(gateway), normalizeLabel(reason)).Inc()
}
