package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxPublisherMetrics records the publish pipeline's throughput and failures.
type OutboxPublisherMetrics struct {
	published     *prometheus.CounterVec
	publishFailed *prometheus.CounterVec
	deadLettered  *prometheus.CounterVec
	batchDuration prometheus.Histogram
}

// NewOutboxPublisherMetrics registers the publisher metrics on the provided registerer.
func NewOutboxPublisherMetrics(reg prometheus.Registerer) *OutboxPublisherMetrics {
	if reg == nil {
		return &OutboxPublisherMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events successfully published to Pub/Sub.",
	}, []string{"topic", "event_type"})
	publishFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Publish attempts that failed and will be retried.",
	}, []string{"topic", "event_type"})
	deadLettered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_dead_lettered_total",
		Help: "Outbox events moved to the DLQ.",
	}, []string{"reason"})
	batchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbox_batch_duration_seconds",
		Help:    "Duration of one outbox publish batch.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(published, publishFailed, deadLettered, batchDuration)
	return &OutboxPublisherMetrics{
		published:     published,
		publishFailed: publishFailed,
		deadLettered:  deadLettered,
		batchDuration: batchDuration,
	}
}

// IncPublished increments the publish counter for the topic/event pair.
func (m *OutboxPublisherMetrics) IncPublished(topic, eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(topic), normalizeLabel(eventType)).Inc()
}

// IncPublishFailed increments the retryable failure counter.
func (m *OutboxPublisherMetrics) IncPublishFailed(topic, eventType string) {
	if m == nil || m.publishFailed == nil {
		return
	}
	m.publishFailed.WithLabelValues(normalizeLabel(topic), normalizeLabel(eventType)).Inc()
}

// IncDeadLettered increments the DLQ counter for the given reason.
func (m *OutboxPublisherMetrics) IncDeadLettered(reason string) {
	if m == nil || m.deadLettered == nil {
		return
	}
	m.deadLettered.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveBatchDuration records how long one publish batch took.
func (m *OutboxPublisherMetrics) ObserveBatchDuration(duration time.Duration) {
	if m == nil || m.batchDuration == nil {
		return
	}
	m.batchDuration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
