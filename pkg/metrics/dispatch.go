package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics counts notification deliveries per channel and outcome.
type DispatchMetrics struct {
	deliveries *prometheus.CounterVec
	events     *prometheus.CounterVec
}

// NewDispatchMetrics registers the notification dispatch metrics.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_deliveries_total",
		Help: "Notification deliveries by channel and outcome.",
	}, []string{"channel", "outcome"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_processed_total",
		Help: "Outbox events processed by the dispatcher by event type and outcome.",
	}, []string{"event_type", "outcome"})
	reg.MustRegister(deliveries, events)
	return &DispatchMetrics{deliveries: deliveries, events: events}
}

// ObserveDelivery records one channel delivery attempt.
func (d *DispatchMetrics) ObserveDelivery(channel string, err error) {
	if d == nil || d.deliveries == nil {
		return
	}
	d.deliveries.WithLabelValues(normalizeLabel(channel), outcome(err)).Inc()
}

// ObserveEvent records the outcome of one outbox event.
func (d *DispatchMetrics) ObserveEvent(eventType, result string) {
	if d == nil || d.events == nil {
		return
	}
	d.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
