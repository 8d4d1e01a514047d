package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics counts deliveries and the labels the classifiers emit.
type WebhookMetrics struct {
	EventsTotal          *prometheus.CounterVec
	ClassificationsTotal *prometheus.CounterVec
	NotificationsTotal   *prometheus.CounterVec
}

func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	m := &WebhookMetrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "events_total",
			Help:      "Total number of webhook events, by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		ClassificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "labels_total",
			Help:      "Total number of labels emitted, by classifier and label.",
		}, []string{"classifier", "label"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "notifications_total",
			Help:      "Total number of outbound notifications, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.EventsTotal, m.ClassificationsTotal, m.NotificationsTotal)
	return m
}

func (m *WebhookMetrics) ObserveEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *WebhookMetrics) ObserveLabel(classifier, label string) {
	if m == nil {
		return
	}
	m.ClassificationsTotal.WithLabelValues(classifier, label).Inc()
}

func (m *WebhookMetrics) ObserveNotification(result string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(result).Inc()
}
