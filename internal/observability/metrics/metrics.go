package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	webhookEvents      *prometheus.CounterVec
	paymentsReconciled *prometheus.CounterVec
	notificationsSent  *prometheus.CounterVec
	gatewayErrors      *prometheus.CounterVec
}

// New registers the domain instruments on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_webhook_events_total",
			Help: "Webhook deliveries by reconciliation outcome.",
		}, []string{"outcome"}),
		paymentsReconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_payments_reconciled_total",
			Help: "Payment records transitioned, by resulting status.",
		}, []string{"status"}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_notifications_sent_total",
			Help: "Notifications persisted, by type.",
		}, []string{"type"}),
		gatewayErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_gateway_errors_total",
			Help: "Payment gateway call failures, by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.webhookEvents, m.paymentsReconciled, m.notificationsSent, m.gatewayErrors)
	return m
}

func (m *Metrics) RecordWebhookOutcome(outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordPaymentReconciled(status string) {
	if m == nil {
		return
	}
	m.paymentsReconciled.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordNotificationSent(kind string) {
	if m == nil {
		return
	}
	m.notificationsSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordGatewayError(kind string) {
	if m == nil {
		return
	}
	m.gatewayErrors.WithLabelValues(kind).Inc()
}
