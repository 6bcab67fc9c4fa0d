// Package observability holds the Prometheus collectors and OpenTelemetry
// setup shared by the server and the rule engine.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RuleRejections counts requests refused by an engine rule, by error key.
	RuleRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_rule_rejections_total",
		Help: "Total number of requests rejected by a rule, by error key",
	}, []string{"key"})

	// NotificationsDispatched counts persisted reply notifications by kind.
	NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_notifications_dispatched_total",
		Help: "Total number of reply notifications created, by kind",
	}, []string{"kind"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// MailDeliveries counts outgoing mail attempts by result.
	MailDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_mail_deliveries_total",
		Help: "Total number of outgoing emails by result",
	}, []string{"result"})

	// NotificationStreams tracks open notification WebSocket connections.
	NotificationStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hearth_notification_streams_active",
		Help: "Number of open notification stream connections",
	})
)

// RecordRejection increments the rejection counter for key.
func RecordRejection(key string) {
	if key == "" {
		key = "unkeyed"
	}
	RuleRejections.WithLabelValues(key).Inc()
}
