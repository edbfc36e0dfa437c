package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mentorbook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorbook_booking_transitions_total",
			Help: "Total number of booking lifecycle transitions",
		},
		[]string{"transition", "result"},
	)

	BookingCompensationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mentorbook_booking_compensations_total",
			Help: "Total number of holds released after an aborted booking",
		},
	)

	LedgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorbook_ledger_operations_total",
			Help: "Total number of ledger operations",
		},
		[]string{"operation", "result"},
	)

	LedgerAmountTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorbook_ledger_amount_total",
			Help: "Total currency units moved by ledger operation",
		},
		[]string{"operation"},
	)

	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorbook_search_requests_total",
			Help: "Total number of searches by cache outcome",
		},
		[]string{"cache"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorbook_notifications_total",
			Help: "Total number of notifications processed",
		},
		[]string{"type", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mentorbook_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)

	RemindersSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mentorbook_reminders_sent_total",
			Help: "Total number of session reminders enqueued",
		},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorbook_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"path"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordTransition(transition string, err error) {
	BookingTransitionsTotal.WithLabelValues(transition, result(err)).Inc()
}

func RecordCompensation() {
	BookingCompensationsTotal.Inc()
}

// RecordLedger counts a ledger operation. amount is only added on success.
func RecordLedger(operation string, amount float64, err error) {
	LedgerOperationsTotal.WithLabelValues(operation, result(err)).Inc()
	if err == nil && amount > 0 {
		LedgerAmountTotal.WithLabelValues(operation).Add(amount)
	}
}

func RecordSearch(cache string) {
	SearchRequestsTotal.WithLabelValues(cache).Inc()
}

func RecordNotification(notificationType, status string) {
	NotificationsTotal.WithLabelValues(notificationType, status).Inc()
}

func SetNotificationQueueLength(n int64) {
	NotificationQueueLength.Set(float64(n))
}

func RecordReminder() {
	RemindersSentTotal.Inc()
}

func RecordRateLimited(path string) {
	RateLimitedTotal.WithLabelValues(path).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
