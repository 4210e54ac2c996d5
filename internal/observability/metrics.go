package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	enrollmentOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campus_enrollment",
		Subsystem: "coordinator",
		Name:      "enroll_outcomes_total",
		Help:      "Enroll attempts labeled by outcome (success or error kind).",
	}, []string{"outcome"})

	cancellationOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campus_enrollment",
		Subsystem: "coordinator",
		Name:      "cancel_outcomes_total",
		Help:      "Cancel attempts labeled by outcome (success or error kind).",
	}, []string{"outcome"})

	notificationsDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "campus_enrollment",
		Subsystem: "notifications",
		Name:      "delivered_total",
		Help:      "Confirmation notifications handed to the sender successfully.",
	})

	notificationsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campus_enrollment",
		Subsystem: "notifications",
		Name:      "dropped_total",
		Help:      "Confirmation notifications abandoned, labeled by reason.",
	}, []string{"reason"})

	notificationRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "campus_enrollment",
		Subsystem: "notifications",
		Name:      "retries_total",
		Help:      "Confirmation send attempts that failed and were retried.",
	})

	rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "campus_enrollment",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the per-client rate limiter.",
	})
)

func init() {
	prometheus.MustRegister(
		enrollmentOutcomes,
		cancellationOutcomes,
		notificationsDelivered,
		notificationsDropped,
		notificationRetries,
		rateLimited,
	)
}

// RecordEnroll counts one enroll attempt.
func RecordEnroll(outcome string) {
	enrollmentOutcomes.WithLabelValues(outcome).Inc()
}

// RecordCancel counts one cancel attempt.
func RecordCancel(outcome string) {
	cancellationOutcomes.WithLabelValues(outcome).Inc()
}

func RecordNotificationDelivered() {
	notificationsDelivered.Inc()
}

func RecordNotificationDropped(reason string) {
	notificationsDropped.WithLabelValues(reason).Inc()
}

func RecordNotificationRetry() {
	notificationRetries.Inc()
}

func RecordRateLimited() {
	rateLimited.Inc()
}
