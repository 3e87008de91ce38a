// Package metrics holds the Prometheus collectors of the career hub.
// Collectors register on the default registry; /metrics serves them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CommandOutcomes counts application commands by name and outcome
	// (ok, not_found, conflict, forbidden, validation, error).
	CommandOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "career_command_total",
			Help: "Total number of application commands by outcome",
		},
		[]string{"command", "outcome"},
	)

	// PhaseTransitions counts phase changes by guard decision.
	PhaseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "career_phase_transition_total",
			Help: "Phase transitions by guard decision",
		},
		[]string{"decision"},
	)

	// RemindersSent counts deadline reminders handed to a channel.
	RemindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "career_deadline_reminders_total",
			Help: "Deadline reminders by days left and delivery status",
		},
		[]string{"days_left", "status"},
	)

	// NotificationDeliveries counts deliveries per channel and status.
	NotificationDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "career_notification_deliveries_total",
			Help: "Notification deliveries by channel and status",
		},
		[]string{"channel", "type", "status"},
	)

	// JobDuration tracks scheduler job runs.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "career_job_duration_seconds",
			Help:    "Scheduled job duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"job", "status"},
	)

	// DBQueryDuration tracks repository query latency.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "career_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	// HTTPRequestDuration tracks HTTP handler latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "career_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)

	// EventsPublished counts domain events handed to the bus.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "career_events_published_total",
			Help: "Domain events published by type",
		},
		[]string{"event_type"},
	)

	// EventHandlerRuns counts event handler executions by outcome.
	EventHandlerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "career_event_handler_runs_total",
			Help: "Event handler executions by event type and status",
		},
		[]string{"event_type", "status"},
	)

	// CacheLookups counts read-through cache hits and misses.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "career_cache_lookups_total",
			Help: "Cache lookups by cache name and result",
		},
		[]string{"cache", "result"},
	)
)

// RecordCommand records one command outcome.
func RecordCommand(command, outcome string) {
	CommandOutcomes.WithLabelValues(command, outcome).Inc()
}

// RecordPhaseTransition records a guard decision.
func RecordPhaseTransition(decision string) {
	PhaseTransitions.WithLabelValues(decision).Inc()
}

// RecordReminder records one reminder delivery attempt.
func RecordReminder(daysLeft, status string) {
	RemindersSent.WithLabelValues(daysLeft, status).Inc()
}

// RecordDelivery records one notification delivery attempt.
func RecordDelivery(channel, notificationType, status string) {
	NotificationDeliveries.WithLabelValues(channel, notificationType, status).Inc()
}

// RecordJob records one scheduler job run.
func RecordJob(job, status string, duration time.Duration) {
	JobDuration.WithLabelValues(job, status).Observe(duration.Seconds())
}

// RecordDBQueryDuration records repository query latency.
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordHTTPRequestDuration records HTTP handler latency.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordEventPublished records one published event.
func RecordEventPublished(eventType string) {
	EventsPublished.WithLabelValues(eventType).Inc()
}

// RecordEventHandled records one handler execution.
func RecordEventHandled(eventType string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	EventHandlerRuns.WithLabelValues(eventType, status).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
