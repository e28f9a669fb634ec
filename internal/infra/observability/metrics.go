package observability

import (
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the back-office BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	pipelineRows    *prometheus.CounterVec
	rowIssues       *prometheus.CounterVec
	messages        *prometheus.CounterVec
	reminders       *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	inboxClients    prometheus.Gauge
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backoffice_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_requests_total",
				Help: "Total service operations processed.",
			},
			[]string{"status"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		pipelineRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_list_rows_total",
				Help: "Rows flowing through the list pipeline, by view and stage.",
			},
			[]string{"view", "stage"},
		),
		rowIssues: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_row_issues_total",
				Help: "Rows that could not be fully enriched.",
			},
			[]string{"view"},
		),
		messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_messages_total",
				Help: "Outbound WhatsApp messages by result.",
			},
			[]string{"result"},
		),
		reminders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_reminders_total",
				Help: "Billing reminders by stage.",
			},
			[]string{"stage"},
		),
		webhookEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_webhook_events_total",
				Help: "Inbound gateway webhook events by result.",
			},
			[]string{"result"},
		),
		inboxClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "backoffice_inbox_clients",
				Help: "Open inbox websocket connections.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordPipeline records how many rows entered a list view and how many
// survived filtering.
func (m *Metrics) RecordPipeline(view string, in, out, issues int) {
	m.pipelineRows.WithLabelValues(view, "in").Add(float64(in))
	m.pipelineRows.WithLabelValues(view, "out").Add(float64(out))
	if issues > 0 {
		m.rowIssues.WithLabelValues(view).Add(float64(issues))
	}
}

// IncrMessage counts an outbound message ("sent" or "failed").
func (m *Metrics) IncrMessage(result string) {
	m.messages.WithLabelValues(result).Inc()
}

// IncrReminder counts a reminder at a stage ("enqueued", "sent", "failed").
func (m *Metrics) IncrReminder(stage string) {
	m.reminders.WithLabelValues(stage).Inc()
}

// IncrWebhookEvent counts an inbound webhook ("accepted", "rejected", "limited").
func (m *Metrics) IncrWebhookEvent(result string) {
	m.webhookEvents.WithLabelValues(result).Inc()
}

// SetInboxClients sets the number of connected inbox sockets.
func (m *Metrics) SetInboxClients(n int) {
	m.inboxClients.Set(float64(n))
}

// GetServiceSnapshot returns a snapshot suitable for GET /v1/metrics/service.
func (m *Metrics) GetServiceSnapshot() *domain.ServiceMetrics {
	// Prometheus counters expose cumulative values.
	success := getCounterValue(m.requestsTotal, "success")
	errorCount := getCounterValue(m.requestsTotal, "error")
	totalRequests := success + errorCount

	var hits, misses float64
	for _, name := range []string{"references", "signup"} {
		hits += getCounterValue(m.cacheHits, name)
		misses += getCounterValue(m.cacheMisses, name)
	}

	errorRate := float64(0)
	cacheHitRate := float64(0)
	if totalRequests > 0 {
		errorRate = errorCount / totalRequests
	}
	if hits+misses > 0 {
		cacheHitRate = hits / (hits + misses)
	}

	return &domain.ServiceMetrics{
		TotalRequests:     int64(totalRequests),
		ErrorRate:         errorRate,
		CacheHitRate:      cacheHitRate,
		MessagesSent:      int64(getCounterValue(m.messages, "sent")),
		MessagesFailed:    int64(getCounterValue(m.messages, "failed")),
		RemindersEnqueued: int64(getCounterValue(m.reminders, "enqueued")),
		RemindersSent:     int64(getCounterValue(m.reminders, "sent")),
		WebhookEvents:     int64(getCounterValue(m.webhookEvents, "accepted")),
		Period:            "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
