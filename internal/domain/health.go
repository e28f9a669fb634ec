package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	Error       string `json:"error,omitempty"`
	LastChecked string `json:"lastChecked"`
}

// ServiceMetrics is returned by GET /v1/metrics/service.
type ServiceMetrics struct {
	TotalRequests     int64   `json:"totalRequests"`
	ErrorRate         float64 `json:"errorRate"`
	CacheHitRate      float64 `json:"cacheHitRate"`
	MessagesSent      int64   `json:"messagesSent"`
	MessagesFailed    int64   `json:"messagesFailed"`
	RemindersEnqueued int64   `json:"remindersEnqueued"`
	RemindersSent     int64   `json:"remindersSent"`
	WebhookEvents     int64   `json:"webhookEvents"`
	Period            string  `json:"period"`
}

// ============================================================
// Generic API Response wrappers
// ============================================================

// RowIssue reports a record that could not be fully derived.
// The row itself is still returned.
type RowIssue struct {
	ID      string `json:"id"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ListResponse wraps a derived list view: the current page, the KPIs and
// any per-row issues found while enriching.
type ListResponse[T any, S any] struct {
	Data     []T        `json:"data"`
	Stats    S          `json:"stats"`
	Issues   []RowIssue `json:"issues,omitempty"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	HasMore  bool       `json:"has_more"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
