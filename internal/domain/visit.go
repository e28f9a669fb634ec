package domain

// VisitStatus of a property visit.
type VisitStatus string

const (
	VisitScheduled VisitStatus = "scheduled"
	VisitCompleted VisitStatus = "completed"
	VisitCancelled VisitStatus = "cancelled"
	VisitNoShow    VisitStatus = "no_show"
)

// Visit is a scheduled viewing of a property by a lead.
type Visit struct {
	ID          string      `json:"id"`
	TenantID    string      `json:"tenantId"`
	PropertyID  string      `json:"propertyId"`
	ClientID    string      `json:"clientId"`
	ScheduledAt Timestamp   `json:"scheduledAt"`
	Status      VisitStatus `json:"status"`
	Notes       string      `json:"notes,omitempty"`
	CreatedAt   Timestamp   `json:"createdAt"`
}

// VisitRow is a visit joined with its property and client.
type VisitRow struct {
	Visit
	PropertyName string `json:"propertyName"`
	ClientName   string `json:"clientName"`
	ClientPhone  string `json:"clientPhone"`
}
