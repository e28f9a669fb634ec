package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Billing reminders
// ============================================================

// ReminderChannel is the delivery channel of a billing reminder.
type ReminderChannel string

const (
	ChannelWhatsApp ReminderChannel = "whatsapp"
	ChannelEmail    ReminderChannel = "email"
)

// DefaultReminderTemplate is used when a tenant never customized its message.
const DefaultReminderTemplate = "Olá {{cliente}}, lembramos que a cobrança \"{{descricao}}\" no valor de {{valor}} vence em {{vencimento}}."

// BillingSettings is the per-tenant reminder configuration.
type BillingSettings struct {
	TenantID        string            `json:"tenantId"`
	Enabled         bool              `json:"enabled"`
	DaysBeforeDue   []int             `json:"daysBeforeDue"`
	DaysAfterDue    []int             `json:"daysAfterDue"`
	Channels        []ReminderChannel `json:"channels"`
	MessageTemplate string            `json:"messageTemplate"`
	Cron            string            `json:"cron"`
	Timezone        string            `json:"timezone"`
	UpdatedAt       Timestamp         `json:"updatedAt"`
	NextRunAt       *time.Time        `json:"nextRunAt,omitempty"`
}

// DefaultBillingSettings is returned for tenants without a stored configuration.
func DefaultBillingSettings(tenantID string) *BillingSettings {
	return &BillingSettings{
		TenantID:        tenantID,
		Enabled:         false,
		DaysBeforeDue:   []int{3, 1},
		DaysAfterDue:    []int{1, 7},
		Channels:        []ReminderChannel{ChannelWhatsApp},
		MessageTemplate: DefaultReminderTemplate,
		Cron:            "0 9 * * *",
		Timezone:        "America/Sao_Paulo",
	}
}

// ReminderTask is the queued payload for a single reminder.
type ReminderTask struct {
	TenantID     string          `json:"tenantId"`
	AccountID    string          `json:"accountId"`
	ClientName   string          `json:"clientName"`
	ClientPhone  string          `json:"clientPhone"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      time.Time       `json:"dueDate"`
	Template     string          `json:"template"`
	DaysFromDue  int             `json:"daysFromDue"` // negative before due, positive after
	ScheduledFor time.Time       `json:"scheduledFor"`
}

// ReminderRunResult summarizes POST /v1/billing/reminders.
type ReminderRunResult struct {
	Evaluated int      `json:"evaluated"`
	Enqueued  int      `json:"enqueued"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}
