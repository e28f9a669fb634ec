package supabase

import (
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

// ============================================================
// Table rows (snake_case columns) and their domain mapping
// ============================================================

type reservationRow struct {
	ID            string           `json:"id"`
	TenantID      string           `json:"tenant_id"`
	PropertyID    string           `json:"property_id"`
	ClientID      string           `json:"client_id"`
	CheckIn       domain.Timestamp `json:"check_in"`
	CheckOut      domain.Timestamp `json:"check_out"`
	Guests        int              `json:"guests"`
	TotalPrice    decimal.Decimal  `json:"total_price"`
	Status        string           `json:"status"`
	PaymentStatus string           `json:"payment_status"`
	Source        string           `json:"source"`
	Notes         string           `json:"notes"`
	CreatedAt     domain.Timestamp `json:"created_at"`
}

func (r reservationRow) toDomain() domain.Reservation {
	res := domain.Reservation{
		ID:            r.ID,
		TenantID:      r.TenantID,
		PropertyID:    r.PropertyID,
		ClientID:      r.ClientID,
		CheckIn:       r.CheckIn,
		CheckOut:      r.CheckOut,
		Guests:        r.Guests,
		TotalPrice:    r.TotalPrice,
		Status:        domain.ReservationStatus(r.Status),
		PaymentStatus: domain.PaymentStatus(r.PaymentStatus),
		Source:        domain.ReservationSource(r.Source),
		Notes:         r.Notes,
		CreatedAt:     r.CreatedAt,
	}
	res.ApplyDefaults()
	return res
}

func reservationColumns(r *domain.Reservation) map[string]any {
	return map[string]any{
		"property_id":    r.PropertyID,
		"client_id":      r.ClientID,
		"check_in":       r.CheckIn,
		"check_out":      r.CheckOut,
		"guests":         r.Guests,
		"total_price":    r.TotalPrice,
		"status":         r.Status,
		"payment_status": r.PaymentStatus,
		"source":         r.Source,
		"notes":          r.Notes,
	}
}

type propertyRow struct {
	ID        string           `json:"id"`
	TenantID  string           `json:"tenant_id"`
	Name      string           `json:"name"`
	Address   string           `json:"address"`
	City      string           `json:"city"`
	BasePrice decimal.Decimal  `json:"base_price"`
	MaxGuests int              `json:"max_guests"`
	Status    string           `json:"status"`
	Amenities []string         `json:"amenities"`
	CreatedAt domain.Timestamp `json:"created_at"`
}

func (p propertyRow) toDomain() domain.Property {
	amenities := p.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return domain.Property{
		ID:        p.ID,
		TenantID:  p.TenantID,
		Name:      p.Name,
		Address:   p.Address,
		City:      p.City,
		BasePrice: p.BasePrice,
		MaxGuests: p.MaxGuests,
		Status:    p.Status,
		Amenities: amenities,
		CreatedAt: p.CreatedAt,
	}
}

type clientRow struct {
	ID        string           `json:"id"`
	TenantID  string           `json:"tenant_id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone"`
	Document  string           `json:"document"`
	Tags      []string         `json:"tags"`
	CreatedAt domain.Timestamp `json:"created_at"`
}

func (c clientRow) toDomain() domain.Client {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Client{
		ID:        c.ID,
		TenantID:  c.TenantID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Document:  c.Document,
		Tags:      tags,
		CreatedAt: c.CreatedAt,
	}
}

type visitRow struct {
	ID          string           `json:"id"`
	TenantID    string           `json:"tenant_id"`
	PropertyID  string           `json:"property_id"`
	ClientID    string           `json:"client_id"`
	ScheduledAt domain.Timestamp `json:"scheduled_at"`
	Status      string           `json:"status"`
	Notes       string           `json:"notes"`
	CreatedAt   domain.Timestamp `json:"created_at"`
}

func (v visitRow) toDomain() domain.Visit {
	status := domain.VisitStatus(v.Status)
	if status == "" {
		status = domain.VisitScheduled
	}
	return domain.Visit{
		ID:          v.ID,
		TenantID:    v.TenantID,
		PropertyID:  v.PropertyID,
		ClientID:    v.ClientID,
		ScheduledAt: v.ScheduledAt,
		Status:      status,
		Notes:       v.Notes,
		CreatedAt:   v.CreatedAt,
	}
}

type accountRow struct {
	ID                string           `json:"id"`
	TenantID          string           `json:"tenant_id"`
	Type              string           `json:"type"`
	Category          string           `json:"category"`
	Description       string           `json:"description"`
	Counterparty      string           `json:"counterparty"`
	OriginalAmount    decimal.Decimal  `json:"original_amount"`
	PaidAmount        decimal.Decimal  `json:"paid_amount"`
	RemainingAmount   decimal.Decimal  `json:"remaining_amount"`
	DueDate           domain.Timestamp `json:"due_date"`
	Status            string           `json:"status"`
	InterestRate      decimal.Decimal  `json:"interest_rate"`
	FineRate          decimal.Decimal  `json:"fine_rate"`
	InstallmentNumber int              `json:"installment_number"`
	TotalInstallments int              `json:"total_installments"`
	ParentAccountID   *string          `json:"parent_account_id"`
	ReservationID     *string          `json:"reservation_id"`
	PropertyID        *string          `json:"property_id"`
	ClientID          *string          `json:"client_id"`
	Tags              []string         `json:"tags"`
	Payments          []domain.Payment `json:"payments"`
	CreatedAt         domain.Timestamp `json:"created_at"`
}

func (a accountRow) toDomain() domain.Account {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	payments := a.Payments
	if payments == nil {
		payments = []domain.Payment{}
	}
	return domain.Account{
		ID:                a.ID,
		TenantID:          a.TenantID,
		Type:              domain.AccountType(a.Type),
		Category:          a.Category,
		Description:       a.Description,
		Counterparty:      a.Counterparty,
		OriginalAmount:    a.OriginalAmount,
		PaidAmount:        a.PaidAmount,
		RemainingAmount:   a.RemainingAmount,
		DueDate:           a.DueDate,
		Status:            domain.AccountStatus(a.Status),
		InterestRate:      a.InterestRate,
		FineRate:          a.FineRate,
		InstallmentNumber: a.InstallmentNumber,
		TotalInstallments: a.TotalInstallments,
		ParentAccountID:   deref(a.ParentAccountID),
		ReservationID:     deref(a.ReservationID),
		PropertyID:        deref(a.PropertyID),
		ClientID:          deref(a.ClientID),
		Tags:              tags,
		Payments:          payments,
		CreatedAt:         a.CreatedAt,
	}
}

func accountColumns(a *domain.Account) map[string]any {
	return map[string]any{
		"type":               a.Type,
		"category":           a.Category,
		"description":        a.Description,
		"counterparty":       a.Counterparty,
		"original_amount":    a.OriginalAmount,
		"paid_amount":        a.PaidAmount,
		"remaining_amount":   a.RemainingAmount,
		"due_date":           a.DueDate,
		"status":             a.Status,
		"interest_rate":      a.InterestRate,
		"fine_rate":          a.FineRate,
		"installment_number": a.InstallmentNumber,
		"total_installments": a.TotalInstallments,
		"parent_account_id":  nullable(a.ParentAccountID),
		"reservation_id":     nullable(a.ReservationID),
		"property_id":        nullable(a.PropertyID),
		"client_id":          nullable(a.ClientID),
		"tags":               nonNil(a.Tags),
		"payments":           a.Payments,
	}
}

type billingSettingsRow struct {
	TenantID        string           `json:"tenant_id"`
	Enabled         bool             `json:"enabled"`
	DaysBeforeDue   []int            `json:"days_before_due"`
	DaysAfterDue    []int            `json:"days_after_due"`
	Channels        []string         `json:"channels"`
	MessageTemplate string           `json:"message_template"`
	Cron            string           `json:"cron"`
	Timezone        string           `json:"timezone"`
	UpdatedAt       domain.Timestamp `json:"updated_at"`
}

func (b billingSettingsRow) toDomain() domain.BillingSettings {
	channels := make([]domain.ReminderChannel, 0, len(b.Channels))
	for _, ch := range b.Channels {
		channels = append(channels, domain.ReminderChannel(ch))
	}
	return domain.BillingSettings{
		TenantID:        b.TenantID,
		Enabled:         b.Enabled,
		DaysBeforeDue:   b.DaysBeforeDue,
		DaysAfterDue:    b.DaysAfterDue,
		Channels:        channels,
		MessageTemplate: b.MessageTemplate,
		Cron:            b.Cron,
		Timezone:        b.Timezone,
		UpdatedAt:       b.UpdatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nullable maps empty foreign keys to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
