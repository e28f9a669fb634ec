package domain

import "github.com/shopspring/decimal"

// Property is a rentable unit managed by the tenant.
type Property struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenantId"`
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	City      string          `json:"city,omitempty"`
	BasePrice decimal.Decimal `json:"basePrice"`
	MaxGuests int             `json:"maxGuests"`
	Status    string          `json:"status"` // active, inactive
	Amenities []string        `json:"amenities"`
	CreatedAt Timestamp       `json:"createdAt"`
}

// Client is a guest or lead of the tenant.
type Client struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone"`
	Document  string    `json:"document,omitempty"`
	Tags      []string  `json:"tags"`
	CreatedAt Timestamp `json:"createdAt"`
}
