package port

import (
	"context"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
)

// BillingStore handles billing reminder settings.
type BillingStore interface {
	// GetBillingSettings returns domain.ErrNotFound when the tenant never saved settings.
	GetBillingSettings(ctx context.Context, tenantID string) (*domain.BillingSettings, error)
	SaveBillingSettings(ctx context.Context, s *domain.BillingSettings) (*domain.BillingSettings, error)
	ListEnabledBillingSettings(ctx context.Context) ([]domain.BillingSettings, error)
}

// TenantStore persists tenants and their users.
type TenantStore interface {
	// CreateTenantAccount stores the tenant and its owner atomically.
	// Duplicate e-mail or document must surface as *domain.ErrConflict
	// or as an error carrying the database code (23505).
	CreateTenantAccount(ctx context.Context, acc *domain.NewTenantAccount) (*domain.NewTenantAccount, error)
}
