package supabase

import (
	"context"
	"fmt"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Tenants — created by the signup wizard
// ============================================================

// CreateTenantAccount inserts the tenant and then its owner. PostgREST has
// no multi-table transaction, so a failed owner insert removes the tenant.
func (c *Client) CreateTenantAccount(ctx context.Context, acc *domain.NewTenantAccount) (*domain.NewTenantAccount, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTenantAccount")
	defer span.End()

	tenantData := map[string]any{
		"id":           acc.Tenant.ID,
		"company_name": acc.Tenant.CompanyName,
		"document":     acc.Tenant.Document,
		"email":        acc.Tenant.Email,
		"created_at":   acc.Tenant.CreatedAt,
	}
	err := c.call(ctx, "tenants", func() error {
		_, err := c.doPost(ctx, "tenants", tenantData)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	userData := map[string]any{
		"id":            acc.Owner.ID,
		"tenant_id":     acc.Tenant.ID,
		"name":          acc.Owner.Name,
		"email":         acc.Owner.Email,
		"phone":         acc.Owner.Phone,
		"role":          acc.Owner.Role,
		"password_hash": acc.Owner.PasswordHash,
		"created_at":    acc.Owner.CreatedAt,
	}
	err = c.call(ctx, "users", func() error {
		_, err := c.doPost(ctx, "users", userData)
		return err
	})
	if err != nil {
		if _, delErr := c.doDelete(ctx, "tenants?"+eq("id", acc.Tenant.ID)); delErr != nil {
			c.logger.Error("supabase: failed to roll back tenant",
				zap.String("tenant_id", acc.Tenant.ID),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("create owner: %w", err)
	}

	c.logger.Info("supabase: tenant created",
		zap.String("tenant_id", acc.Tenant.ID),
		zap.String("user_id", acc.Owner.ID),
	)
	return acc, nil
}
