package postgres

import (
	"context"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// CreateTenantAccount stores the tenant and its owner in one transaction.
// Unique violations keep their *pgconn.PgError (SQLSTATE 23505) in the chain.
func (s *Store) CreateTenantAccount(ctx context.Context, acc *domain.NewTenantAccount) (*domain.NewTenantAccount, error) {
	ctx, span := tracer.Start(ctx, "Postgres.CreateTenantAccount")
	defer span.End()

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO tenants (id, company_name, document, email, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			acc.Tenant.ID, acc.Tenant.CompanyName, acc.Tenant.Document, acc.Tenant.Email, acc.Tenant.CreatedAt,
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, tenant_id, name, email, phone, role, password_hash, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			acc.Owner.ID, acc.Tenant.ID, acc.Owner.Name, acc.Owner.Email, acc.Owner.Phone,
			acc.Owner.Role, acc.Owner.PasswordHash, acc.Owner.CreatedAt,
		)
		return err
	})
	if err != nil {
		return nil, wrap("tenants", acc.Tenant.ID, err)
	}

	s.logger.Info("postgres: tenant created",
		zap.String("tenant_id", acc.Tenant.ID),
		zap.String("user_id", acc.Owner.ID),
	)
	return acc, nil
}
