package postgres

import (
	"context"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"github.com/jackc/pgx/v5"
)

const billingColumns = `tenant_id, enabled, days_before_due, days_after_due, channels,
	message_template, cron, timezone, updated_at`

func scanBillingSettings(row pgx.Row) (domain.BillingSettings, error) {
	var (
		b         domain.BillingSettings
		channels  []string
		updatedAt *time.Time
	)
	if err := row.Scan(&b.TenantID, &b.Enabled, &b.DaysBeforeDue, &b.DaysAfterDue, &channels,
		&b.MessageTemplate, &b.Cron, &b.Timezone, &updatedAt); err != nil {
		return b, err
	}
	for _, ch := range channels {
		b.Channels = append(b.Channels, domain.ReminderChannel(ch))
	}
	b.UpdatedAt = tsOf(updatedAt)
	return b, nil
}

func (s *Store) GetBillingSettings(ctx context.Context, tenantID string) (*domain.BillingSettings, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetBillingSettings")
	defer span.End()

	b, err := scanBillingSettings(s.pool.QueryRow(ctx,
		`SELECT `+billingColumns+` FROM billing_settings WHERE tenant_id = $1`, tenantID))
	if err != nil {
		return nil, wrap("billing_settings", tenantID, err)
	}
	return &b, nil
}

func (s *Store) SaveBillingSettings(ctx context.Context, in *domain.BillingSettings) (*domain.BillingSettings, error) {
	ctx, span := tracer.Start(ctx, "Postgres.SaveBillingSettings")
	defer span.End()

	channels := make([]string, 0, len(in.Channels))
	for _, ch := range in.Channels {
		channels = append(channels, string(ch))
	}

	b, err := scanBillingSettings(s.pool.QueryRow(ctx, `
		INSERT INTO billing_settings (tenant_id, enabled, days_before_due, days_after_due, channels,
			message_template, cron, timezone, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (tenant_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			days_before_due = EXCLUDED.days_before_due,
			days_after_due = EXCLUDED.days_after_due,
			channels = EXCLUDED.channels,
			message_template = EXCLUDED.message_template,
			cron = EXCLUDED.cron,
			timezone = EXCLUDED.timezone,
			updated_at = EXCLUDED.updated_at
		RETURNING `+billingColumns,
		in.TenantID, in.Enabled, in.DaysBeforeDue, in.DaysAfterDue, channels,
		in.MessageTemplate, in.Cron, in.Timezone))
	if err != nil {
		return nil, wrap("billing_settings", in.TenantID, err)
	}
	return &b, nil
}

func (s *Store) ListEnabledBillingSettings(ctx context.Context) ([]domain.BillingSettings, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListEnabledBillingSettings")
	defer span.End()

	rows, err := s.pool.Query(ctx, `SELECT `+billingColumns+` FROM billing_settings WHERE enabled`)
	if err != nil {
		return nil, wrap("billing_settings", "", err)
	}
	defer rows.Close()

	var out []domain.BillingSettings
	for rows.Next() {
		b, err := scanBillingSettings(rows)
		if err != nil {
			return nil, wrap("billing_settings", "", err)
		}
		out = append(out, b)
	}
	return out, wrap("billing_settings", "", rows.Err())
}
