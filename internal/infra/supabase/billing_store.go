package supabase

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
)

// ============================================================
// Billing settings — one row per tenant
// ============================================================

func (c *Client) GetBillingSettings(ctx context.Context, tenantID string) (*domain.BillingSettings, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBillingSettings")
	defer span.End()

	var rows []billingSettingsRow
	err := c.call(ctx, "billing_settings", func() error {
		body, err := c.doRequest(ctx, http.MethodGet, "billing_settings?"+eq("tenant_id", tenantID)+"&limit=1")
		if err != nil {
			return err
		}
		rows, err = decodeRows[billingSettingsRow](body, "billing_settings")
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "billing_settings", ID: tenantID}
	}
	s := rows[0].toDomain()
	return &s, nil
}

// SaveBillingSettings upserts the tenant row.
func (c *Client) SaveBillingSettings(ctx context.Context, s *domain.BillingSettings) (*domain.BillingSettings, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SaveBillingSettings")
	defer span.End()

	data := map[string]any{
		"tenant_id":        s.TenantID,
		"enabled":          s.Enabled,
		"days_before_due":  s.DaysBeforeDue,
		"days_after_due":   s.DaysAfterDue,
		"channels":         s.Channels,
		"message_template": s.MessageTemplate,
		"cron":             s.Cron,
		"timezone":         s.Timezone,
		"updated_at":       time.Now().UTC(),
	}

	var rows []billingSettingsRow
	err := c.call(ctx, "billing_settings", func() error {
		body, err := c.doPost(ctx, "billing_settings?on_conflict=tenant_id", data, "resolution=merge-duplicates")
		if err != nil {
			return err
		}
		rows, err = decodeRows[billingSettingsRow](body, "billing_settings")
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrExternalService{Service: "supabase/billing_settings", Err: errEmptyInsert}
	}
	out := rows[0].toDomain()
	return &out, nil
}

func (c *Client) ListEnabledBillingSettings(ctx context.Context) ([]domain.BillingSettings, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListEnabledBillingSettings")
	defer span.End()

	var rows []billingSettingsRow
	err := c.call(ctx, "billing_settings", func() error {
		body, err := c.doRequest(ctx, http.MethodGet, "billing_settings?enabled=is.true")
		if err != nil {
			return err
		}
		rows, err = decodeRows[billingSettingsRow](body, "billing_settings")
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.BillingSettings, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
