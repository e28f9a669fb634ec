package supabase

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Accounts payable/receivable — CRUD via PostgREST
// ============================================================

func (c *Client) ListAccounts(ctx context.Context, tenantID string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAccounts")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", tenantID))

	var rows []accountRow
	err := c.call(ctx, "accounts", func() error {
		body, err := c.doRequest(ctx, http.MethodGet, "accounts?"+eq("tenant_id", tenantID)+"&order=due_date.asc")
		if err != nil {
			return err
		}
		rows, err = decodeRows[accountRow](body, "accounts")
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Account, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) GetAccount(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAccount")
	defer span.End()

	var rows []accountRow
	err := c.call(ctx, "accounts", func() error {
		body, err := c.doRequest(ctx, http.MethodGet, "accounts?"+eq("tenant_id", tenantID)+"&"+eq("id", id)+"&limit=1")
		if err != nil {
			return err
		}
		rows, err = decodeRows[accountRow](body, "account")
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "account", ID: id}
	}
	a := rows[0].toDomain()
	return &a, nil
}

// CreateAccounts inserts a batch in one request, so installments of the
// same parent are stored together or not at all.
func (c *Client) CreateAccounts(ctx context.Context, accounts []domain.Account) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateAccounts")
	defer span.End()
	span.SetAttributes(attribute.Int("accounts.count", len(accounts)))

	batch := make([]map[string]any, 0, len(accounts))
	for i := range accounts {
		a := &accounts[i]
		data := accountColumns(a)
		id := a.ID
		if id == "" {
			id = uuid.New().String()
		}
		data["id"] = id
		data["tenant_id"] = a.TenantID
		batch = append(batch, data)
	}

	var rows []accountRow
	err := c.call(ctx, "accounts", func() error {
		body, err := c.doPost(ctx, "accounts", batch)
		if err != nil {
			return err
		}
		rows, err = decodeRows[accountRow](body, "accounts")
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Account, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) UpdateAccount(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateAccount")
	defer span.End()

	var rows []accountRow
	err := c.call(ctx, "accounts", func() error {
		body, err := c.doPatch(ctx, "accounts?"+eq("tenant_id", a.TenantID)+"&"+eq("id", a.ID), accountColumns(a))
		if err != nil {
			return err
		}
		rows, err = decodeRows[accountRow](body, "account")
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "account", ID: a.ID}
	}
	out := rows[0].toDomain()
	return &out, nil
}

func (c *Client) DeleteAccount(ctx context.Context, tenantID, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteAccount")
	defer span.End()

	var rows []accountRow
	err := c.call(ctx, "accounts", func() error {
		body, err := c.doDelete(ctx, "accounts?"+eq("tenant_id", tenantID)+"&"+eq("id", id))
		if err != nil {
			return err
		}
		rows, err = decodeRows[accountRow](body, "account")
		return err
	})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return &domain.ErrNotFound{Resource: "account", ID: id}
	}
	return nil
}

// MarkOverdue flips PENDING accounts due before the given day to OVERDUE.
func (c *Client) MarkOverdue(ctx context.Context, tenantID string, before time.Time) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.MarkOverdue")
	defer span.End()

	path := "accounts?" + eq("tenant_id", tenantID) +
		"&" + eq("status", string(domain.AccountPending)) +
		"&due_date=lt." + before.Format("2006-01-02")

	var rows []accountRow
	err := c.call(ctx, "accounts", func() error {
		body, err := c.doPatch(ctx, path, map[string]any{"status": domain.AccountOverdue})
		if err != nil {
			return err
		}
		rows, err = decodeRows[accountRow](body, "accounts")
		return err
	})
	if err != nil {
		return 0, err
	}

	if len(rows) > 0 {
		c.logger.Info("supabase: accounts flagged overdue",
			zap.String("tenant_id", tenantID),
			zap.Int("count", len(rows)),
		)
	}
	return len(rows), nil
}
