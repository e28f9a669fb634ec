package supabase

import (
	"context"
	"errors"
	"net/http"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"github.com/google/uuid"
)

var errEmptyInsert = errors.New("insert returned no rows")

// ============================================================
// Properties, clients and visits — reference collections
// ============================================================

func (c *Client) ListProperties(ctx context.Context, tenantID string) ([]domain.Property, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProperties")
	defer span.End()

	var rows []propertyRow
	err := c.call(ctx, "properties", func() error {
		body, err := c.doRequest(ctx, http.MethodGet, "properties?"+eq("tenant_id", tenantID)+"&order=name.asc")
		if err != nil {
			return err
		}
		rows, err = decodeRows[propertyRow](body, "properties")
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Property, 0, len(rows))
	for _, p := range rows {
		out = append(out, p.toDomain())
	}
	return out, nil
}

func (c *Client) CreateProperty(ctx context.Context, p *domain.Property) (*domain.Property, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProperty")
	defer span.End()

	data := map[string]any{
		"id":         uuid.New().String(),
		"tenant_id":  p.TenantID,
		"name":       p.Name,
		"address":    p.Address,
		"city":       p.City,
		"base_price": p.BasePrice,
		"max_guests": p.MaxGuests,
		"status":     p.Status,
		"amenities":  nonNil(p.Amenities),
	}

	var rows []propertyRow
	err := c.call(ctx, "properties", func() error {
		body, err := c.doPost(ctx, "properties", data)
		if err != nil {
			return err
		}
		rows, err = decodeRows[propertyRow](body, "property")
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrExternalService{Service: "supabase/properties", Err: errEmptyInsert}
	}
	out := rows[0].toDomain()
	return &out, nil
}

func (c *Client) ListClients(ctx context.Context, tenantID string) ([]domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListClients")
	defer span.End()

	var rows []clientRow
	err := c.call(ctx, "clients", func() error {
		body, err := c.doRequest(ctx, http.MethodGet, "clients?"+eq("tenant_id", tenantID)+"&order=name.asc")
		if err != nil {
			return err
		}
		rows, err = decodeRows[clientRow](body, "clients")
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Client, 0, len(rows))
	for _, cl := range rows {
		out = append(out, cl.toDomain())
	}
	return out, nil
}

func (c *Client) CreateClient(ctx context.Context, cl *domain.Client) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateClient")
	defer span.End()

	data := map[string]any{
		"id":        uuid.New().String(),
		"tenant_id": cl.TenantID,
		"name":      cl.Name,
		"email":     cl.Email,
		"phone":     cl.Phone,
		"document":  cl.Document,
		"tags":      nonNil(cl.Tags),
	}

	var rows []clientRow
	err := c.call(ctx, "clients", func() error {
		body, err := c.doPost(ctx, "clients", data)
		if err != nil {
			return err
		}
		rows, err = decodeRows[clientRow](body, "client")
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrExternalService{Service: "supabase/clients", Err: errEmptyInsert}
	}
	out := rows[0].toDomain()
	return &out, nil
}

func (c *Client) ListVisits(ctx context.Context, tenantID string) ([]domain.Visit, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListVisits")
	defer span.End()

	var rows []visitRow
	err := c.call(ctx, "visits", func() error {
		body, err := c.doRequest(ctx, http.MethodGet, "visits?"+eq("tenant_id", tenantID)+"&order=scheduled_at.desc")
		if err != nil {
			return err
		}
		rows, err = decodeRows[visitRow](body, "visits")
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Visit, 0, len(rows))
	for _, v := range rows {
		out = append(out, v.toDomain())
	}
	return out, nil
}
