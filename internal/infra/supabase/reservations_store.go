package supabase

import (
	"context"
	"net/http"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Reservations — CRUD via PostgREST
// ============================================================

func (c *Client) ListReservations(ctx context.Context, tenantID string) ([]domain.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListReservations")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", tenantID))

	var rows []reservationRow
	err := c.call(ctx, "reservations", func() error {
		body, err := c.doRequest(ctx, http.MethodGet, "reservations?"+eq("tenant_id", tenantID)+"&order=check_in.desc")
		if err != nil {
			return err
		}
		rows, err = decodeRows[reservationRow](body, "reservations")
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Reservation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) GetReservation(ctx context.Context, tenantID, id string) (*domain.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetReservation")
	defer span.End()

	var rows []reservationRow
	err := c.call(ctx, "reservations", func() error {
		body, err := c.doRequest(ctx, http.MethodGet, "reservations?"+eq("tenant_id", tenantID)+"&"+eq("id", id)+"&limit=1")
		if err != nil {
			return err
		}
		rows, err = decodeRows[reservationRow](body, "reservation")
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "reservation", ID: id}
	}
	res := rows[0].toDomain()
	return &res, nil
}

func (c *Client) CreateReservation(ctx context.Context, r *domain.Reservation) (*domain.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateReservation")
	defer span.End()

	data := reservationColumns(r)
	data["id"] = uuid.New().String()
	data["tenant_id"] = r.TenantID

	var rows []reservationRow
	err := c.call(ctx, "reservations", func() error {
		body, err := c.doPost(ctx, "reservations", data)
		if err != nil {
			return err
		}
		rows, err = decodeRows[reservationRow](body, "reservation")
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrExternalService{Service: "supabase/reservations", Err: errEmptyInsert}
	}
	res := rows[0].toDomain()
	return &res, nil
}

func (c *Client) UpdateReservation(ctx context.Context, r *domain.Reservation) (*domain.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateReservation")
	defer span.End()

	var rows []reservationRow
	err := c.call(ctx, "reservations", func() error {
		body, err := c.doPatch(ctx, "reservations?"+eq("tenant_id", r.TenantID)+"&"+eq("id", r.ID), reservationColumns(r))
		if err != nil {
			return err
		}
		rows, err = decodeRows[reservationRow](body, "reservation")
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "reservation", ID: r.ID}
	}
	res := rows[0].toDomain()
	return &res, nil
}

func (c *Client) DeleteReservation(ctx context.Context, tenantID, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteReservation")
	defer span.End()

	var rows []reservationRow
	err := c.call(ctx, "reservations", func() error {
		body, err := c.doDelete(ctx, "reservations?"+eq("tenant_id", tenantID)+"&"+eq("id", id))
		if err != nil {
			return err
		}
		rows, err = decodeRows[reservationRow](body, "reservation")
		return err
	})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return &domain.ErrNotFound{Resource: "reservation", ID: id}
	}
	return nil
}
