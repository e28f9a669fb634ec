package postgres

import (
	"context"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const reservationColumns = `id, tenant_id, property_id, client_id, check_in, check_out, guests,
	total_price, status, payment_status, source, notes, created_at`

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var (
		r                       domain.Reservation
		checkIn, checkOut, crAt *time.Time
		price                   decimal.Decimal
		status, payment, source *string
		notes                   *string
	)
	if err := row.Scan(&r.ID, &r.TenantID, &r.PropertyID, &r.ClientID, &checkIn, &checkOut, &r.Guests,
		&price, &status, &payment, &source, &notes, &crAt); err != nil {
		return r, err
	}
	r.CheckIn = tsOf(checkIn)
	r.CheckOut = tsOf(checkOut)
	r.CreatedAt = tsOf(crAt)
	r.TotalPrice = price
	r.Status = domain.ReservationStatus(str(status))
	r.PaymentStatus = domain.PaymentStatus(str(payment))
	r.Source = domain.ReservationSource(str(source))
	r.Notes = str(notes)
	r.ApplyDefaults()
	return r, nil
}

func (s *Store) ListReservations(ctx context.Context, tenantID string) ([]domain.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListReservations")
	defer span.End()

	rows, err := s.pool.Query(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE tenant_id = $1 ORDER BY check_in DESC`, tenantID)
	if err != nil {
		return nil, wrap("reservations", "", err)
	}
	defer rows.Close()

	out := []domain.Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, wrap("reservations", "", err)
		}
		out = append(out, r)
	}
	return out, wrap("reservations", "", rows.Err())
}

func (s *Store) GetReservation(ctx context.Context, tenantID, id string) (*domain.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetReservation")
	defer span.End()

	r, err := scanReservation(s.pool.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, wrap("reservation", id, err)
	}
	return &r, nil
}

func (s *Store) CreateReservation(ctx context.Context, in *domain.Reservation) (*domain.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Postgres.CreateReservation")
	defer span.End()

	r, err := scanReservation(s.pool.QueryRow(ctx, `
		INSERT INTO reservations (id, tenant_id, property_id, client_id, check_in, check_out, guests,
			total_price, status, payment_status, source, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		RETURNING `+reservationColumns,
		uuid.New().String(), in.TenantID, in.PropertyID, in.ClientID, timeParam(in.CheckIn), timeParam(in.CheckOut),
		in.Guests, in.TotalPrice, in.Status, in.PaymentStatus, in.Source, in.Notes))
	if err != nil {
		return nil, wrap("reservations", "", err)
	}
	return &r, nil
}

func (s *Store) UpdateReservation(ctx context.Context, in *domain.Reservation) (*domain.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Postgres.UpdateReservation")
	defer span.End()

	r, err := scanReservation(s.pool.QueryRow(ctx, `
		UPDATE reservations
		SET property_id = $3, client_id = $4, check_in = $5, check_out = $6, guests = $7,
		    total_price = $8, status = $9, payment_status = $10, source = $11, notes = $12
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+reservationColumns,
		in.TenantID, in.ID, in.PropertyID, in.ClientID, timeParam(in.CheckIn), timeParam(in.CheckOut),
		in.Guests, in.TotalPrice, in.Status, in.PaymentStatus, in.Source, in.Notes))
	if err != nil {
		return nil, wrap("reservation", in.ID, err)
	}
	return &r, nil
}

func (s *Store) DeleteReservation(ctx context.Context, tenantID, id string) error {
	ctx, span := tracer.Start(ctx, "Postgres.DeleteReservation")
	defer span.End()

	ct, err := s.pool.Exec(ctx, `DELETE FROM reservations WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return wrap("reservation", id, err)
	}
	if ct.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "reservation", ID: id}
	}
	return nil
}
