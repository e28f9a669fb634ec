package postgres

import (
	"context"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ============================================================
// Properties, clients, visits
// ============================================================

const propertyColumns = `id, tenant_id, name, address, coalesce(city, ''), base_price, max_guests, status, coalesce(amenities, '{}'), created_at`

func scanProperty(row pgx.Row) (domain.Property, error) {
	var (
		p    domain.Property
		crAt *time.Time
	)
	if err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Address, &p.City, &p.BasePrice, &p.MaxGuests,
		&p.Status, &p.Amenities, &crAt); err != nil {
		return p, err
	}
	p.Amenities = nonNil(p.Amenities)
	p.CreatedAt = tsOf(crAt)
	return p, nil
}

func (s *Store) ListProperties(ctx context.Context, tenantID string) ([]domain.Property, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListProperties")
	defer span.End()

	rows, err := s.pool.Query(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, wrap("properties", "", err)
	}
	defer rows.Close()

	out := []domain.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, wrap("properties", "", err)
		}
		out = append(out, p)
	}
	return out, wrap("properties", "", rows.Err())
}

func (s *Store) CreateProperty(ctx context.Context, in *domain.Property) (*domain.Property, error) {
	ctx, span := tracer.Start(ctx, "Postgres.CreateProperty")
	defer span.End()

	p, err := scanProperty(s.pool.QueryRow(ctx, `
		INSERT INTO properties (id, tenant_id, name, address, city, base_price, max_guests, status, amenities, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING `+propertyColumns,
		uuid.New().String(), in.TenantID, in.Name, in.Address, in.City, in.BasePrice, in.MaxGuests,
		in.Status, nonNil(in.Amenities)))
	if err != nil {
		return nil, wrap("properties", "", err)
	}
	return &p, nil
}

const clientColumns = `id, tenant_id, name, coalesce(email, ''), phone, coalesce(document, ''), coalesce(tags, '{}'), created_at`

func scanClient(row pgx.Row) (domain.Client, error) {
	var (
		c    domain.Client
		crAt *time.Time
	)
	if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.Document, &c.Tags, &crAt); err != nil {
		return c, err
	}
	c.Tags = nonNil(c.Tags)
	c.CreatedAt = tsOf(crAt)
	return c, nil
}

func (s *Store) ListClients(ctx context.Context, tenantID string) ([]domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListClients")
	defer span.End()

	rows, err := s.pool.Query(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, wrap("clients", "", err)
	}
	defer rows.Close()

	out := []domain.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, wrap("clients", "", err)
		}
		out = append(out, c)
	}
	return out, wrap("clients", "", rows.Err())
}

func (s *Store) CreateClient(ctx context.Context, in *domain.Client) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Postgres.CreateClient")
	defer span.End()

	c, err := scanClient(s.pool.QueryRow(ctx, `
		INSERT INTO clients (id, tenant_id, name, email, phone, document, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING `+clientColumns,
		uuid.New().String(), in.TenantID, in.Name, in.Email, in.Phone, in.Document, nonNil(in.Tags)))
	if err != nil {
		return nil, wrap("clients", "", err)
	}
	return &c, nil
}

func (s *Store) ListVisits(ctx context.Context, tenantID string) ([]domain.Visit, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListVisits")
	defer span.End()

	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, property_id, client_id, scheduled_at, status, coalesce(notes, ''), created_at
		FROM visits WHERE tenant_id = $1 ORDER BY scheduled_at DESC`, tenantID)
	if err != nil {
		return nil, wrap("visits", "", err)
	}
	defer rows.Close()

	out := []domain.Visit{}
	for rows.Next() {
		var (
			v           domain.Visit
			sched, crAt *time.Time
			status      string
		)
		if err := rows.Scan(&v.ID, &v.TenantID, &v.PropertyID, &v.ClientID, &sched, &status, &v.Notes, &crAt); err != nil {
			return nil, wrap("visits", "", err)
		}
		v.ScheduledAt = tsOf(sched)
		v.CreatedAt = tsOf(crAt)
		v.Status = domain.VisitStatus(status)
		if v.Status == "" {
			v.Status = domain.VisitScheduled
		}
		out = append(out, v)
	}
	return out, wrap("visits", "", rows.Err())
}
