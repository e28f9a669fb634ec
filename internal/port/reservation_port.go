package port

import (
	"context"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
)

// ReservationStore handles reservation data operations.
type ReservationStore interface {
	ListReservations(ctx context.Context, tenantID string) ([]domain.Reservation, error)
	GetReservation(ctx context.Context, tenantID, id string) (*domain.Reservation, error)
	CreateReservation(ctx context.Context, r *domain.Reservation) (*domain.Reservation, error)
	UpdateReservation(ctx context.Context, r *domain.Reservation) (*domain.Reservation, error)
	DeleteReservation(ctx context.Context, tenantID, id string) error
}

// PropertyStore handles property data operations.
type PropertyStore interface {
	ListProperties(ctx context.Context, tenantID string) ([]domain.Property, error)
	CreateProperty(ctx context.Context, p *domain.Property) (*domain.Property, error)
}

// ClientStore handles guest/lead data operations.
type ClientStore interface {
	ListClients(ctx context.Context, tenantID string) ([]domain.Client, error)
	CreateClient(ctx context.Context, c *domain.Client) (*domain.Client, error)
}

// VisitStore handles property visit data operations.
type VisitStore interface {
	ListVisits(ctx context.Context, tenantID string) ([]domain.Visit, error)
}
