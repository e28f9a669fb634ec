package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/listview"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReservationService serves the reservations screen.
type ReservationService struct {
	store   port.ReservationStore
	refs    *ReferenceLoader
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewReservationService(store port.ReservationStore, refs *ReferenceLoader, metrics *observability.Metrics, logger *zap.Logger) *ReservationService {
	return &ReservationService{store: store, refs: refs, metrics: metrics, logger: logger}
}

// ListReservations returns the enriched, filtered page with KPIs computed
// over the filtered rows.
func (s *ReservationService) ListReservations(ctx context.Context, tenantID string, f listview.ReservationFilter, pr PageRequest) (resp *domain.ListResponse[domain.ReservationRow, domain.ReservationStats], err error) {
	ctx, span := tracer.Start(ctx, "ReservationService.ListReservations")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", tenantID))
	defer track(s.metrics, "reservations.list", time.Now(), &err)

	var (
		reservations []domain.Reservation
		refs         *References
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reservations, err = s.store.ListReservations(gCtx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		refs, err = s.refs.Load(gCtx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}

	rows, issues := listview.EnrichReservations(reservations, refs.Properties, refs.Clients)
	filtered := listview.Apply(rows, f.Predicates()...)
	stays := listview.Apply(rows, f.StayPredicates()...)
	stats := listview.ReservationStats(filtered, stays, listview.Window{From: f.From, To: f.To}, len(refs.Properties))

	s.metrics.RecordPipeline("reservations", len(rows), len(filtered), len(issues))
	if len(issues) > 0 {
		s.logger.Warn("reservations with unusable dates",
			zap.String("tenant_id", tenantID),
			zap.Int("count", len(issues)),
		)
	}
	return listResponse(filtered, stats, issues, pr), nil
}

// GetReservation returns one enriched reservation.
func (s *ReservationService) GetReservation(ctx context.Context, tenantID, id string) (*domain.ReservationRow, error) {
	ctx, span := tracer.Start(ctx, "ReservationService.GetReservation")
	defer span.End()

	r, err := s.store.GetReservation(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.enrichOne(ctx, *r)
}

func (s *ReservationService) enrichOne(ctx context.Context, r domain.Reservation) (*domain.ReservationRow, error) {
	refs, err := s.refs.Load(ctx, r.TenantID)
	if err != nil {
		return nil, err
	}
	rows, _ := listview.EnrichReservations([]domain.Reservation{r}, refs.Properties, refs.Clients)
	return &rows[0], nil
}

// CreateReservation validates the wizard payload and returns the stored row.
func (s *ReservationService) CreateReservation(ctx context.Context, tenantID string, in *domain.ReservationInput) (row *domain.ReservationRow, err error) {
	ctx, span := tracer.Start(ctx, "ReservationService.CreateReservation")
	defer span.End()
	defer track(s.metrics, "reservations.create", time.Now(), &err)

	if err := validateReservation(in); err != nil {
		return nil, err
	}

	r := reservationFromInput(in)
	r.TenantID = tenantID
	r.ApplyDefaults()

	created, err := s.store.CreateReservation(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	s.logger.Info("reservation created",
		zap.String("tenant_id", tenantID),
		zap.String("reservation_id", created.ID),
		zap.String("source", string(created.Source)),
	)
	return s.GetReservation(ctx, tenantID, created.ID)
}

// UpdateReservation replaces the editable fields. Any valid status may be set.
func (s *ReservationService) UpdateReservation(ctx context.Context, tenantID, id string, in *domain.ReservationInput) (row *domain.ReservationRow, err error) {
	ctx, span := tracer.Start(ctx, "ReservationService.UpdateReservation")
	defer span.End()
	defer track(s.metrics, "reservations.update", time.Now(), &err)

	if err := validateReservation(in); err != nil {
		return nil, err
	}
	current, err := s.store.GetReservation(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	r := reservationFromInput(in)
	r.ID = current.ID
	r.TenantID = tenantID
	r.CreatedAt = current.CreatedAt
	if r.Status == "" {
		r.Status = current.Status
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = current.PaymentStatus
	}
	if r.Source == "" {
		r.Source = current.Source
	}

	if _, err := s.store.UpdateReservation(ctx, &r); err != nil {
		return nil, fmt.Errorf("update reservation: %w", err)
	}
	return s.GetReservation(ctx, tenantID, id)
}

func (s *ReservationService) DeleteReservation(ctx context.Context, tenantID, id string) error {
	ctx, span := tracer.Start(ctx, "ReservationService.DeleteReservation")
	defer span.End()

	if err := s.store.DeleteReservation(ctx, tenantID, id); err != nil {
		return err
	}
	s.logger.Info("reservation deleted", zap.String("tenant_id", tenantID), zap.String("reservation_id", id))
	return nil
}

func reservationFromInput(in *domain.ReservationInput) domain.Reservation {
	return domain.Reservation{
		PropertyID:    in.PropertyID,
		ClientID:      in.ClientID,
		CheckIn:       in.CheckIn,
		CheckOut:      in.CheckOut,
		Guests:        in.Guests,
		TotalPrice:    in.Price(),
		Status:        in.Status,
		PaymentStatus: in.PaymentStatus,
		Source:        in.Source,
		Notes:         in.Notes,
	}
}

func validateReservation(in *domain.ReservationInput) error {
	fields := map[string]string{}
	if in.PropertyID == "" {
		fields["propertyId"] = "Selecione um imóvel"
	}
	if in.ClientID == "" {
		fields["clientId"] = "Selecione um cliente"
	}
	checkIn, errIn := in.CheckIn.Time()
	if errIn != nil {
		fields["checkIn"] = "Data de check-in inválida"
	}
	checkOut, errOut := in.CheckOut.Time()
	if errOut != nil {
		fields["checkOut"] = "Data de check-out inválida"
	}
	if errIn == nil && errOut == nil && !checkOut.After(checkIn) {
		fields["checkOut"] = "Check-out deve ser posterior ao check-in"
	}
	if in.Guests < 1 {
		fields["guests"] = "Informe ao menos 1 hóspede"
	}
	if in.Price().IsNegative() {
		fields["totalPrice"] = "Valor não pode ser negativo"
	}
	if in.Status != "" && !in.Status.Valid() {
		fields["status"] = "Status inválido"
	}
	if in.PaymentStatus != "" && !in.PaymentStatus.Valid() {
		fields["paymentStatus"] = "Status de pagamento inválido"
	}
	if in.Source != "" && !in.Source.Valid() {
		fields["source"] = "Origem inválida"
	}
	return fieldErrors(fields)
}
