package handler

import (
	"net/http"
	"strings"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/listview"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Reservas — /v1/reservations
// ============================================================

func reservationFilter(r *http.Request) (listview.ReservationFilter, error) {
	q := r.URL.Query()
	from, to, err := queryDateRange(r)
	if err != nil {
		return listview.ReservationFilter{}, err
	}
	return listview.ReservationFilter{
		Search:        strings.TrimSpace(q.Get("search")),
		Status:        q.Get("status"),
		PaymentStatus: q.Get("payment_status"),
		Source:        q.Get("source"),
		PropertyID:    q.Get("property_id"),
		From:          from,
		To:            to,
	}, nil
}

func listReservationsHandler(svc *service.ReservationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reservations")
		defer span.End()

		tenantID := TenantIDFromContext(ctx)
		span.SetAttributes(attribute.String("tenant.id", tenantID))

		f, err := reservationFilter(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		resp, err := svc.ListReservations(ctx, tenantID, f, parsePagination(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getReservationHandler(svc *service.ReservationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reservations/{id}")
		defer span.End()

		row, err := svc.GetReservation(ctx, TenantIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, row)
	}
}

func createReservationHandler(svc *service.ReservationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/reservations")
		defer span.End()

		var in domain.ReservationInput
		if err := decodeBody(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		row, err := svc.CreateReservation(ctx, TenantIDFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, row)
	}
}

func updateReservationHandler(svc *service.ReservationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/reservations/{id}")
		defer span.End()

		var in domain.ReservationInput
		if err := decodeBody(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		row, err := svc.UpdateReservation(ctx, TenantIDFromContext(ctx), chi.URLParam(r, "id"), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, row)
	}
}

func deleteReservationHandler(svc *service.ReservationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/reservations/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteReservation(ctx, TenantIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Reserva excluída", ID: id})
	}
}
