package handler

import (
	"net/http"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/listview"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Imóveis, clientes e visitas
// ============================================================

func listPropertiesHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/properties")
		defer span.End()

		props, err := svc.ListProperties(ctx, TenantIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": props, "total": len(props)})
	}
}

func createPropertyHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/properties")
		defer span.End()

		var in domain.Property
		if err := decodeBody(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		p, err := svc.CreateProperty(ctx, TenantIDFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func listClientsHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients")
		defer span.End()

		clients, err := svc.ListClients(ctx, TenantIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": clients, "total": len(clients)})
	}
}

func createClientHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clients")
		defer span.End()

		var in domain.Client
		if err := decodeBody(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		c, err := svc.CreateClient(ctx, TenantIDFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func listVisitsHandler(svc *service.VisitService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/visits")
		defer span.End()

		from, to, err := queryDateRange(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		f := listview.VisitFilter{
			Status:     r.URL.Query().Get("status"),
			PropertyID: r.URL.Query().Get("property_id"),
			From:       from,
			To:         to,
		}
		resp, err := svc.ListVisits(ctx, TenantIDFromContext(ctx), f, parsePagination(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
