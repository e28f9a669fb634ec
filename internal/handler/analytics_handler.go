package handler

import (
	"net/http"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Métricas e dashboards
// ============================================================

// conversionAnalyticsHandler — GET /v1/metrics/analytics?period=24h|7d|30d
func conversionAnalyticsHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/metrics/analytics")
		defer span.End()

		period := r.URL.Query().Get("period")
		span.SetAttributes(attribute.String("analytics.period", period))

		out, err := svc.ConversionAnalytics(ctx, TenantIDFromContext(ctx), period)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func financialDashboardHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/financial")
		defer span.End()

		out, err := svc.FinancialDashboard(ctx, TenantIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
