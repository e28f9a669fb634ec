package handler

import (
	"net/http"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Cobrança — /v1/billing
// ============================================================

func getBillingSettingsHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/billing/settings")
		defer span.End()

		st, err := svc.GetSettings(ctx, TenantIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func saveBillingSettingsHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/billing/settings")
		defer span.End()

		var in domain.BillingSettings
		if err := decodeBody(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		st, err := svc.SaveSettings(ctx, TenantIDFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// runRemindersHandler triggers the reminder selection now, outside the cron.
func runRemindersHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/billing/reminders")
		defer span.End()

		res, err := svc.RunReminders(ctx, TenantIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusAccepted, res)
	}
}
