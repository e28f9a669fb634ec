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
// Contas a pagar / receber — /v1/accounts
// ============================================================

func listAccountsHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts")
		defer span.End()

		tenantID := TenantIDFromContext(ctx)
		span.SetAttributes(attribute.String("tenant.id", tenantID))

		q := r.URL.Query()
		from, to, err := queryDateRange(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		f := listview.AccountFilter{
			Search:      strings.TrimSpace(q.Get("search")),
			Status:      q.Get("status"),
			Type:        q.Get("type"),
			Category:    q.Get("category"),
			From:        from,
			To:          to,
			OverdueOnly: q.Get("overdue") == "true",
		}
		resp, err := svc.ListAccounts(ctx, tenantID, f, parsePagination(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getAccountHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts/{id}")
		defer span.End()

		acc, err := svc.GetAccount(ctx, TenantIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, acc)
	}
}

// createAccountHandler returns every stored account: one, or all the
// installments when totalInstallments > 1.
func createAccountHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts")
		defer span.End()

		var in domain.AccountInput
		if err := decodeBody(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		created, err := svc.CreateAccount(ctx, TenantIDFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"data": created, "total": len(created)})
	}
}

func updateAccountHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/accounts/{id}")
		defer span.End()

		var in domain.AccountInput
		if err := decodeBody(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		acc, err := svc.UpdateAccount(ctx, TenantIDFromContext(ctx), chi.URLParam(r, "id"), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, acc)
	}
}

func deleteAccountHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/accounts/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteAccount(ctx, TenantIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Conta excluída", ID: id})
	}
}

func registerPaymentHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts/{id}/payments")
		defer span.End()

		var req domain.PaymentRequest
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		acc, err := svc.RegisterPayment(ctx, TenantIDFromContext(ctx), chi.URLParam(r, "id"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, acc)
	}
}

func accountInterestHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts/{id}/interest")
		defer span.End()

		calc, err := svc.CalculateInterest(ctx, TenantIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, calc)
	}
}
