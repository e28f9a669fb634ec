// Package handler — signup_handler.go expõe o wizard de cadastro:
//
//	POST /v1/signup/sessions                → abre a sessão (etapa 1)
//	POST /v1/signup/sessions/{id}/answers   → envia as respostas da etapa
//	GET  /v1/signup/sessions/{id}           → estado atual da sessão
//
// As rotas são públicas: quem está se cadastrando ainda não tem token.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	maindomain "github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/signup/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/signup/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// tracer é o tracer OpenTelemetry para o módulo signup/handler.
var tracer = otel.Tracer("signup/handler")

// StartSessionHandler — POST /v1/signup/sessions
func StartSessionHandler(svc *service.SignupService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/signup/sessions")
		defer span.End()

		resp, err := svc.Start(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// GetSessionHandler — GET /v1/signup/sessions/{id}
func GetSessionHandler(svc *service.SignupService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/signup/sessions/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("signup.session_id", id))

		resp, err := svc.Get(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// AnswerHandler — POST /v1/signup/sessions/{id}/answers
//
// Request:
//
//	{"answers": {"companyName": "Casa & Praia", "document": "12.345.678/0001-90", "email": "x@y.com"}}
//
// Erro de validação (400):
//
//	{"error": "...", "fields": {"email": "E-mail inválido"}}
func AnswerHandler(svc *service.SignupService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/signup/sessions/{id}/answers")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("signup.session_id", id))

		var req domain.AnswerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"answers\": {...}}")
			return
		}

		resp, err := svc.Answer(ctx, id, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// Helpers
// ============================================================

type fieldErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleServiceError mapeia erros de domínio para HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var fields *maindomain.ErrFieldErrors
	var notFound *maindomain.ErrNotFound
	var conflict *maindomain.ErrConflict
	var external *maindomain.ErrExternalService
	var circuitOpen *maindomain.ErrCircuitOpen

	switch {
	case errors.As(err, &fields):
		writeJSON(w, http.StatusBadRequest, fieldErrorResponse{Error: "Verifique os campos destacados", Fields: fields.Fields})
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, "Sessão de cadastro não encontrada ou expirada")
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Message)
	case errors.As(err, &circuitOpen):
		logger.Error("signup: circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &external):
		logger.Error("signup: external service error", zap.String("service", external.Service), zap.Error(err))
		writeError(w, http.StatusBadGateway, "external service unavailable: "+external.Service)
	default:
		logger.Error("unexpected error in signup handler", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
