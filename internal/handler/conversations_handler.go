package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/realtime"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/listview"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Conversas WhatsApp — /v1/conversations
// ============================================================

func listConversationsHandler(svc *service.ConversationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/conversations")
		defer span.End()

		q := r.URL.Query()
		f := listview.ConversationFilter{
			Search:   strings.TrimSpace(q.Get("search")),
			Status:   q.Get("status"),
			Priority: q.Get("priority"),
			Starred:  queryBool(r, "starred"),
			Unread:   queryBool(r, "unread"),
		}
		resp, err := svc.ListConversations(ctx, TenantIDFromContext(ctx), f, parsePagination(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getConversationHandler(svc *service.ConversationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/conversations/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("conversation.id", id))

		detail, err := svc.GetConversation(ctx, TenantIDFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func listMessagesHandler(svc *service.ConversationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/conversations/{id}/messages")
		defer span.End()

		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 500 {
				limit = l
			}
		}
		msgs, err := svc.ListMessages(ctx, TenantIDFromContext(ctx), chi.URLParam(r, "id"), limit)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": msgs, "total": len(msgs)})
	}
}

// sendMessageHandler answers 201 with the committed message. When the
// gateway fails the pending message is already rolled back and the
// mapped error is returned.
func sendMessageHandler(svc *service.ConversationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/conversations/{id}/messages")
		defer span.End()

		var req domain.SendMessageRequest
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		msg, err := svc.SendMessage(ctx, TenantIDFromContext(ctx), chi.URLParam(r, "id"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

func toggleStarHandler(svc *service.ConversationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/conversations/{id}/star")
		defer span.End()

		conv, err := svc.ToggleStar(ctx, TenantIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

func markReadHandler(svc *service.ConversationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/conversations/{id}/read")
		defer span.End()

		conv, err := svc.MarkRead(ctx, TenantIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

func archiveHandler(svc *service.ConversationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/conversations/{id}/archive")
		defer span.End()

		conv, err := svc.Archive(ctx, TenantIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

// ============================================================
// Inbox em tempo real — GET /v1/inbox/ws
// ============================================================

func inboxSocketHandler(hub *realtime.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, TenantIDFromContext(r.Context()))
	}
}

// ============================================================
// Webhook — POST /v1/webhooks/whatsapp/{tenantId}
// ============================================================

func whatsappWebhookHandler(svc *service.ConversationService, metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/webhooks/whatsapp/{tenantId}")
		defer span.End()

		tenantID := chi.URLParam(r, "tenantId")
		span.SetAttributes(attribute.String("tenant.id", tenantID))

		var in domain.InboundMessage
		if err := decodeBody(r, &in); err != nil {
			metrics.IncrWebhookEvent("invalid")
			handleServiceError(w, err, logger)
			return
		}
		if in.From == "" {
			metrics.IncrWebhookEvent("invalid")
			writeError(w, http.StatusBadRequest, "from is required")
			return
		}

		msg, err := svc.IngestInbound(ctx, tenantID, &in)
		if err != nil {
			metrics.IncrWebhookEvent("failed")
			handleServiceError(w, err, logger)
			return
		}
		metrics.IncrWebhookEvent("accepted")
		writeJSON(w, http.StatusAccepted, domain.SuccessResponse{Message: "received", ID: msg.ID})
	}
}
