package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/realtime"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/port"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/service"
	signuphandler "github.com/boddenberg/pm-backoffice-bfa-go/internal/signup/handler"
	signupservice "github.com/boddenberg/pm-backoffice-bfa-go/internal/signup/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services groups the use cases exposed over HTTP.
type Services struct {
	Reservations  *service.ReservationService
	Catalog       *service.CatalogService
	Visits        *service.VisitService
	Accounts      *service.AccountService
	Transactions  *service.TransactionService
	Conversations *service.ConversationService
	Billing       *service.BillingService
	Analytics     *service.AnalyticsService
	Tokens        *service.TokenService
	Signup        *signupservice.SignupService
	Hub           *realtime.Hub
}

// Options carries the HTTP-level knobs of the router.
type Options struct {
	AllowedOrigins  []string
	WebhookSecret   string
	WebhookLimiter  *resilience.LimiterPool
	WebhookBulkhead *resilience.Bulkhead
	// Pingers are probed by /readyz, keyed by backend name.
	Pingers map[string]port.Pinger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc *Services, opts Options, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(opts.Pingers))
	r.Get("/readyz", readyzHandler(opts.Pingers, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/service", serviceMetricsHandler(metrics))

		// =============================================
		// Cadastro (público)
		// =============================================
		r.Post("/signup/sessions", signuphandler.StartSessionHandler(svc.Signup, logger))
		r.Get("/signup/sessions/{id}", signuphandler.GetSessionHandler(svc.Signup, logger))
		r.Post("/signup/sessions/{id}/answers", signuphandler.AnswerHandler(svc.Signup, logger))

		// =============================================
		// Webhook do gateway WhatsApp (segredo compartilhado)
		// =============================================
		r.With(
			WebhookSecretMiddleware(opts.WebhookSecret, metrics, logger),
			RateLimitMiddleware(opts.WebhookLimiter, metrics, logger),
			BulkheadMiddleware(opts.WebhookBulkhead, metrics),
		).Post("/webhooks/whatsapp/{tenantId}", whatsappWebhookHandler(svc.Conversations, metrics, logger))

		// =============================================
		// Inbox em tempo real (token via query string)
		// =============================================
		r.With(JWTAuthMiddleware(svc.Tokens, true, logger)).
			Get("/inbox/ws", inboxSocketHandler(svc.Hub))

		// =============================================
		// Back-office (tenant do JWT)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svc.Tokens, false, logger))

			// Reservas
			r.Get("/reservations", listReservationsHandler(svc.Reservations, logger))
			r.Post("/reservations", createReservationHandler(svc.Reservations, logger))
			r.Get("/reservations/{id}", getReservationHandler(svc.Reservations, logger))
			r.Put("/reservations/{id}", updateReservationHandler(svc.Reservations, logger))
			r.Delete("/reservations/{id}", deleteReservationHandler(svc.Reservations, logger))

			// Imóveis, clientes e visitas
			r.Get("/properties", listPropertiesHandler(svc.Catalog, logger))
			r.Post("/properties", createPropertyHandler(svc.Catalog, logger))
			r.Get("/clients", listClientsHandler(svc.Catalog, logger))
			r.Post("/clients", createClientHandler(svc.Catalog, logger))
			r.Get("/visits", listVisitsHandler(svc.Visits, logger))

			// Contas a pagar / receber
			r.Get("/accounts", listAccountsHandler(svc.Accounts, logger))
			r.Post("/accounts", createAccountHandler(svc.Accounts, logger))
			r.Get("/accounts/{id}", getAccountHandler(svc.Accounts, logger))
			r.Put("/accounts/{id}", updateAccountHandler(svc.Accounts, logger))
			r.Delete("/accounts/{id}", deleteAccountHandler(svc.Accounts, logger))
			r.Post("/accounts/{id}/payments", registerPaymentHandler(svc.Accounts, logger))
			r.Get("/accounts/{id}/interest", accountInterestHandler(svc.Accounts, logger))

			// Transações financeiras
			r.Get("/transactions", listTransactionsHandler(svc.Transactions, logger))
			r.Post("/transactions", createTransactionHandler(svc.Transactions, logger))
			r.Put("/transactions/{id}", updateTransactionHandler(svc.Transactions, logger))
			r.Delete("/transactions/{id}", deleteTransactionHandler(svc.Transactions, logger))

			// Conversas WhatsApp
			r.Get("/conversations", listConversationsHandler(svc.Conversations, logger))
			r.Get("/conversations/{id}", getConversationHandler(svc.Conversations, logger))
			r.Get("/conversations/{id}/messages", listMessagesHandler(svc.Conversations, logger))
			r.Post("/conversations/{id}/messages", sendMessageHandler(svc.Conversations, logger))
			r.Post("/conversations/{id}/star", toggleStarHandler(svc.Conversations, logger))
			r.Post("/conversations/{id}/read", markReadHandler(svc.Conversations, logger))
			r.Post("/conversations/{id}/archive", archiveHandler(svc.Conversations, logger))

			// Cobrança
			r.Get("/billing/settings", getBillingSettingsHandler(svc.Billing, logger))
			r.Put("/billing/settings", saveBillingSettingsHandler(svc.Billing, logger))
			r.Post("/billing/reminders", runRemindersHandler(svc.Billing, logger))

			// Métricas e dashboards
			r.Get("/metrics/analytics", conversionAnalyticsHandler(svc.Analytics, logger))
			r.Get("/dashboard/financial", financialDashboardHandler(svc.Analytics, logger))
		})
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

func probe(ctx context.Context, pingers map[string]port.Pinger) *domain.HealthStatus {
	names := make([]string, 0, len(pingers))
	for name := range pingers {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now().Format(time.RFC3339)
	status := &domain.HealthStatus{
		Status:   "healthy",
		Services: []domain.ServiceHealth{{Name: "bfa-api", Status: "healthy", LastChecked: now}},
	}
	for _, name := range names {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		start := time.Now()
		err := pingers[name].Ping(pctx)
		cancel()

		sh := domain.ServiceHealth{
			Name:        name,
			Status:      "healthy",
			LatencyMs:   time.Since(start).Milliseconds(),
			LastChecked: now,
		}
		if err != nil {
			sh.Status = "unhealthy"
			sh.Error = err.Error()
			status.Status = "degraded"
		}
		status.Services = append(status.Services, sh)
	}
	return status
}

// healthzHandler reports dependency health but always answers 200: the
// process is alive even when a backend is not.
func healthzHandler(pingers map[string]port.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, probe(r.Context(), pingers))
	}
}

func readyzHandler(pingers map[string]port.Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := probe(r.Context(), pingers)
		if status.Status != "healthy" {
			logger.Warn("readiness probe failed", zap.Any("services", status.Services))
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

func serviceMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetServiceSnapshot())
	}
}
