package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/config"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/handler"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/cache"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/client"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/mongo"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/postgres"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/queue"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/realtime"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/port"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/service"
	signupdomain "github.com/boddenberg/pm-backoffice-bfa-go/internal/signup/domain"
	signupservice "github.com/boddenberg/pm-backoffice-bfa-go/internal/signup/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// relationalStore is what both the Supabase and the pgx backends provide.
type relationalStore interface {
	port.ReservationStore
	port.PropertyStore
	port.ClientStore
	port.VisitStore
	port.AccountStore
	port.BillingStore
	port.TenantStore
	port.Pinger
}

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("relational_backend", cfg.RelationalBackend),
		zap.String("mongo_database", cfg.MongoDatabase),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Bool("scheduler", cfg.SchedulerEnabled),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "pm-backoffice-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	pingers := map[string]port.Pinger{}

	// --- Relational store ---
	var relational relationalStore
	switch cfg.RelationalBackend {
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL, int32(cfg.MaxConcurrency))
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()
		relational = postgres.NewStore(pool, logger)
		pingers["postgres"] = relational
		logger.Info("using postgres (pgx) as relational backend")
	default:
		if cfg.SupabaseURL == "" {
			logger.Fatal("SUPABASE_URL is required when RELATIONAL_BACKEND=supabase")
		}
		relational = supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase"),
			resilienceCfg,
			logger,
		)
		pingers["supabase"] = relational
		logger.Info("using Supabase as relational backend", zap.String("supabase_url", cfg.SupabaseURL))
	}

	// --- Document store ---
	docs, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		logger.Fatal("failed to connect to mongo", zap.Error(err))
	}
	defer docs.Close(context.Background())
	if err := docs.EnsureIndexes(ctx); err != nil {
		logger.Warn("mongo: ensure indexes failed", zap.Error(err))
	}
	pingers["mongo"] = docs

	// --- Cache ---
	var (
		refCache     port.Cache[*service.References]
		sessionCache port.Cache[*signupdomain.Session]
		redisClient  *redis.Client
	)
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		refCache = cache.NewRedis[*service.References](redisClient, "backoffice:refs", cfg.CacheTTL, logger)
		sessions := cache.NewRedis[*signupdomain.Session](redisClient, "backoffice:signup", cfg.SignupSessionTTL, logger)
		sessionCache = sessions
		pingers["redis"] = sessions
	} else {
		mem := cache.New[*service.References](cfg.CacheTTL)
		defer mem.Close()
		memSessions := cache.New[*signupdomain.Session](cfg.SignupSessionTTL)
		defer memSessions.Close()
		refCache, sessionCache = mem, memSessions
		logger.Warn("REDIS_URL not set: in-memory cache, reminders delivered inline")
	}

	// --- WhatsApp gateway & inbox hub ---
	gateway := client.NewWhatsAppClient(
		httpClient,
		cfg.WhatsAppGatewayURL,
		cfg.WhatsAppGatewayToken,
		resilience.NewCircuitBreaker("whatsapp"),
		resilienceCfg,
	)
	pingers["whatsapp"] = gateway
	hub := realtime.NewHub(cfg.AllowedOrigins, metrics, logger)
	defer hub.CloseAll()

	// --- Services ---
	refs := service.NewReferenceLoader(relational, relational, refCache, metrics, logger)
	accounts := service.NewAccountService(relational, docs, metrics, logger)
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTAccessTTL)

	var reminderQueue port.ReminderQueue
	if cfg.RedisURL != "" {
		qc, err := queue.NewClient(cfg.RedisURL, cfg.ReminderQueue, logger)
		if err != nil {
			logger.Fatal("failed to create reminder queue client", zap.Error(err))
		}
		defer qc.Close()
		reminderQueue = qc
	}
	billing := service.NewBillingService(relational, relational, refs, reminderQueue, gateway, metrics, logger)

	svcs := &handler.Services{
		Reservations:  service.NewReservationService(relational, refs, metrics, logger),
		Catalog:       service.NewCatalogService(relational, relational, refs, metrics, logger),
		Visits:        service.NewVisitService(relational, refs, metrics, logger),
		Accounts:      accounts,
		Transactions:  service.NewTransactionService(docs, metrics, logger),
		Conversations: service.NewConversationService(docs, docs, gateway, hub, metrics, logger),
		Billing:       billing,
		Analytics:     service.NewAnalyticsService(docs, docs, relational, relational, relational, docs, metrics, logger),
		Tokens:        tokens,
		Signup: signupservice.NewSignupService(sessionCache, relational, tokens,
			signupservice.DefaultSteps(), metrics, logger),
		Hub: hub,
	}

	// --- Background workers ---
	if cfg.RedisURL != "" {
		worker, err := queue.NewServer(cfg.RedisURL, cfg.ReminderQueue, cfg.ReminderConcurrency, logger)
		if err != nil {
			logger.Fatal("failed to create reminder worker", zap.Error(err))
		}
		worker.HandleReminders(billing.DeliverReminder)
		go func() {
			if err := worker.Run(ctx); err != nil {
				logger.Error("reminder worker stopped", zap.Error(err))
			}
		}()
	}
	if cfg.SchedulerEnabled {
		scheduler := service.NewReminderScheduler(relational, billing, accounts, logger)
		go scheduler.Run(ctx)
	}

	// --- Router ---
	limiter := resilience.NewLimiterPool(cfg.WebhookRPS, cfg.WebhookBurst, 10*time.Minute)
	defer limiter.Stop()

	router := handler.NewRouter(svcs, handler.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		WebhookSecret:   cfg.WebhookSecret,
		WebhookLimiter:  limiter,
		WebhookBulkhead: resilience.NewBulkhead(cfg.MaxConcurrency),
		Pingers:         pingers,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
