package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// CORS
	AllowedOrigins []string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration
	RedisURL string // empty = in-memory cache, inline reminders

	// Observability
	OTLPEndpoint string

	// Relational backend: "supabase" (PostgREST) or "postgres" (pgx)
	RelationalBackend  string
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	DatabaseURL        string

	// Document store (conversations, messages, transactions)
	MongoURI      string
	MongoDatabase string

	// WhatsApp gateway
	WhatsAppGatewayURL   string
	WhatsAppGatewayToken string
	WebhookSecret        string
	WebhookRPS           float64
	WebhookBurst         int

	// Billing reminders
	ReminderQueue       string
	ReminderConcurrency int
	SchedulerEnabled    bool

	// Signup
	SignupSessionTTL time.Duration

	// JWT / Auth
	JWTSecret    string
	JWTAccessTTL time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),
		RedisURL: getEnv("REDIS_URL", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		RelationalBackend:  getEnv("RELATIONAL_BACKEND", "supabase"),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "backoffice"),

		WhatsAppGatewayURL:   getEnv("WHATSAPP_GATEWAY_URL", "http://localhost:8090"),
		WhatsAppGatewayToken: getEnv("WHATSAPP_GATEWAY_TOKEN", ""),
		WebhookSecret:        getEnv("WEBHOOK_SECRET", ""),
		WebhookRPS:           getEnvFloat("WEBHOOK_RPS", 20),
		WebhookBurst:         getEnvInt("WEBHOOK_BURST", 40),

		ReminderQueue:       getEnv("REMINDER_QUEUE", "billing"),
		ReminderConcurrency: getEnvInt("REMINDER_CONCURRENCY", 5),
		SchedulerEnabled:    getEnv("SCHEDULER_ENABLED", "true") == "true",

		SignupSessionTTL: getEnvDuration("SIGNUP_SESSION_TTL", 30*time.Minute),

		JWTSecret:    getEnv("JWT_SECRET", "backoffice-default-dev-secret-change-me"),
		JWTAccessTTL: getEnvDuration("JWT_ACCESS_TTL", 12*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
