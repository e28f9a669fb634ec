package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	tenantIDKey contextKey = "tenantID"
	userIDKey   contextKey = "userID"
)

// JWTAuthMiddleware validates Bearer tokens and injects the tenant and user
// into the request context. When allowQuery is set the token may also come
// from ?access_token=, which browsers need for websocket upgrades.
func JWTAuthMiddleware(tokens *service.TokenService, allowQuery bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok && allowQuery {
				tokenString = r.URL.Query().Get("access_token")
				ok = tokenString != ""
			}
			if !ok {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "Token de autenticação não fornecido")
				return
			}

			claims, err := tokens.Validate(tokenString)
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), tenantIDKey, claims.TenantID)
			ctx = context.WithValue(ctx, userIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// TenantIDFromContext extracts the authenticated tenant ID from context.
func TenantIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(tenantIDKey).(string)
	return v
}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// ============================================================
// Webhook guards
// ============================================================

// WebhookSecretMiddleware rejects gateway calls without the shared secret.
// An empty secret disables the check (local development).
func WebhookSecretMiddleware(secret string, metrics *observability.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" {
				got := r.Header.Get("X-Webhook-Secret")
				if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
					metrics.IncrWebhookEvent("rejected")
					logger.Warn("webhook: bad secret", zap.String("remote_addr", r.RemoteAddr))
					writeError(w, http.StatusUnauthorized, "invalid webhook secret")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware applies one token bucket per tenant of the URL.
func RateLimitMiddleware(pool *resilience.LimiterPool, metrics *observability.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := chi.URLParam(r, "tenantId")
			if key == "" {
				key = r.RemoteAddr
			}
			if !pool.Allow(key) {
				metrics.IncrWebhookEvent("limited")
				logger.Warn("webhook: rate limited", zap.String("key", key))
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BulkheadMiddleware sheds load when every slot is busy instead of queueing.
func BulkheadMiddleware(b *resilience.Bulkhead, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !b.TryAcquire() {
				metrics.IncrWebhookEvent("shed")
				writeError(w, http.StatusServiceUnavailable, "server busy")
				return
			}
			defer b.Release()
			next.ServeHTTP(w, r)
		})
	}
}
