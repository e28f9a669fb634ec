package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	"go.uber.org/zap"
)

func TestServiceSnapshot_Empty(t *testing.T) {
	m := observability.NewMetrics()
	snap := m.GetServiceSnapshot()

	if snap.TotalRequests != 0 || snap.ErrorRate != 0 || snap.CacheHitRate != 0 {
		t.Errorf("expected zeroed snapshot, got %+v", snap)
	}
}

func TestServiceSnapshot_Counts(t *testing.T) {
	m := observability.NewMetrics()
	m.IncrRequest("success")
	m.IncrRequest("success")
	m.IncrRequest("success")
	m.IncrRequest("error")
	m.IncrCacheHit("references")
	m.IncrCacheMiss("references")
	m.IncrMessage("sent")
	m.IncrMessage("failed")
	m.IncrReminder("enqueued")
	m.IncrReminder("enqueued")
	m.IncrWebhookEvent("accepted")
	m.IncrWebhookEvent("limited")

	snap := m.GetServiceSnapshot()
	if snap.TotalRequests != 4 {
		t.Errorf("expected 4 requests, got %d", snap.TotalRequests)
	}
	if snap.ErrorRate != 0.25 {
		t.Errorf("expected error rate 0.25, got %v", snap.ErrorRate)
	}
	if snap.CacheHitRate != 0.5 {
		t.Errorf("expected cache hit rate 0.5, got %v", snap.CacheHitRate)
	}
	if snap.MessagesSent != 1 || snap.MessagesFailed != 1 {
		t.Errorf("unexpected message counts %+v", snap)
	}
	if snap.RemindersEnqueued != 2 {
		t.Errorf("expected 2 reminders enqueued, got %d", snap.RemindersEnqueued)
	}
	if snap.WebhookEvents != 1 {
		t.Errorf("expected 1 accepted webhook, got %d", snap.WebhookEvents)
	}
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := observability.NewMetrics()
	b := observability.NewMetrics()
	a.IncrRequest("success")

	if b.GetServiceSnapshot().TotalRequests != 0 {
		t.Error("registries must not share counters")
	}
}

func TestZapLoggerMiddleware_PassesThrough(t *testing.T) {
	h := observability.ZapLoggerMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reservations", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("expected 418, got %d", rec.Code)
	}
}

func TestInitTracer_NoEndpoint(t *testing.T) {
	shutdown, err := observability.InitTracer("", "test")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}
