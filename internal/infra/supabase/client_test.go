package supabase_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/supabase"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *supabase.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return supabase.NewClient(
		srv.Client(),
		srv.URL,
		"anon",
		"service",
		resilience.NewCircuitBreaker(t.Name()),
		resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond},
		zap.NewNop(),
	)
}

func TestListReservations_MapsRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/rest/v1/reservations") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("tenant_id"); got != "eq.t1" {
			t.Errorf("expected tenant filter, got %q", got)
		}
		if r.Header.Get("apikey") != "anon" {
			t.Error("missing apikey header")
		}
		io.WriteString(w, `[{"id":"r1","tenant_id":"t1","property_id":"p1","client_id":"c1",
			"check_in":"2024-01-05","check_out":"2024-01-10","guests":2,"total_price":1000.5,
			"status":"confirmed","payment_status":null,"source":"whatsapp_ai","created_at":{"_seconds":1704067200,"_nanoseconds":0}}]`)
	})

	got, err := c.ListReservations(context.Background(), "t1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 reservation, got %d", len(got))
	}
	r := got[0]
	if r.Status != domain.ReservationConfirmed || r.Source != domain.SourceWhatsAppAI {
		t.Errorf("unexpected enums %+v", r)
	}
	if r.PaymentStatus != domain.PaymentPending {
		t.Errorf("missing payment status should default to pending, got %q", r.PaymentStatus)
	}
	if !r.TotalPrice.Equal(decimal.RequireFromString("1000.5")) {
		t.Errorf("unexpected price %s", r.TotalPrice)
	}
	if r.CreatedAt.Kind != domain.TimestampServer {
		t.Errorf("expected server timestamp, got %s", r.CreatedAt.Kind)
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	_, err := c.GetAccount(context.Background(), "t1", "missing")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClientErrors_AreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"code":"23505","message":"duplicate key value violates unique constraint \"users_email_key\"","details":"Key (email)=(a@b.com) already exists."}`)
	})

	_, err := c.CreateTenantAccount(context.Background(), &domain.NewTenantAccount{
		Tenant: domain.Tenant{ID: "t1", Email: "a@b.com"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("4xx must not be retried, got %d calls", calls.Load())
	}

	var apiErr *supabase.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError in chain, got %T", err)
	}
	if apiErr.Code != "23505" || !strings.Contains(err.Error(), "email") {
		t.Errorf("expected unique violation on email, got %v", err)
	}
}

func TestServerErrors_AreRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `[]`)
	})

	got, err := c.ListVisits(context.Background(), "t1")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if len(got) != 0 || calls.Load() != 3 {
		t.Errorf("expected 3 calls and no visits, got %d calls", calls.Load())
	}
}

func TestMarkOverdue_FiltersPendingBeforeDay(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		q := r.URL.Query()
		if q.Get("status") != "eq.PENDING" || q.Get("due_date") != "lt.2024-03-10" {
			t.Errorf("unexpected filters %v", q)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"OVERDUE"`) {
			t.Errorf("expected OVERDUE in body, got %s", body)
		}
		io.WriteString(w, `[{"id":"a1","status":"OVERDUE"},{"id":"a2","status":"OVERDUE"}]`)
	})

	n, err := c.MarkOverdue(context.Background(), "t1", time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 accounts flagged, got %d", n)
	}
}

func TestGetBillingSettings_MissingRowIsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	_, err := c.GetBillingSettings(context.Background(), "t1")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
