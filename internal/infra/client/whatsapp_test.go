package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/client"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/resilience"
)

func newClient(url string) *client.WhatsAppClient {
	return client.NewWhatsAppClient(&http.Client{Timeout: 2 * time.Second}, url, "secret",
		resilience.NewCircuitBreaker("whatsapp-test"),
		resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond})
}

func TestWhatsAppClient_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		var msg domain.OutboundMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.To != "5511999990000" {
			t.Errorf("unexpected recipient %q", msg.To)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"wamid.1","status":"queued"}`))
	}))
	defer srv.Close()

	receipt, err := newClient(srv.URL).Send(context.Background(), &domain.OutboundMessage{
		TenantID: "t1", To: "5511999990000", Content: "Olá", Type: domain.MessageText,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.ID != "wamid.1" {
		t.Errorf("expected gateway id wamid.1, got %q", receipt.ID)
	}
}

func TestWhatsAppClient_RejectionNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"invalid number"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Send(context.Background(), &domain.OutboundMessage{To: "x", Content: "oi"})
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestWhatsAppClient_ServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":"wamid.2","status":"queued"}`))
	}))
	defer srv.Close()

	receipt, err := newClient(srv.URL).Send(context.Background(), &domain.OutboundMessage{To: "x", Content: "oi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.ID != "wamid.2" || calls.Load() != 3 {
		t.Errorf("expected success on third attempt, got %q after %d calls", receipt.ID, calls.Load())
	}
}
