package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/handler"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/cache"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/client"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/realtime"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// In-memory document store (conversations + messages)
// ============================================================

type memDocs struct {
	mu            sync.Mutex
	conversations map[string]*domain.Conversation
	messages      map[string]*domain.Message
}

func newMemDocs() *memDocs {
	return &memDocs{conversations: map[string]*domain.Conversation{}, messages: map[string]*domain.Message{}}
}

func (m *memDocs) ListConversations(_ context.Context, tenantID string) ([]domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Conversation
	for _, c := range m.conversations {
		if c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memDocs) GetConversation(_ context.Context, tenantID, id string) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok || c.TenantID != tenantID {
		return nil, &domain.ErrNotFound{Resource: "conversation", ID: id}
	}
	cp := *c
	return &cp, nil
}

func (m *memDocs) FindConversationByPhone(_ context.Context, tenantID, phone string) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.conversations {
		if c.TenantID == tenantID && c.ClientPhone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "conversation", ID: phone}
}

func (m *memDocs) SaveConversation(_ context.Context, c *domain.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.conversations[c.ID] = &cp
	return nil
}

func (m *memDocs) PatchConversation(_ context.Context, tenantID, id string, p domain.ConversationPatch) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok || c.TenantID != tenantID {
		return nil, &domain.ErrNotFound{Resource: "conversation", ID: id}
	}
	if p.IsStarred != nil {
		c.IsStarred = *p.IsStarred
	}
	if p.UnreadCount != nil {
		c.UnreadCount = *p.UnreadCount
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	cp := *c
	return &cp, nil
}

func (m *memDocs) RecordActivity(_ context.Context, tenantID, id string, act domain.ConversationActivity) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok || c.TenantID != tenantID {
		return nil, &domain.ErrNotFound{Resource: "conversation", ID: id}
	}
	c.LastMessage = act.LastMessage
	c.LastMessageAt = act.LastMessageAt
	c.UpdatedAt = act.UpdatedAt
	c.UnreadCount += act.UnreadDelta
	if act.Reopen && (c.Status == domain.ConversationArchived || c.Status == domain.ConversationResolved) {
		c.Status = domain.ConversationActive
	}
	if act.Sentiment != "" {
		c.Sentiment = act.Sentiment
	}
	if act.AIConfidence != nil {
		c.AIConfidence = *act.AIConfidence
	}
	cp := *c
	return &cp, nil
}

func (m *memDocs) ToggleStar(_ context.Context, tenantID, id string) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok || c.TenantID != tenantID {
		return nil, &domain.ErrNotFound{Resource: "conversation", ID: id}
	}
	c.IsStarred = !c.IsStarred
	cp := *c
	return &cp, nil
}

func (m *memDocs) ListMessages(_ context.Context, tenantID, conversationID string, _ int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, msg := range m.messages {
		if msg.TenantID == tenantID && msg.ConversationID == conversationID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m *memDocs) ListMessagesSince(_ context.Context, _ string, _ time.Time) ([]domain.Message, error) {
	return nil, nil
}

func (m *memDocs) InsertMessage(_ context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	m.messages[msg.ID] = &cp
	return nil
}

func (m *memDocs) CommitMessage(_ context.Context, tenantID, id, gatewayID string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok || msg.TenantID != tenantID {
		return nil, &domain.ErrNotFound{Resource: "message", ID: id}
	}
	msg.Delivery = domain.DeliveryCommitted
	msg.Metadata.GatewayID = gatewayID
	cp := *msg
	return &cp, nil
}

func (m *memDocs) DeleteMessage(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.messages[id]; !ok || msg.TenantID != tenantID {
		return &domain.ErrNotFound{Resource: "message", ID: id}
	}
	delete(m.messages, id)
	return nil
}

func (m *memDocs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// ============================================================
// Full flow
// ============================================================

// TestIntegration_FullFlow spins up a fake PostgREST and a fake WhatsApp
// gateway and drives the back-office through the real router.
func TestIntegration_FullFlow(t *testing.T) {
	// --- Fake Supabase PostgREST ---
	postgrest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tenant_id") != "eq.tenant-1" {
			io.WriteString(w, `[]`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/rest/v1/reservations"):
			io.WriteString(w, `[
				{"id":"r1","tenant_id":"tenant-1","property_id":"p1","client_id":"c1","check_in":"2026-02-01","check_out":"2026-02-05","guests":2,"total_price":1200,"status":"confirmed","source":"whatsapp_ai"},
				{"id":"r2","tenant_id":"tenant-1","property_id":"p1","client_id":"ghost","check_in":"2026-02-10","check_out":"2026-02-08","guests":1,"total_price":300,"status":"pending"}
			]`)
		case strings.HasPrefix(r.URL.Path, "/rest/v1/properties"):
			io.WriteString(w, `[{"id":"p1","tenant_id":"tenant-1","name":"Chalé Serra","max_guests":4,"base_price":300}]`)
		case strings.HasPrefix(r.URL.Path, "/rest/v1/clients"):
			io.WriteString(w, `[{"id":"c1","tenant_id":"tenant-1","name":"João","phone":"5511999990000"}]`)
		default:
			io.WriteString(w, `[]`)
		}
	}))
	defer postgrest.Close()

	// --- Fake WhatsApp gateway: rejects the first message, accepts the rest ---
	var gatewayCalls atomic.Int32
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gatewayCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			io.WriteString(w, `{"error":"number not on whatsapp"}`)
			return
		}
		json.NewEncoder(w).Encode(domain.GatewayReceipt{ID: "wamid-1", Status: "queued"})
	}))
	defer gateway.Close()

	// --- Wiring ---
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	rc := resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond}

	sb := supabase.NewClient(http.DefaultClient, postgrest.URL, "anon", "service",
		resilience.NewCircuitBreaker("supabase-it"), rc, logger)
	wa := client.NewWhatsAppClient(http.DefaultClient, gateway.URL, "tok",
		resilience.NewCircuitBreaker("whatsapp-it"), rc)
	docs := newMemDocs()
	hub := realtime.NewHub(nil, metrics, logger)
	defer hub.CloseAll()

	refCache := cache.New[*service.References](time.Minute)
	defer refCache.Close()
	refs := service.NewReferenceLoader(sb, sb, refCache, metrics, logger)
	tokens := service.NewTokenService("it-secret", time.Hour)

	limiter := resilience.NewLimiterPool(100, 100, time.Minute)
	defer limiter.Stop()

	router := handler.NewRouter(&handler.Services{
		Reservations:  service.NewReservationService(sb, refs, metrics, logger),
		Conversations: service.NewConversationService(docs, docs, wa, hub, metrics, logger),
		Tokens:        tokens,
		Hub:           hub,
	}, handler.Options{
		WebhookSecret:   "hook",
		WebhookLimiter:  limiter,
		WebhookBulkhead: resilience.NewBulkhead(2),
	}, metrics, logger)

	srv := httptest.NewServer(router)
	defer srv.Close()

	tok, err := tokens.Issue(&domain.User{ID: "u1", TenantID: "tenant-1"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	call := func(method, path, body string, header map[string]string) *http.Response {
		t.Helper()
		req, _ := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
		for k, v := range header {
			req.Header.Set(k, v)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	// --- 1. Reservations list: enrichment + row issues ---
	resp := call(http.MethodGet, "/v1/reservations", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reservations: expected 200, got %d", resp.StatusCode)
	}
	var list struct {
		Data []struct {
			ID         string `json:"id"`
			ClientName string `json:"clientName"`
			Nights     int    `json:"nights"`
			DatesValid bool   `json:"datesValid"`
		} `json:"data"`
		Issues []domain.RowIssue `json:"issues"`
		Total  int               `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode reservations: %v", err)
	}
	if list.Total != 2 {
		t.Fatalf("expected 2 reservations, got %d", list.Total)
	}
	byID := map[string]int{}
	for i, row := range list.Data {
		byID[row.ID] = i
	}
	if r1 := list.Data[byID["r1"]]; r1.ClientName != "João" || r1.Nights != 4 || !r1.DatesValid {
		t.Errorf("r1 not enriched: %+v", r1)
	}
	if r2 := list.Data[byID["r2"]]; r2.DatesValid {
		t.Errorf("r2 has check-out before check-in and must be flagged: %+v", r2)
	}
	if len(list.Issues) == 0 {
		t.Error("expected row issues for the broken reservation")
	}

	// --- 2. Inbound webhook opens a conversation ---
	resp = call(http.MethodPost, "/v1/webhooks/whatsapp/tenant-1",
		`{"id":"in-1","from":"+55 11 98888-0000","name":"Paula","content":"Tem vaga no carnaval?"}`,
		map[string]string{"X-Webhook-Secret": "hook"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("webhook: expected 202, got %d", resp.StatusCode)
	}
	convs, _ := docs.ListConversations(context.Background(), "tenant-1")
	if len(convs) != 1 || convs[0].UnreadCount != 1 || convs[0].ClientPhone != "5511988880000" {
		t.Fatalf("unexpected conversations %+v", convs)
	}
	convID := convs[0].ID

	// --- 3. Outbound message rejected by the gateway is rolled back ---
	before := docs.count()
	resp = call(http.MethodPost, "/v1/conversations/"+convID+"/messages", `{"content":"Temos sim!"}`, nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("send (rejected): expected 502, got %d", resp.StatusCode)
	}
	if docs.count() != before {
		t.Fatalf("pending message must be rolled back: before=%d after=%d", before, docs.count())
	}

	// --- 4. Accepted message is committed ---
	resp = call(http.MethodPost, "/v1/conversations/"+convID+"/messages", `{"content":"Temos sim!"}`, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d", resp.StatusCode)
	}
	var sent domain.Message
	if err := json.NewDecoder(resp.Body).Decode(&sent); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if sent.Delivery != domain.DeliveryCommitted || sent.Metadata.GatewayID != "wamid-1" {
		t.Errorf("message not committed: %+v", sent)
	}
	if docs.count() != before+1 {
		t.Errorf("expected one more stored message, got %d", docs.count()-before)
	}

	// --- 5. Read + star persist ---
	call(http.MethodPost, "/v1/conversations/"+convID+"/read", "", nil)
	call(http.MethodPost, "/v1/conversations/"+convID+"/star", "", nil)
	conv, _ := docs.GetConversation(context.Background(), "tenant-1", convID)
	if conv.UnreadCount != 0 || !conv.IsStarred {
		t.Errorf("expected read and starred conversation, got %+v", conv)
	}

	// --- 6. Service metrics reflect the flow ---
	snap := metrics.GetServiceSnapshot()
	if snap.MessagesSent != 1 || snap.MessagesFailed != 1 || snap.WebhookEvents != 1 {
		t.Errorf("unexpected metrics snapshot %+v", snap)
	}
}
