package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/handler"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/cache"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/port"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/service"
	signupdomain "github.com/boddenberg/pm-backoffice-bfa-go/internal/signup/domain"
	signupservice "github.com/boddenberg/pm-backoffice-bfa-go/internal/signup/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ============================================================
// Mocks
// ============================================================

type mockReservationStore struct {
	rows       []domain.Reservation
	lastTenant string
}

func (m *mockReservationStore) ListReservations(_ context.Context, tenantID string) ([]domain.Reservation, error) {
	m.lastTenant = tenantID
	return m.rows, nil
}

func (m *mockReservationStore) GetReservation(_ context.Context, tenantID, id string) (*domain.Reservation, error) {
	for _, r := range m.rows {
		if r.ID == id && r.TenantID == tenantID {
			return &r, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "reservation", ID: id}
}

func (m *mockReservationStore) CreateReservation(_ context.Context, r *domain.Reservation) (*domain.Reservation, error) {
	return r, nil
}

func (m *mockReservationStore) UpdateReservation(_ context.Context, r *domain.Reservation) (*domain.Reservation, error) {
	return r, nil
}

func (m *mockReservationStore) DeleteReservation(_ context.Context, _, _ string) error { return nil }

type mockCatalog struct{}

func (mockCatalog) ListProperties(_ context.Context, tenantID string) ([]domain.Property, error) {
	return []domain.Property{{ID: "p1", TenantID: tenantID, Name: "Casa da Praia"}}, nil
}

func (mockCatalog) CreateProperty(_ context.Context, p *domain.Property) (*domain.Property, error) {
	return p, nil
}

func (mockCatalog) ListClients(_ context.Context, tenantID string) ([]domain.Client, error) {
	return []domain.Client{{ID: "c1", TenantID: tenantID, Name: "Maria"}}, nil
}

func (mockCatalog) CreateClient(_ context.Context, c *domain.Client) (*domain.Client, error) {
	return c, nil
}

type mockTenantStore struct{}

func (mockTenantStore) CreateTenantAccount(_ context.Context, acc *domain.NewTenantAccount) (*domain.NewTenantAccount, error) {
	return acc, nil
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// ============================================================
// Fixture
// ============================================================

type fixture struct {
	router       http.Handler
	tokens       *service.TokenService
	reservations *mockReservationStore
}

func newFixture(t *testing.T, opts handler.Options) *fixture {
	t.Helper()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()

	checkIn := time.Date(2026, 1, 10, 14, 0, 0, 0, time.UTC)
	store := &mockReservationStore{rows: []domain.Reservation{{
		ID:         "r1",
		TenantID:   "tenant-1",
		PropertyID: "p1",
		ClientID:   "c1",
		CheckIn:    domain.NativeTimestamp(checkIn),
		CheckOut:   domain.NativeTimestamp(checkIn.AddDate(0, 0, 3)),
		Guests:     2,
		TotalPrice: decimal.NewFromInt(900),
		Status:     domain.ReservationConfirmed,
	}}}

	refCache := cache.New[*service.References](time.Minute)
	sessions := cache.New[*signupdomain.Session](time.Minute)
	t.Cleanup(refCache.Close)
	t.Cleanup(sessions.Close)

	refs := service.NewReferenceLoader(mockCatalog{}, mockCatalog{}, refCache, metrics, logger)
	tokens := service.NewTokenService("test-secret", time.Hour)

	if opts.WebhookLimiter == nil {
		opts.WebhookLimiter = resilience.NewLimiterPool(100, 100, time.Minute)
		t.Cleanup(opts.WebhookLimiter.Stop)
	}
	if opts.WebhookBulkhead == nil {
		opts.WebhookBulkhead = resilience.NewBulkhead(4)
	}

	svcs := &handler.Services{
		Reservations: service.NewReservationService(store, refs, metrics, logger),
		Catalog:      service.NewCatalogService(mockCatalog{}, mockCatalog{}, refs, metrics, logger),
		Tokens:       tokens,
		Signup: signupservice.NewSignupService(sessions, mockTenantStore{}, tokens,
			signupservice.DefaultSteps(), metrics, logger),
	}
	return &fixture{
		router:       handler.NewRouter(svcs, opts, metrics, logger),
		tokens:       tokens,
		reservations: store,
	}
}

func (f *fixture) do(t *testing.T, method, path, body, tenantID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if tenantID != "" {
		tok, err := f.tokens.Issue(&domain.User{ID: "u1", TenantID: tenantID})
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// ============================================================
// Operational endpoints
// ============================================================

func TestHealthz(t *testing.T) {
	f := newFixture(t, handler.Options{})
	rec := f.do(t, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	f := newFixture(t, handler.Options{Pingers: map[string]port.Pinger{
		"mongo": pingerFunc(func(context.Context) error { return nil }),
	}})
	rec := f.do(t, http.MethodGet, "/readyz", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz_BackendDown(t *testing.T) {
	f := newFixture(t, handler.Options{Pingers: map[string]port.Pinger{
		"postgres": pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	}})
	rec := f.do(t, http.MethodGet, "/readyz", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var status domain.HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "degraded" || len(status.Services) != 2 {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestMetrics(t *testing.T) {
	f := newFixture(t, handler.Options{})
	for _, path := range []string{"/metrics", "/v1/metrics/service", "/ping"} {
		if rec := f.do(t, http.MethodGet, path, "", ""); rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

// ============================================================
// Auth & tenant scoping
// ============================================================

func TestProtectedRoute_RequiresToken(t *testing.T) {
	f := newFixture(t, handler.Options{})
	rec := f.do(t, http.MethodGet, "/v1/reservations", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/reservations", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad token, got %d", rec.Code)
	}
}

func TestListReservations_TenantFromToken(t *testing.T) {
	f := newFixture(t, handler.Options{})
	rec := f.do(t, http.MethodGet, "/v1/reservations?status=confirmed", "", "tenant-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.reservations.lastTenant != "tenant-1" {
		t.Errorf("store called with tenant %q", f.reservations.lastTenant)
	}

	var resp struct {
		Data []struct {
			ID           string `json:"id"`
			ClientName   string `json:"clientName"`
			PropertyName string `json:"propertyName"`
			Nights       int    `json:"nights"`
		} `json:"data"`
		Total int `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Fatalf("expected one row, got %+v", resp)
	}
	row := resp.Data[0]
	if row.ClientName != "Maria" || row.PropertyName != "Casa da Praia" || row.Nights != 3 {
		t.Errorf("row not enriched: %+v", row)
	}
}

func TestListReservations_BadDate(t *testing.T) {
	f := newFixture(t, handler.Options{})
	rec := f.do(t, http.MethodGet, "/v1/reservations?from=ontem", "", "tenant-1")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListReservations_PageBeyondRange(t *testing.T) {
	f := newFixture(t, handler.Options{})
	rec := f.do(t, http.MethodGet, "/v1/reservations?page=184467440737095516&page_size=100", "", "tenant-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data    []json.RawMessage `json:"data"`
		HasMore bool              `json:"has_more"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 0 || resp.HasMore {
		t.Errorf("expected an empty page, got %+v", resp)
	}
}

func TestGetReservation_OtherTenantIsNotFound(t *testing.T) {
	f := newFixture(t, handler.Options{})
	rec := f.do(t, http.MethodGet, "/v1/reservations/r1", "", "tenant-2")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCreateProperty_FieldErrors(t *testing.T) {
	f := newFixture(t, handler.Options{})
	rec := f.do(t, http.MethodPost, "/v1/properties", `{"name":""}`, "tenant-1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Fields["name"] == "" {
		t.Errorf("expected a field error for name, got %v", body.Fields)
	}
}

// ============================================================
// Webhook guards
// ============================================================

func TestWebhook_RejectsBadSecret(t *testing.T) {
	f := newFixture(t, handler.Options{WebhookSecret: "s3cret"})
	rec := f.do(t, http.MethodPost, "/v1/webhooks/whatsapp/tenant-1", `{}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestWebhook_RateLimitedPerTenant(t *testing.T) {
	limiter := resilience.NewLimiterPool(0.001, 1, time.Minute)
	defer limiter.Stop()
	f := newFixture(t, handler.Options{WebhookLimiter: limiter})

	// The first call spends the only token; the malformed body stops it
	// before reaching the service.
	if rec := f.do(t, http.MethodPost, "/v1/webhooks/whatsapp/tenant-1", `not json`, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/v1/webhooks/whatsapp/tenant-1", `not json`, ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/v1/webhooks/whatsapp/tenant-2", `not json`, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("other tenants keep their own bucket, got %d", rec.Code)
	}
}

// ============================================================
// Signup (public)
// ============================================================

func TestSignup_StartIsPublic(t *testing.T) {
	f := newFixture(t, handler.Options{})
	rec := f.do(t, http.MethodPost, "/v1/signup/sessions", "", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp signupdomain.SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID == "" || resp.Step != 1 {
		t.Fatalf("unexpected session %+v", resp)
	}

	rec = f.do(t, http.MethodPost, "/v1/signup/sessions/"+resp.SessionID+"/answers",
		`{"answers":{"companyName":"A","document":"1","email":"x"}}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 with field errors, got %d", rec.Code)
	}
}
