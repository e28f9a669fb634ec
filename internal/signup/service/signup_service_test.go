package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	maindomain "github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/cache"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	mainservice "github.com/boddenberg/pm-backoffice-bfa-go/internal/service"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/signup/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/signup/service"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type mockTenantStore struct {
	err     error
	created *maindomain.NewTenantAccount
	calls   atomic.Int32
}

func (m *mockTenantStore) CreateTenantAccount(_ context.Context, acc *maindomain.NewTenantAccount) (*maindomain.NewTenantAccount, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	m.created = acc
	return acc, nil
}

func newSignup(t *testing.T, store *mockTenantStore) *service.SignupService {
	t.Helper()
	sessions := cache.New[*domain.Session](time.Minute)
	t.Cleanup(sessions.Close)
	tokens := mainservice.NewTokenService("test-secret", time.Hour)
	return service.NewSignupService(sessions, store, tokens, service.DefaultSteps(), observability.NewMetrics(), zap.NewNop()).
		WithBcryptCost(bcrypt.MinCost)
}

func answer(t *testing.T, svc *service.SignupService, id string, answers map[string]any) (*domain.SessionResponse, error) {
	t.Helper()
	return svc.Answer(context.Background(), id, &domain.AnswerRequest{Answers: answers})
}

var (
	companyAnswers = map[string]any{"companyName": "Casa & Praia", "document": "12.345.678/0001-90", "email": " Contato@CasaPraia.com "}
	ownerAnswers   = map[string]any{"ownerName": "Ana Souza", "phone": "(11) 98888-7777"}
	accessAnswers  = map[string]any{"password": "segura123", "acceptTerms": true}
)

func TestSignup_FullJourney(t *testing.T) {
	store := &mockTenantStore{}
	svc := newSignup(t, store)

	start, err := svc.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if start.Step != 1 || start.TotalSteps != 3 || len(start.Fields) != 3 {
		t.Fatalf("unexpected first step %+v", start)
	}

	resp, err := answer(t, svc, start.SessionID, companyAnswers)
	if err != nil || resp.Step != 2 {
		t.Fatalf("step 1: resp=%+v err=%v", resp, err)
	}
	resp, err = answer(t, svc, start.SessionID, ownerAnswers)
	if err != nil || resp.Step != 3 {
		t.Fatalf("step 2: resp=%+v err=%v", resp, err)
	}
	resp, err = answer(t, svc, start.SessionID, accessAnswers)
	if err != nil {
		t.Fatalf("step 3: %v", err)
	}

	if resp.Status != domain.StatusCompleted || resp.Token == nil || resp.Token.AccessToken == "" {
		t.Fatalf("expected completed session with token, got %+v", resp)
	}
	if store.created == nil {
		t.Fatal("tenant account was not created")
	}
	if store.created.Tenant.Document != "12345678000190" {
		t.Errorf("document must be stored as digits, got %q", store.created.Tenant.Document)
	}
	if store.created.Tenant.Email != "contato@casapraia.com" {
		t.Errorf("email must be normalized, got %q", store.created.Tenant.Email)
	}
	if store.created.Owner.Phone != "11988887777" || store.created.Owner.Role != "owner" {
		t.Errorf("unexpected owner %+v", store.created.Owner)
	}
	if bcrypt.CompareHashAndPassword([]byte(store.created.Owner.PasswordHash), []byte("segura123")) != nil {
		t.Error("password hash does not match")
	}
	if resp.Token.TenantID != store.created.Tenant.ID {
		t.Errorf("token tenant %q != %q", resp.Token.TenantID, store.created.Tenant.ID)
	}
}

func TestSignup_FieldErrorsBlockAdvance(t *testing.T) {
	svc := newSignup(t, &mockTenantStore{})
	start, _ := svc.Start(context.Background())

	_, err := answer(t, svc, start.SessionID, map[string]any{"companyName": "X", "document": "123", "email": "nope"})
	var fe *maindomain.ErrFieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected ErrFieldErrors, got %v", err)
	}
	for _, f := range []string{"companyName", "document", "email"} {
		if fe.Fields[f] == "" {
			t.Errorf("expected error for %s", f)
		}
	}

	got, err := svc.Get(context.Background(), start.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Step != 1 {
		t.Errorf("session must stay on step 1, got %d", got.Step)
	}
}

func TestSignup_PasswordRules(t *testing.T) {
	svc := newSignup(t, &mockTenantStore{})
	start, _ := svc.Start(context.Background())
	answer(t, svc, start.SessionID, companyAnswers)
	answer(t, svc, start.SessionID, ownerAnswers)

	cases := []struct {
		name    string
		answers map[string]any
		field   string
	}{
		{"too short", map[string]any{"password": "ab1", "acceptTerms": true}, "password"},
		{"no digit", map[string]any{"password": "abcdefghij", "acceptTerms": true}, "password"},
		{"terms not accepted", map[string]any{"password": "segura123", "acceptTerms": false}, "acceptTerms"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := answer(t, svc, start.SessionID, tc.answers)
			var fe *maindomain.ErrFieldErrors
			if !errors.As(err, &fe) || fe.Fields[tc.field] == "" {
				t.Fatalf("expected field error on %s, got %v", tc.field, err)
			}
		})
	}
}

func TestSignup_DuplicateEmailIsFriendly(t *testing.T) {
	cases := []struct {
		name    string
		storeEr error
		want    string
	}{
		{"email", errors.New(`ERROR: duplicate key value violates unique constraint "users_email_key" (SQLSTATE 23505)`), "Este e-mail já está cadastrado"},
		{"document", &maindomain.ErrExternalService{Service: "supabase", Err: errors.New(`{"code":"23505","message":"tenants_document_key"}`)}, "Este CPF/CNPJ já está cadastrado"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newSignup(t, &mockTenantStore{err: tc.storeEr})
			start, _ := svc.Start(context.Background())
			answer(t, svc, start.SessionID, companyAnswers)
			answer(t, svc, start.SessionID, ownerAnswers)

			_, err := answer(t, svc, start.SessionID, accessAnswers)
			var conflict *maindomain.ErrConflict
			if !errors.As(err, &conflict) {
				t.Fatalf("expected ErrConflict, got %v", err)
			}
			if conflict.Message != tc.want {
				t.Errorf("message = %q, want %q", conflict.Message, tc.want)
			}
		})
	}
}

func TestSignup_UnknownSession(t *testing.T) {
	svc := newSignup(t, &mockTenantStore{})
	_, err := svc.Get(context.Background(), "missing")
	var nf *maindomain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSignup_CompletedSessionRejectsAnswers(t *testing.T) {
	svc := newSignup(t, &mockTenantStore{})
	start, _ := svc.Start(context.Background())
	answer(t, svc, start.SessionID, companyAnswers)
	answer(t, svc, start.SessionID, ownerAnswers)
	if _, err := answer(t, svc, start.SessionID, accessAnswers); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err := answer(t, svc, start.SessionID, accessAnswers)
	var conflict *maindomain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestSignup_ConcurrentFinalAnswersCreateOneTenant(t *testing.T) {
	store := &mockTenantStore{}
	svc := newSignup(t, store)
	start, _ := svc.Start(context.Background())
	if _, err := answer(t, svc, start.SessionID, companyAnswers); err != nil {
		t.Fatalf("step 1: %v", err)
	}
	if _, err := answer(t, svc, start.SessionID, ownerAnswers); err != nil {
		t.Fatalf("step 2: %v", err)
	}

	const n = 8
	var (
		wg        sync.WaitGroup
		completed atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Answer(context.Background(), start.SessionID, &domain.AnswerRequest{Answers: accessAnswers})
			var ce *maindomain.ErrConflict
			switch {
			case err == nil:
				completed.Add(1)
			case errors.As(err, &ce):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if store.calls.Load() != 1 || completed.Load() != 1 || conflicts.Load() != n-1 {
		t.Errorf("expected one tenant and %d conflicts, got calls=%d completed=%d conflicts=%d",
			n-1, store.calls.Load(), completed.Load(), conflicts.Load())
	}
}

func TestSignup_ConcurrentAnswersAdvanceOnce(t *testing.T) {
	svc := newSignup(t, &mockTenantStore{})
	start, _ := svc.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// step 1 answers are invalid for step 2, so only the first one advances
			_, _ = svc.Answer(context.Background(), start.SessionID, &domain.AnswerRequest{Answers: companyAnswers})
		}()
	}
	wg.Wait()

	got, err := svc.Get(context.Background(), start.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Step != 2 {
		t.Errorf("expected step 2, got %d", got.Step)
	}
}
