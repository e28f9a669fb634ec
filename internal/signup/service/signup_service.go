// Package service — signup_service.go implementa o SignupService.
//
// ============================================================
// ARQUITETURA — Strategy por etapa + sessão em cache
// ============================================================
//
// Fluxo completo:
//  1. Start() cria a sessão na etapa 1 e guarda no cache (TTL)
//  2. Answer() valida as respostas com a strategy da etapa atual
//  3. Erros de campo bloqueiam o avanço (domain.ErrFieldErrors)
//  4. Etapa válida → dados entram na sessão e a etapa avança
//  5. Etapa 3 válida → cria tenant + dono no TenantStore e emite o token
//
// Answer serializa por sessão e trabalha sobre uma cópia: respostas
// simultâneas na mesma sessão não avançam duas vezes nem criam dois tenants.
//
// Erros do banco (chave duplicada 23505) viram mensagens amigáveis.
package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"

	maindomain "github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	mainport "github.com/boddenberg/pm-backoffice-bfa-go/internal/port"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/signup/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/signup/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// signupTracer é o tracer OpenTelemetry do módulo de cadastro.
var signupTracer = otel.Tracer("signup/service")

const (
	msgDuplicateEmail    = "Este e-mail já está cadastrado"
	msgDuplicateDocument = "Este CPF/CNPJ já está cadastrado"
	msgAlreadyCompleted  = "Cadastro já concluído"
)

// SignupService conduz a jornada de cadastro.
type SignupService struct {
	sessions port.SessionStore
	tenants  mainport.TenantStore
	tokens   port.TokenIssuer
	steps    []StepStrategy
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
	cost     int
	locks    sessionLocks
}

// NewSignupService cria o SignupService. A ordem de steps é a ordem da jornada.
func NewSignupService(
	sessions port.SessionStore,
	tenants mainport.TenantStore,
	tokens port.TokenIssuer,
	steps []StepStrategy,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *SignupService {
	return &SignupService{
		sessions: sessions,
		tenants:  tenants,
		tokens:   tokens,
		steps:    steps,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
	}
}

// WithBcryptCost troca o custo do hash (testes usam bcrypt.MinCost).
func (s *SignupService) WithBcryptCost(cost int) *SignupService {
	s.cost = cost
	return s
}

func sessionKey(id string) string {
	return "signup:" + id
}

// Start abre uma nova sessão na primeira etapa.
func (s *SignupService) Start(ctx context.Context) (*domain.SessionResponse, error) {
	ctx, span := signupTracer.Start(ctx, "SignupService.Start")
	defer span.End()

	now := s.now()
	sess := &domain.Session{
		ID:        uuid.New().String(),
		Step:      1,
		Status:    domain.StatusInProgress,
		Data:      map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions.Set(ctx, sessionKey(sess.ID), sess)

	s.logger.Info("signup session started", zap.String("session_id", sess.ID))
	return s.present(sess, nil), nil
}

// Get devolve o estado atual da sessão.
func (s *SignupService) Get(ctx context.Context, id string) (*domain.SessionResponse, error) {
	ctx, span := signupTracer.Start(ctx, "SignupService.Get")
	defer span.End()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.present(sess, nil), nil
}

// Answer valida as respostas da etapa atual e avança a jornada.
func (s *SignupService) Answer(ctx context.Context, id string, req *domain.AnswerRequest) (resp *domain.SessionResponse, err error) {
	ctx, span := signupTracer.Start(ctx, "SignupService.Answer")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("signup.answer", time.Since(start))
		if err != nil {
			s.metrics.IncrRequest("error")
			return
		}
		s.metrics.IncrRequest("success")
	}()

	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status == domain.StatusCompleted {
		return nil, &maindomain.ErrConflict{Message: msgAlreadyCompleted}
	}
	span.SetAttributes(attribute.Int("signup.step", sess.Step))

	step := s.steps[sess.Step-1]
	values, fieldErrs := step.Validate(stringify(req.Answers))
	if len(fieldErrs) > 0 {
		s.logger.Debug("signup step rejected",
			zap.String("session_id", id),
			zap.Int("step", sess.Step),
			zap.Int("field_errors", len(fieldErrs)),
		)
		return nil, &maindomain.ErrFieldErrors{Fields: fieldErrs}
	}

	if sess.Step < len(s.steps) {
		for k, v := range values {
			sess.Data[k] = v
		}
		sess.Step++
		sess.UpdatedAt = s.now()
		s.sessions.Set(ctx, sessionKey(id), sess)
		return s.present(sess, nil), nil
	}

	token, err := s.complete(ctx, sess, values["password"])
	if err != nil {
		return nil, err
	}
	return s.present(sess, token), nil
}

// complete cria tenant + dono e fecha a sessão.
func (s *SignupService) complete(ctx context.Context, sess *domain.Session, password string) (*maindomain.AccessToken, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	tenantID := uuid.New().String()
	acc := &maindomain.NewTenantAccount{
		Tenant: maindomain.Tenant{
			ID:          tenantID,
			CompanyName: sess.Data["companyName"],
			Document:    sess.Data["document"],
			Email:       sess.Data["email"],
			CreatedAt:   now,
		},
		Owner: maindomain.User{
			ID:           uuid.New().String(),
			TenantID:     tenantID,
			Name:         sess.Data["ownerName"],
			Email:        sess.Data["email"],
			Phone:        sess.Data["phone"],
			Role:         "owner",
			PasswordHash: string(hash),
			CreatedAt:    now,
		},
	}

	created, err := s.tenants.CreateTenantAccount(ctx, acc)
	if err != nil {
		s.logger.Warn("signup: tenant creation failed",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		return nil, friendlyStoreError(err)
	}

	token, err := s.tokens.Issue(&created.Owner)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	sess.Status = domain.StatusCompleted
	sess.TenantID = created.Tenant.ID
	sess.UpdatedAt = now
	s.sessions.Set(ctx, sessionKey(sess.ID), sess)

	s.logger.Info("signup completed",
		zap.String("session_id", sess.ID),
		zap.String("tenant_id", created.Tenant.ID),
	)
	return token, nil
}

func (s *SignupService) load(ctx context.Context, id string) (*domain.Session, error) {
	sess, ok := s.sessions.Get(ctx, sessionKey(id))
	if !ok || sess == nil {
		s.metrics.IncrCacheMiss("signup")
		return nil, &maindomain.ErrNotFound{Resource: "signup_session", ID: id}
	}
	s.metrics.IncrCacheHit("signup")

	// o cache em memória devolve o ponteiro compartilhado
	cp := *sess
	cp.Data = maps.Clone(sess.Data)
	if cp.Data == nil {
		cp.Data = map[string]string{}
	}
	return &cp, nil
}

// sessionLocks é um mutex por sessão, removido quando ninguém mais espera.
type sessionLocks struct {
	mu sync.Mutex
	m  map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func (l *sessionLocks) lock(id string) (unlock func()) {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*sessionLock)
	}
	e, ok := l.m[id]
	if !ok {
		e = &sessionLock{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		if e.refs--; e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}

func (s *SignupService) present(sess *domain.Session, token *maindomain.AccessToken) *domain.SessionResponse {
	resp := &domain.SessionResponse{
		SessionID:  sess.ID,
		Step:       sess.Step,
		TotalSteps: len(s.steps),
		Status:     sess.Status,
		Token:      token,
		Fields:     []domain.FieldSpec{},
	}
	if sess.Status == domain.StatusCompleted {
		resp.Prompt = "Cadastro concluído! Bem-vindo ao back-office."
		return resp
	}
	step := s.steps[sess.Step-1]
	resp.Prompt = step.Prompt()
	resp.Fields = step.Fields()
	return resp
}

// friendlyStoreError traduz violações de unicidade em mensagens para o usuário.
func friendlyStoreError(err error) error {
	var conflict *maindomain.ErrConflict
	if errors.As(err, &conflict) {
		return err
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key") {
		switch {
		case strings.Contains(msg, "email"):
			return &maindomain.ErrConflict{Message: msgDuplicateEmail}
		case strings.Contains(msg, "document"):
			return &maindomain.ErrConflict{Message: msgDuplicateDocument}
		}
	}
	return fmt.Errorf("create tenant account: %w", err)
}

// stringify converte as respostas JSON livres em texto.
func stringify(answers map[string]any) map[string]string {
	out := make(map[string]string, len(answers))
	for k, v := range answers {
		switch val := v.(type) {
		case nil:
		case string:
			out[k] = val
		case bool:
			out[k] = strconv.FormatBool(val)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
