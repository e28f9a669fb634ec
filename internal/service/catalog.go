package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/port"

	"go.uber.org/zap"
)

// CatalogService manages properties and clients, the reference data of
// every list view.
type CatalogService struct {
	properties port.PropertyStore
	clients    port.ClientStore
	refs       *ReferenceLoader
	metrics    *observability.Metrics
	logger     *zap.Logger
}

func NewCatalogService(properties port.PropertyStore, clients port.ClientStore, refs *ReferenceLoader, metrics *observability.Metrics, logger *zap.Logger) *CatalogService {
	return &CatalogService{properties: properties, clients: clients, refs: refs, metrics: metrics, logger: logger}
}

// ListProperties is served from the reference cache.
func (s *CatalogService) ListProperties(ctx context.Context, tenantID string) ([]domain.Property, error) {
	refs, err := s.refs.Load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return refs.Properties, nil
}

func (s *CatalogService) CreateProperty(ctx context.Context, tenantID string, in *domain.Property) (*domain.Property, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.CreateProperty")
	defer span.End()

	fields := map[string]string{}
	in.Name = strings.TrimSpace(in.Name)
	if len([]rune(in.Name)) < 2 {
		fields["name"] = "Informe o nome do imóvel"
	}
	if strings.TrimSpace(in.Address) == "" {
		fields["address"] = "Informe o endereço"
	}
	if in.BasePrice.IsNegative() {
		fields["basePrice"] = "Valor não pode ser negativo"
	}
	if in.MaxGuests < 1 {
		fields["maxGuests"] = "Capacidade mínima de 1 hóspede"
	}
	if in.Status == "" {
		in.Status = "active"
	} else if in.Status != "active" && in.Status != "inactive" {
		fields["status"] = "Status inválido"
	}
	if err := fieldErrors(fields); err != nil {
		return nil, err
	}

	in.TenantID = tenantID
	p, err := s.properties.CreateProperty(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create property: %w", err)
	}
	s.refs.Invalidate(ctx, tenantID)
	s.logger.Info("property created", zap.String("tenant_id", tenantID), zap.String("property_id", p.ID))
	return p, nil
}

// ListClients is served from the reference cache.
func (s *CatalogService) ListClients(ctx context.Context, tenantID string) ([]domain.Client, error) {
	refs, err := s.refs.Load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return refs.Clients, nil
}

func (s *CatalogService) CreateClient(ctx context.Context, tenantID string, in *domain.Client) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.CreateClient")
	defer span.End()

	fields := map[string]string{}
	in.Name = strings.TrimSpace(in.Name)
	if len([]rune(in.Name)) < 2 {
		fields["name"] = "Informe o nome do cliente"
	}
	in.Phone = Digits(in.Phone)
	if n := len(in.Phone); n < 10 || n > 13 {
		fields["phone"] = "Telefone deve ter entre 10 e 13 dígitos"
	}
	if in.Email != "" && !ValidEmail(in.Email) {
		fields["email"] = "E-mail inválido"
	}
	if err := fieldErrors(fields); err != nil {
		return nil, err
	}

	in.TenantID = tenantID
	c, err := s.clients.CreateClient(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	s.refs.Invalidate(ctx, tenantID)
	s.logger.Info("client created", zap.String("tenant_id", tenantID), zap.String("client_id", c.ID))
	return c, nil
}

// Digits strips everything but 0-9.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidEmail does the same shallow check the back-office forms do.
func ValidEmail(s string) bool {
	at := strings.LastIndex(s, "@")
	if at < 1 || at == len(s)-1 || strings.ContainsAny(s, " \t\n") {
		return false
	}
	domainPart := s[at+1:]
	dot := strings.LastIndex(domainPart, ".")
	return dot > 0 && dot < len(domainPart)-1
}
