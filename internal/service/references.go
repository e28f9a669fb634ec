package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service")

// References are the collections list rows are joined against.
type References struct {
	Properties []domain.Property `json:"properties"`
	Clients    []domain.Client   `json:"clients"`
}

// ReferenceLoader fetches properties and clients of a tenant, cached per tenant.
type ReferenceLoader struct {
	properties port.PropertyStore
	clients    port.ClientStore
	cache      port.Cache[*References]
	metrics    *observability.Metrics
	logger     *zap.Logger
}

func NewReferenceLoader(
	properties port.PropertyStore,
	clients port.ClientStore,
	cache port.Cache[*References],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ReferenceLoader {
	return &ReferenceLoader{
		properties: properties,
		clients:    clients,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
	}
}

func referencesKey(tenantID string) string {
	return fmt.Sprintf("refs:%s", tenantID)
}

// Load returns the tenant references, hitting the stores concurrently on a miss.
func (l *ReferenceLoader) Load(ctx context.Context, tenantID string) (*References, error) {
	ctx, span := tracer.Start(ctx, "ReferenceLoader.Load")
	defer span.End()

	key := referencesKey(tenantID)
	if refs, ok := l.cache.Get(ctx, key); ok && refs != nil {
		l.metrics.IncrCacheHit("references")
		return refs, nil
	}
	l.metrics.IncrCacheMiss("references")

	refs := &References{}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		props, err := l.properties.ListProperties(gCtx, tenantID)
		if err != nil {
			return fmt.Errorf("list properties: %w", err)
		}
		refs.Properties = props
		return nil
	})
	g.Go(func() error {
		clients, err := l.clients.ListClients(gCtx, tenantID)
		if err != nil {
			return fmt.Errorf("list clients: %w", err)
		}
		refs.Clients = clients
		return nil
	})
	if err := g.Wait(); err != nil {
		l.logger.Error("failed to load references", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}

	l.cache.Set(ctx, key, refs)
	return refs, nil
}

// Invalidate drops the cached references after a property or client changes.
func (l *ReferenceLoader) Invalidate(ctx context.Context, tenantID string) {
	l.cache.Delete(ctx, referencesKey(tenantID))
}
