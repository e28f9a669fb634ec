package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/listview"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/port"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// VisitService serves the visits agenda.
type VisitService struct {
	store   port.VisitStore
	refs    *ReferenceLoader
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewVisitService(store port.VisitStore, refs *ReferenceLoader, metrics *observability.Metrics, logger *zap.Logger) *VisitService {
	return &VisitService{store: store, refs: refs, metrics: metrics, logger: logger}
}

// ListVisits returns enriched visits with a count per status.
func (s *VisitService) ListVisits(ctx context.Context, tenantID string, f listview.VisitFilter, pr PageRequest) (resp *domain.ListResponse[domain.VisitRow, map[domain.VisitStatus]int], err error) {
	ctx, span := tracer.Start(ctx, "VisitService.ListVisits")
	defer span.End()
	defer track(s.metrics, "visits.list", time.Now(), &err)

	var (
		visits []domain.Visit
		refs   *References
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		visits, err = s.store.ListVisits(gCtx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		refs, err = s.refs.Load(gCtx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load visits: %w", err)
	}

	rows, issues := listview.EnrichVisits(visits, refs.Properties, refs.Clients)
	filtered := listview.Apply(rows, f.Predicates()...)
	stats := listview.CountBy(filtered, func(v domain.VisitRow) domain.VisitStatus { return v.Status })

	s.metrics.RecordPipeline("visits", len(rows), len(filtered), len(issues))
	return listResponse(filtered, stats, issues, pr), nil
}
