// Package service implements the back-office use cases on top of the ports.
// Every list endpoint runs the same pipeline: fetch base and reference
// collections concurrently, enrich, filter, aggregate, paginate.
package service

import (
	"math"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/listview"
)

// PageRequest is the pagination requested by the caller.
type PageRequest struct {
	Page     int
	PageSize int
}

func listResponse[T any, S any](filtered []T, stats S, issues []domain.RowIssue, pr PageRequest) *domain.ListResponse[T, S] {
	p := listview.Paginate(filtered, pr.Page, pr.PageSize)
	return &domain.ListResponse[T, S]{
		Data:     p.Items,
		Stats:    stats,
		Issues:   issues,
		Total:    p.Total,
		Page:     p.Page,
		PageSize: p.PageSize,
		HasMore:  p.HasMore,
	}
}

// track records duration and outcome of a service operation.
func track(m *observability.Metrics, op string, start time.Time, err *error) {
	m.RecordRequestDuration(op, time.Since(start))
	if *err != nil {
		m.IncrRequest("error")
		return
	}
	m.IncrRequest("success")
}

func fieldErrors(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &domain.ErrFieldErrors{Fields: fields}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b (negative when b is earlier).
func daysBetween(a, b time.Time) int {
	a, b = startOfDay(a), startOfDay(b.In(a.Location()))
	return int(math.Round(b.Sub(a).Hours() / 24))
}
