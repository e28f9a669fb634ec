// Package listview implements the derivation pipeline behind every list
// screen of the back-office: records are joined with their references
// (enrich), narrowed by user filters (filter), reduced to KPI cards
// (aggregate) and finally paged.
//
// Every step is a pure function over slices. Inputs are never mutated,
// so the same filters over the same collection always yield the same rows.
package listview

import (
	"fmt"
	"math"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
)

// Placeholders shown when a referenced record does not exist.
const (
	MissingClient   = "Cliente não encontrado"
	MissingProperty = "Imóvel não encontrado"
)

const day = 24 * time.Hour

// ============================================================
// Index — id lookup over a reference collection
// ============================================================

// Index is a read-only id → record map.
type Index[T any] struct {
	items map[string]T
}

// NewIndex builds an index using id to extract each record key.
// On duplicate ids the last record wins.
func NewIndex[T any](items []T, id func(T) string) Index[T] {
	m := make(map[string]T, len(items))
	for _, it := range items {
		m[id(it)] = it
	}
	return Index[T]{items: m}
}

// Lookup returns the record with the given id.
func (ix Index[T]) Lookup(id string) (T, bool) {
	v, ok := ix.items[id]
	return v, ok
}

// Len is the number of indexed records.
func (ix Index[T]) Len() int { return len(ix.items) }

// ============================================================
// Derived date fields
// ============================================================

// Nights is the number of nights between check-in and check-out, rounding
// partial days up. It is never negative.
func Nights(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(float64(d) / float64(day)))
}

// stayNights normalizes both dates and computes the night count. A record
// with unusable dates yields 0 nights and an issue instead of an error.
func stayNights(id string, checkIn, checkOut domain.Timestamp) (int, bool, []domain.RowIssue) {
	var issues []domain.RowIssue
	in, err := checkIn.Time()
	if err != nil {
		issues = append(issues, domain.RowIssue{ID: id, Field: "checkIn", Message: err.Error()})
	}
	out, err := checkOut.Time()
	if err != nil {
		issues = append(issues, domain.RowIssue{ID: id, Field: "checkOut", Message: err.Error()})
	}
	if len(issues) > 0 {
		return 0, false, issues
	}
	if out.Before(in) {
		issues = append(issues, domain.RowIssue{
			ID:      id,
			Field:   "checkOut",
			Message: fmt.Sprintf("check-out %s is before check-in %s", out.Format(time.DateOnly), in.Format(time.DateOnly)),
		})
		return 0, false, issues
	}
	return Nights(in, out), true, nil
}

// ============================================================
// Per-entity enrichment
// ============================================================

// EnrichReservations joins reservations with their property and client.
// Rows keep the input order; issues list the rows whose dates were unusable.
func EnrichReservations(reservations []domain.Reservation, properties []domain.Property, clients []domain.Client) ([]domain.ReservationRow, []domain.RowIssue) {
	propIx := NewIndex(properties, func(p domain.Property) string { return p.ID })
	clientIx := NewIndex(clients, func(c domain.Client) string { return c.ID })

	rows := make([]domain.ReservationRow, 0, len(reservations))
	var issues []domain.RowIssue
	for _, r := range reservations {
		r.ApplyDefaults()
		row := domain.ReservationRow{
			Reservation:  r,
			PropertyName: MissingProperty,
			ClientName:   MissingClient,
		}
		if p, ok := propIx.Lookup(r.PropertyID); ok {
			row.PropertyName = p.Name
			row.PropertyAddress = p.Address
		}
		if c, ok := clientIx.Lookup(r.ClientID); ok {
			row.ClientName = c.Name
			row.ClientPhone = c.Phone
		}
		nights, valid, rowIssues := stayNights(r.ID, r.CheckIn, r.CheckOut)
		row.Nights = nights
		row.DatesValid = valid
		issues = append(issues, rowIssues...)
		rows = append(rows, row)
	}
	return rows, issues
}

// EnrichVisits joins visits with their property and client.
func EnrichVisits(visits []domain.Visit, properties []domain.Property, clients []domain.Client) ([]domain.VisitRow, []domain.RowIssue) {
	propIx := NewIndex(properties, func(p domain.Property) string { return p.ID })
	clientIx := NewIndex(clients, func(c domain.Client) string { return c.ID })

	rows := make([]domain.VisitRow, 0, len(visits))
	var issues []domain.RowIssue
	for _, v := range visits {
		row := domain.VisitRow{Visit: v, PropertyName: MissingProperty, ClientName: MissingClient}
		if p, ok := propIx.Lookup(v.PropertyID); ok {
			row.PropertyName = p.Name
		}
		if c, ok := clientIx.Lookup(v.ClientID); ok {
			row.ClientName = c.Name
			row.ClientPhone = c.Phone
		}
		if _, err := v.ScheduledAt.Time(); err != nil {
			issues = append(issues, domain.RowIssue{ID: v.ID, Field: "scheduledAt", Message: err.Error()})
		}
		rows = append(rows, row)
	}
	return rows, issues
}

// NormalizeConversations applies inbox defaults to every conversation.
func NormalizeConversations(convs []domain.Conversation) []domain.Conversation {
	out := make([]domain.Conversation, len(convs))
	for i, c := range convs {
		c.ApplyDefaults()
		out[i] = c
	}
	return out
}
