package listview_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/listview"

	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNights(t *testing.T) {
	cases := []struct {
		name     string
		in, out  time.Time
		expected int
	}{
		{"five nights", date(2024, 1, 5), date(2024, 1, 10), 5},
		{"same day", date(2024, 1, 5), date(2024, 1, 5), 0},
		{"partial day rounds up", date(2024, 1, 5), date(2024, 1, 6).Add(2 * time.Hour), 2},
		{"check-out before check-in", date(2024, 1, 10), date(2024, 1, 5), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := listview.Nights(tc.in, tc.out); got != tc.expected {
				t.Errorf("expected %d nights, got %d", tc.expected, got)
			}
		})
	}
}

func TestEnrichReservations_JoinsAndComputesNights(t *testing.T) {
	reservations := []domain.Reservation{{
		ID:         "res-1",
		PropertyID: "prop-1",
		ClientID:   "cli-1",
		CheckIn:    domain.NativeTimestamp(date(2024, 1, 5)),
		CheckOut:   domain.NativeTimestamp(date(2024, 1, 10)),
		TotalPrice: decimal.NewFromInt(1000),
	}}
	properties := []domain.Property{{ID: "prop-1", Name: "Casa da Praia", Address: "Rua A, 10", BasePrice: decimal.NewFromInt(300)}}
	clients := []domain.Client{{ID: "cli-1", Name: "Maria Souza", Phone: "5511999990000"}}

	rows, issues := listview.EnrichReservations(reservations, properties, clients)
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.Nights != 5 {
		t.Errorf("expected 5 nights, got %d", row.Nights)
	}
	if row.PropertyName != "Casa da Praia" || row.ClientName != "Maria Souza" {
		t.Errorf("unexpected join: property=%q client=%q", row.PropertyName, row.ClientName)
	}
	if row.Status != domain.ReservationPending {
		t.Errorf("expected default status pending, got %q", row.Status)
	}
}

func TestEnrichReservations_MissingReferencesUseFallback(t *testing.T) {
	reservations := []domain.Reservation{{
		ID:         "res-1",
		PropertyID: "ghost",
		ClientID:   "ghost",
		CheckIn:    domain.NativeTimestamp(date(2024, 3, 1)),
		CheckOut:   domain.NativeTimestamp(date(2024, 3, 2)),
	}}

	rows, _ := listview.EnrichReservations(reservations, nil, nil)
	if rows[0].ClientName != listview.MissingClient {
		t.Errorf("expected %q, got %q", listview.MissingClient, rows[0].ClientName)
	}
	if rows[0].PropertyName != listview.MissingProperty {
		t.Errorf("expected %q, got %q", listview.MissingProperty, rows[0].PropertyName)
	}
}

func TestEnrichReservations_HeterogeneousDates(t *testing.T) {
	raw := `[
		{"id":"iso","checkIn":"2024-01-05","checkOut":"2024-01-10T00:00:00Z"},
		{"id":"server","checkIn":{"seconds":1704412800,"nanoseconds":0},"checkOut":{"_seconds":1704844800,"_nanoseconds":0}},
		{"id":"millis","checkIn":1704412800000,"checkOut":1704844800000}
	]`
	var reservations []domain.Reservation
	if err := json.Unmarshal([]byte(raw), &reservations); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rows, issues := listview.EnrichReservations(reservations, nil, nil)
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	for _, r := range rows {
		if r.Nights != 5 {
			t.Errorf("%s: expected 5 nights, got %d", r.ID, r.Nights)
		}
	}
}

func TestEnrichReservations_BadDateDoesNotAbortBatch(t *testing.T) {
	reservations := []domain.Reservation{
		{ID: "bad", CheckIn: domain.ParseTimestamp("amanhã"), CheckOut: domain.NativeTimestamp(date(2024, 1, 10))},
		{ID: "good", CheckIn: domain.NativeTimestamp(date(2024, 1, 5)), CheckOut: domain.NativeTimestamp(date(2024, 1, 7))},
		{ID: "reversed", CheckIn: domain.NativeTimestamp(date(2024, 1, 9)), CheckOut: domain.NativeTimestamp(date(2024, 1, 7))},
	}

	rows, issues := listview.EnrichReservations(reservations, nil, nil)
	if len(rows) != 3 {
		t.Fatalf("expected all 3 rows to survive, got %d", len(rows))
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d: %v", len(issues), issues)
	}
	if rows[0].Nights != 0 || rows[0].DatesValid {
		t.Errorf("bad row: expected 0 nights and invalid dates, got %d/%v", rows[0].Nights, rows[0].DatesValid)
	}
	if rows[1].Nights != 2 || !rows[1].DatesValid {
		t.Errorf("good row: expected 2 valid nights, got %d/%v", rows[1].Nights, rows[1].DatesValid)
	}
	for _, r := range rows {
		if r.Nights < 0 {
			t.Errorf("%s: nights must never be negative, got %d", r.ID, r.Nights)
		}
	}
}

func TestEnrichVisits(t *testing.T) {
	visits := []domain.Visit{
		{ID: "v1", PropertyID: "p1", ClientID: "c1", ScheduledAt: domain.NativeTimestamp(date(2024, 2, 1))},
		{ID: "v2", PropertyID: "p2", ClientID: "c2"},
	}
	rows, issues := listview.EnrichVisits(visits,
		[]domain.Property{{ID: "p1", Name: "Loft Centro"}},
		[]domain.Client{{ID: "c1", Name: "João"}},
	)
	if rows[0].PropertyName != "Loft Centro" || rows[0].ClientName != "João" {
		t.Errorf("unexpected join for v1: %+v", rows[0])
	}
	if rows[1].ClientName != listview.MissingClient {
		t.Errorf("expected fallback client name, got %q", rows[1].ClientName)
	}
	if len(issues) != 1 || issues[0].ID != "v2" {
		t.Errorf("expected one issue for v2, got %v", issues)
	}
}
