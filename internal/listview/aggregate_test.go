package listview_test

import (
	"math"
	"testing"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/listview"

	"github.com/shopspring/decimal"
)

func finite(t *testing.T, name string, v float64) {
	t.Helper()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		t.Errorf("%s: expected finite value, got %v", name, v)
	}
}

func TestPercent_ZeroGuard(t *testing.T) {
	if got := listview.Percent(5, 0); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
	if got := listview.Ratio(0, 0); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
	if got := listview.PercentDecimal(decimal.NewFromInt(3), decimal.Zero); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
	if got := listview.Percent(1, 3); got != 33.33 {
		t.Errorf("expected 33.33, got %v", got)
	}
}

func TestStats_EmptyCollectionsAreZero(t *testing.T) {
	now := time.Now()

	rs := listview.ReservationStats(nil, nil, listview.Window{From: now.AddDate(0, -1, 0), To: now}, 3)
	if rs.Total != 0 || !rs.ConfirmedRevenue.IsZero() || !rs.AvgNightlyRate.IsZero() {
		t.Errorf("unexpected reservation stats: %+v", rs)
	}
	finite(t, "occupancy", rs.OccupancyPct)

	as := listview.AccountStats(nil, now)
	if as.Total != 0 || !as.ReceivableTotal.IsZero() {
		t.Errorf("unexpected account stats: %+v", as)
	}
	finite(t, "collection rate", as.CollectionRatePct)

	ts := listview.TransactionStats(nil)
	if !ts.Net.IsZero() || len(ts.ByCategory) != 0 {
		t.Errorf("unexpected transaction stats: %+v", ts)
	}

	cs := listview.ConversationStats(nil)
	finite(t, "avg ai confidence", cs.AvgAIConfidence)
	if cs.AvgAIConfidence != 0 {
		t.Errorf("expected 0 avg confidence, got %v", cs.AvgAIConfidence)
	}
}

func TestReservationStats(t *testing.T) {
	rows := []domain.ReservationRow{
		{Reservation: domain.Reservation{ID: "r1", Status: domain.ReservationConfirmed, TotalPrice: decimal.NewFromInt(1000),
			CheckIn: domain.NativeTimestamp(date(2024, 1, 5)), CheckOut: domain.NativeTimestamp(date(2024, 1, 10))}, Nights: 5, DatesValid: true},
		{Reservation: domain.Reservation{ID: "r2", Status: domain.ReservationCancelled, TotalPrice: decimal.NewFromInt(400),
			CheckIn: domain.NativeTimestamp(date(2024, 1, 12)), CheckOut: domain.NativeTimestamp(date(2024, 1, 14))}, Nights: 2, DatesValid: true},
	}
	stats := listview.ReservationStats(rows, rows, listview.Window{From: date(2024, 1, 1), To: date(2024, 1, 11)}, 1)

	if stats.Total != 2 {
		t.Errorf("expected total 2, got %d", stats.Total)
	}
	if !stats.ConfirmedRevenue.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected revenue 1000, got %s", stats.ConfirmedRevenue)
	}
	if !stats.AvgNightlyRate.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected avg nightly rate 200, got %s", stats.AvgNightlyRate)
	}
	if stats.TotalNights != 5 {
		t.Errorf("expected 5 nights, got %d", stats.TotalNights)
	}
	if stats.OccupancyPct != 50 {
		t.Errorf("expected 50%% occupancy, got %v", stats.OccupancyPct)
	}
	if stats.ByStatus[domain.ReservationCancelled] != 1 || stats.ByStatus[domain.ReservationCheckedIn] != 0 {
		t.Errorf("unexpected status counts: %v", stats.ByStatus)
	}
}

func TestAccountStats(t *testing.T) {
	stats := listview.AccountStats(sampleAccounts(), date(2024, 5, 20))

	if !stats.ReceivableTotal.Equal(decimal.NewFromInt(350)) {
		t.Errorf("expected receivable total 350, got %s", stats.ReceivableTotal)
	}
	if !stats.PayableRemaining.Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected payable remaining 80, got %s", stats.PayableRemaining)
	}
	if stats.OverdueCount != 3 {
		t.Errorf("expected 3 overdue, got %d", stats.OverdueCount)
	}
	if !stats.OverdueAmount.Equal(decimal.NewFromInt(380)) {
		t.Errorf("expected overdue amount 380, got %s", stats.OverdueAmount)
	}
	if stats.CollectionRatePct != 14.29 {
		t.Errorf("expected collection rate 14.29, got %v", stats.CollectionRatePct)
	}
}

func TestTransactionStats(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "t1", Type: domain.TransactionIncome, Status: domain.TransactionCompleted, Category: "hospedagem", Amount: decimal.NewFromInt(900)},
		{ID: "t2", Type: domain.TransactionExpense, Status: domain.TransactionCompleted, Category: "limpeza", Amount: decimal.NewFromInt(300)},
		{ID: "t3", Type: domain.TransactionExpense, Status: domain.TransactionPending, Category: "limpeza", Amount: decimal.NewFromInt(100)},
		{ID: "t4", Type: domain.TransactionIncome, Status: domain.TransactionCancelled, Category: "hospedagem", Amount: decimal.NewFromInt(5000)},
	}
	stats := listview.TransactionStats(txs)

	if !stats.Net.Equal(decimal.NewFromInt(600)) {
		t.Errorf("expected net 600, got %s", stats.Net)
	}
	if !stats.PendingAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected pending 100, got %s", stats.PendingAmount)
	}
	if len(stats.ByCategory) != 2 || stats.ByCategory[0].Category != "hospedagem" {
		t.Fatalf("unexpected categories: %+v", stats.ByCategory)
	}
	if stats.ByCategory[0].Pct != 69.23 {
		t.Errorf("expected 69.23%%, got %v", stats.ByCategory[0].Pct)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := listview.Paginate(items, 2, 2)
	if len(p.Items) != 2 || p.Items[0] != 3 || !p.HasMore {
		t.Errorf("unexpected page 2: %+v", p)
	}
	last := listview.Paginate(items, 3, 2)
	if len(last.Items) != 1 || last.HasMore {
		t.Errorf("unexpected last page: %+v", last)
	}
	beyond := listview.Paginate(items, 10, 2)
	if len(beyond.Items) != 0 || beyond.Total != 5 {
		t.Errorf("unexpected out-of-range page: %+v", beyond)
	}
	for _, page := range []int{math.MaxInt64 / 50, math.MaxInt64} {
		huge := listview.Paginate([]int{1, 2, 3}, page, 100)
		if len(huge.Items) != 0 || huge.HasMore || huge.Total != 3 {
			t.Errorf("page %d: expected an empty page, got %+v", page, huge)
		}
	}
}
