package listview

import (
	"sort"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

// ============================================================
// KPI cards per screen
// ============================================================

// revenueStatuses are the reservation states that count as sold nights.
var revenueStatuses = map[domain.ReservationStatus]bool{
	domain.ReservationConfirmed:  true,
	domain.ReservationCheckedIn:  true,
	domain.ReservationCheckedOut: true,
}

func isRevenue(r domain.ReservationRow) bool { return revenueStatuses[r.Status] }

// Window is the date range used for occupancy. A zero window disables it.
type Window struct {
	From, To time.Time
}

// ReservationStats reduces reservation rows. Occupancy is computed from
// stays, clipped to window, for propertyCount units.
func ReservationStats(rows, stays []domain.ReservationRow, window Window, propertyCount int) domain.ReservationStats {
	byStatus := make(map[domain.ReservationStatus]int, len(domain.ReservationStatuses))
	for _, s := range domain.ReservationStatuses {
		byStatus[s] = 0
	}
	for s, n := range CountBy(rows, func(r domain.ReservationRow) domain.ReservationStatus { return r.Status }) {
		byStatus[s] = n
	}

	revenue := SumDecimal(rows, isRevenue, func(r domain.ReservationRow) decimal.Decimal { return r.TotalPrice })
	soldNights := int(Sum(rows, isRevenue, func(r domain.ReservationRow) float64 { return float64(r.Nights) }))
	totalNights := int(Sum(rows, func(r domain.ReservationRow) bool {
		return r.Status != domain.ReservationCancelled && r.Status != domain.ReservationVisit
	}, func(r domain.ReservationRow) float64 { return float64(r.Nights) }))

	return domain.ReservationStats{
		Total:            len(rows),
		ByStatus:         byStatus,
		ConfirmedRevenue: revenue,
		TotalNights:      totalNights,
		AvgNightlyRate:   DivDecimal(revenue, soldNights),
		OccupancyPct:     occupancy(stays, window, propertyCount),
	}
}

func occupancy(rows []domain.ReservationRow, w Window, propertyCount int) float64 {
	if w.From.IsZero() || w.To.IsZero() || propertyCount <= 0 {
		return 0
	}
	available := Nights(w.From, w.To) * propertyCount
	booked := 0
	for _, r := range rows {
		if !isRevenue(r) || !r.DatesValid {
			continue
		}
		in, _ := r.CheckIn.Time()
		out, _ := r.CheckOut.Time()
		if in.Before(w.From) {
			in = w.From
		}
		if out.After(w.To) {
			out = w.To
		}
		booked += Nights(in, out)
	}
	return Percent(float64(booked), float64(available))
}

// AccountStats reduces accounts payable and receivable.
func AccountStats(accounts []domain.Account, now time.Time) domain.AccountStats {
	byStatus := make(map[domain.AccountStatus]int, len(domain.AccountStatuses))
	for _, s := range domain.AccountStatuses {
		byStatus[s] = 0
	}
	for s, n := range CountBy(accounts, func(a domain.Account) domain.AccountStatus { return a.Status }) {
		byStatus[s] = n
	}

	isReceivable := func(a domain.Account) bool { return a.Type == domain.AccountReceivable }
	isPayable := func(a domain.Account) bool { return a.Type == domain.AccountPayable }
	overdue := func(a domain.Account) bool { return IsOverdue(a, now) }
	original := func(a domain.Account) decimal.Decimal { return a.OriginalAmount }
	remaining := func(a domain.Account) decimal.Decimal { return a.RemainingAmount }

	receivableTotal := SumDecimal(accounts, isReceivable, original)
	receivablePaid := SumDecimal(accounts, isReceivable, func(a domain.Account) decimal.Decimal { return a.PaidAmount })

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	paidThisMonth := decimal.Zero
	for _, a := range accounts {
		for _, p := range a.Payments {
			if t, err := p.PaidAt.Time(); err == nil && !t.Before(monthStart) && !t.After(now) {
				paidThisMonth = paidThisMonth.Add(p.Amount)
			}
		}
	}

	return domain.AccountStats{
		Total:               len(accounts),
		ByStatus:            byStatus,
		ReceivableTotal:     receivableTotal,
		ReceivableRemaining: SumDecimal(accounts, isReceivable, remaining),
		PayableTotal:        SumDecimal(accounts, isPayable, original),
		PayableRemaining:    SumDecimal(accounts, isPayable, remaining),
		OverdueCount:        Count(accounts, overdue),
		OverdueAmount:       SumDecimal(accounts, overdue, remaining),
		PaidThisMonth:       paidThisMonth,
		CollectionRatePct:   PercentDecimal(receivablePaid, receivableTotal),
	}
}

// TransactionStats reduces cash-book entries. Cancelled entries are ignored
// for income and expense totals.
func TransactionStats(txs []domain.Transaction) domain.TransactionStats {
	completed := func(t domain.Transaction) bool { return t.Status == domain.TransactionCompleted }
	amount := func(t domain.Transaction) decimal.Decimal { return t.Amount }

	income := SumDecimal(txs, func(t domain.Transaction) bool {
		return completed(t) && t.Type == domain.TransactionIncome
	}, amount)
	expense := SumDecimal(txs, func(t domain.Transaction) bool {
		return completed(t) && t.Type == domain.TransactionExpense
	}, amount)
	pending := SumDecimal(txs, func(t domain.Transaction) bool { return t.Status == domain.TransactionPending }, amount)

	return domain.TransactionStats{
		Count:         len(txs),
		Income:        income,
		Expense:       expense,
		Net:           income.Sub(expense),
		PendingAmount: pending,
		ByCategory:    CategoryTotals(txs),
	}
}

// CategoryTotals groups non-cancelled transactions per category, largest first.
func CategoryTotals(txs []domain.Transaction) []domain.CategoryTotal {
	totals := make(map[string]*domain.CategoryTotal)
	grand := decimal.Zero
	for _, t := range txs {
		if t.Status == domain.TransactionCancelled {
			continue
		}
		ct, ok := totals[t.Category]
		if !ok {
			ct = &domain.CategoryTotal{Category: t.Category, Total: decimal.Zero}
			totals[t.Category] = ct
		}
		ct.Total = ct.Total.Add(t.Amount)
		ct.Count++
		grand = grand.Add(t.Amount)
	}

	out := make([]domain.CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		ct.Pct = PercentDecimal(ct.Total, grand)
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// ConversationStats reduces inbox threads.
func ConversationStats(convs []domain.Conversation) domain.ConversationStats {
	byStatus := map[domain.ConversationStatus]int{
		domain.ConversationActive:   0,
		domain.ConversationPending:  0,
		domain.ConversationResolved: 0,
		domain.ConversationArchived: 0,
	}
	for s, n := range CountBy(convs, func(c domain.Conversation) domain.ConversationStatus { return c.Status }) {
		byStatus[s] = n
	}
	avg, _ := decimal.NewFromFloat(Mean(convs, func(c domain.Conversation) float64 { return c.AIConfidence })).Round(4).Float64()

	return domain.ConversationStats{
		Total:           len(convs),
		ByStatus:        byStatus,
		Unread:          int(Sum(convs, nil, func(c domain.Conversation) float64 { return float64(c.UnreadCount) })),
		Starred:         Count(convs, func(c domain.Conversation) bool { return c.IsStarred }),
		NegativeCount:   Count(convs, func(c domain.Conversation) bool { return c.Sentiment == domain.SentimentNegative }),
		AvgAIConfidence: avg,
	}
}
