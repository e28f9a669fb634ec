package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/listview"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/port"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultAnalyticsPeriod = "24h"
	trendMonths            = 6
	topCategories          = 5
)

// AnalyticsService computes dashboard KPIs. All ratios are zero-guarded.
type AnalyticsService struct {
	conversations port.ConversationStore
	messages      port.MessageStore
	reservations  port.ReservationStore
	visits        port.VisitStore
	accounts      port.AccountStore
	transactions  port.TransactionStore
	metrics       *observability.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

func NewAnalyticsService(
	conversations port.ConversationStore,
	messages port.MessageStore,
	reservations port.ReservationStore,
	visits port.VisitStore,
	accounts port.AccountStore,
	transactions port.TransactionStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		conversations: conversations,
		messages:      messages,
		reservations:  reservations,
		visits:        visits,
		accounts:      accounts,
		transactions:  transactions,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock overrides the time source.
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

// ============================================================
// Conversion analytics — GET /v1/metrics/analytics
// ============================================================

func (s *AnalyticsService) ConversionAnalytics(ctx context.Context, tenantID, period string) (out *domain.ConversionAnalytics, err error) {
	ctx, span := tracer.Start(ctx, "AnalyticsService.ConversionAnalytics")
	defer span.End()
	defer track(s.metrics, "analytics.conversion", time.Now(), &err)

	if period == "" {
		period = defaultAnalyticsPeriod
	}
	window, ok := domain.AnalyticsPeriods[period]
	if !ok {
		return nil, &domain.ErrValidation{Field: "period", Message: "use 24h, 7d, 30d ou 90d"}
	}
	to := s.now().UTC()
	from := to.Add(-window)

	var (
		convs        []domain.Conversation
		msgs         []domain.Message
		reservations []domain.Reservation
		visits       []domain.Visit
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		convs, err = s.conversations.ListConversations(gCtx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		msgs, err = s.messages.ListMessagesSince(gCtx, tenantID, from)
		return err
	})
	g.Go(func() error {
		var err error
		reservations, err = s.reservations.ListReservations(gCtx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		visits, err = s.visits.ListVisits(gCtx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load analytics data: %w", err)
	}

	inWindow := func(ts domain.Timestamp) bool {
		t, err := ts.Time()
		return err == nil && !t.Before(from) && !t.After(to)
	}

	created := listview.Apply(listview.NormalizeConversations(convs), func(c domain.Conversation) bool { return inWindow(c.CreatedAt) })
	msgs = listview.Apply(msgs, func(m domain.Message) bool { return inWindow(m.Timestamp) })
	resInWindow := listview.Apply(reservations, func(r domain.Reservation) bool { return inWindow(r.CreatedAt) })
	visitsInWindow := listview.Apply(visits, func(v domain.Visit) bool { return inWindow(v.CreatedAt) })

	inbound := listview.Count(msgs, func(m domain.Message) bool { return m.Sender == domain.SenderUser })
	outbound := len(msgs) - inbound
	aiHandled := listview.Count(msgs, func(m domain.Message) bool { return m.Sender == domain.SenderAI })
	fromAI := listview.Count(resInWindow, func(r domain.Reservation) bool { return r.Source == domain.SourceWhatsAppAI })
	closedVisits := listview.Count(visitsInWindow, func(v domain.Visit) bool {
		return v.Status == domain.VisitCompleted || v.Status == domain.VisitNoShow
	})
	shows := listview.Count(visitsInWindow, func(v domain.Visit) bool { return v.Status == domain.VisitCompleted })
	threads := listview.CountBy(msgs, func(m domain.Message) string { return m.ConversationID })
	revenue := listview.SumDecimal(resInWindow, func(r domain.Reservation) bool {
		return r.Status != domain.ReservationCancelled && r.Status != domain.ReservationVisit
	}, func(r domain.Reservation) decimal.Decimal { return r.TotalPrice })

	stats := listview.ConversationStats(created)
	return &domain.ConversionAnalytics{
		Period:               period,
		From:                 from,
		To:                   to,
		ConversationsCreated: len(created),
		MessagesInbound:      inbound,
		MessagesOutbound:     outbound,
		AIHandledPct:         listview.Percent(float64(aiHandled), float64(outbound)),
		AvgAIConfidence:      stats.AvgAIConfidence,
		ReservationsCreated:  len(resInWindow),
		ReservationsFromAI:   fromAI,
		ConversionRatePct:    listview.Percent(float64(fromAI), float64(len(created))),
		VisitsScheduled:      len(visitsInWindow),
		VisitShowRatePct:     listview.Percent(float64(shows), float64(closedVisits)),
		NegativeSentimentPct: listview.Percent(float64(stats.NegativeCount), float64(len(created))),
		AvgMessagesPerThread: listview.Ratio(float64(len(msgs)), float64(len(threads))),
		ReservationRevenue:   revenue,
	}, nil
}

// ============================================================
// Financial dashboard — GET /v1/dashboard/financial
// ============================================================

func (s *AnalyticsService) FinancialDashboard(ctx context.Context, tenantID string) (out *domain.FinancialDashboard, err error) {
	ctx, span := tracer.Start(ctx, "AnalyticsService.FinancialDashboard")
	defer span.End()
	defer track(s.metrics, "analytics.financial", time.Now(), &err)

	var (
		accounts []domain.Account
		txs      []domain.Transaction
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.accounts.ListAccounts(gCtx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.transactions.ListTransactions(gCtx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load financial data: %w", err)
	}

	now := s.now()
	accStats := listview.AccountStats(accounts, now)
	txStats := listview.TransactionStats(txs)

	expenses := listview.Apply(txs, func(t domain.Transaction) bool { return t.Type == domain.TransactionExpense })
	top := listview.CategoryTotals(expenses)
	if len(top) > topCategories {
		top = top[:topCategories]
	}

	// Goal: receivables due this month that were already collected.
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)
	dueThisMonth := listview.Apply(accounts, func(a domain.Account) bool {
		due, err := a.DueDate.Time()
		return err == nil && a.Type == domain.AccountReceivable &&
			a.Status != domain.AccountCancelled && !due.Before(monthStart) && due.Before(monthEnd)
	})
	target := listview.SumDecimal(dueThisMonth, nil, func(a domain.Account) decimal.Decimal { return a.OriginalAmount })
	collected := listview.SumDecimal(dueThisMonth, nil, func(a domain.Account) decimal.Decimal { return a.PaidAmount })

	return &domain.FinancialDashboard{
		Accounts:      accStats,
		Transactions:  txStats,
		MonthlyTrend:  MonthlyTrend(txs, now, trendMonths),
		TopCategories: top,
		GoalPct:       listview.PercentDecimal(collected, target),
		GeneratedAt:   now.UTC(),
	}, nil
}

// MonthlyTrend sums completed income and expense for the last n months,
// oldest first. Months without entries are present with zeros.
func MonthlyTrend(txs []domain.Transaction, now time.Time, n int) []domain.MonthlyTrend {
	buckets := make(map[string]*domain.MonthlyTrend, n)
	keys := make([]string, 0, n)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(n - 1), 0)
	for i := 0; i < n; i++ {
		k := first.AddDate(0, i, 0).Format("2006-01")
		buckets[k] = &domain.MonthlyTrend{Month: k, Income: decimal.Zero, Expense: decimal.Zero, Net: decimal.Zero}
		keys = append(keys, k)
	}

	for _, t := range txs {
		if t.Status != domain.TransactionCompleted {
			continue
		}
		d, err := t.Date.Time()
		if err != nil {
			continue
		}
		b, ok := buckets[d.In(now.Location()).Format("2006-01")]
		if !ok {
			continue
		}
		switch t.Type {
		case domain.TransactionIncome:
			b.Income = b.Income.Add(t.Amount)
		case domain.TransactionExpense:
			b.Expense = b.Expense.Add(t.Amount)
		}
	}

	sort.Strings(keys)
	out := make([]domain.MonthlyTrend, 0, n)
	for _, k := range keys {
		b := buckets[k]
		b.Net = b.Income.Sub(b.Expense)
		out = append(out, *b)
	}
	return out
}
