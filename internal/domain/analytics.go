package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Analytics & dashboards
// ============================================================

// AnalyticsPeriods maps the accepted ?period= values to their window.
var AnalyticsPeriods = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// ConversionAnalytics is returned by GET /v1/metrics/analytics.
type ConversionAnalytics struct {
	Period               string          `json:"period"`
	From                 time.Time       `json:"from"`
	To                   time.Time       `json:"to"`
	ConversationsCreated int             `json:"conversationsCreated"`
	MessagesInbound      int             `json:"messagesInbound"`
	MessagesOutbound     int             `json:"messagesOutbound"`
	AIHandledPct         float64         `json:"aiHandledPct"`
	AvgAIConfidence      float64         `json:"avgAiConfidence"`
	ReservationsCreated  int             `json:"reservationsCreated"`
	ReservationsFromAI   int             `json:"reservationsFromAi"`
	ConversionRatePct    float64         `json:"conversionRatePct"`
	VisitsScheduled      int             `json:"visitsScheduled"`
	VisitShowRatePct     float64         `json:"visitShowRatePct"`
	NegativeSentimentPct float64         `json:"negativeSentimentPct"`
	AvgMessagesPerThread float64         `json:"avgMessagesPerThread"`
	ReservationRevenue   decimal.Decimal `json:"reservationRevenue"`
}

// MonthlyTrend is one point of the financial dashboard trend chart.
type MonthlyTrend struct {
	Month   string          `json:"month"` // YYYY-MM
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// FinancialDashboard is returned by GET /v1/dashboard/financial.
type FinancialDashboard struct {
	Accounts      AccountStats     `json:"accounts"`
	Transactions  TransactionStats `json:"transactions"`
	MonthlyTrend  []MonthlyTrend   `json:"monthlyTrend"`
	TopCategories []CategoryTotal  `json:"topCategories"`
	GoalPct       float64          `json:"goalPct"`
	GeneratedAt   time.Time        `json:"generatedAt"`
}
