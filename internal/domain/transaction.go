package domain

import "github.com/shopspring/decimal"

// ============================================================
// Financial transactions (cash book)
// ============================================================

// TransactionType is the direction of money.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// TransactionStatus of a cash-book entry.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionPending, TransactionCompleted, TransactionCancelled:
		return true
	}
	return false
}

// PaymentMethod used to settle a transaction or an account payment.
type PaymentMethod string

const (
	MethodPix          PaymentMethod = "pix"
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodDebitCard    PaymentMethod = "debit_card"
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodBoleto       PaymentMethod = "boleto"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodPix, MethodCreditCard, MethodDebitCard, MethodCash, MethodBankTransfer, MethodBoleto:
		return true
	}
	return false
}

// Recurrence of a recurring transaction.
type Recurrence string

const (
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

// Transaction is one cash-book entry.
type Transaction struct {
	ID            string            `json:"id"`
	TenantID      string            `json:"tenantId"`
	Type          TransactionType   `json:"type"`
	Category      string            `json:"category"`
	Description   string            `json:"description"`
	Amount        decimal.Decimal   `json:"amount"`
	Date          Timestamp         `json:"date"`
	Status        TransactionStatus `json:"status"`
	PaymentMethod PaymentMethod     `json:"paymentMethod,omitempty"`
	PropertyID    string            `json:"propertyId,omitempty"`
	ClientID      string            `json:"clientId,omitempty"`
	ReservationID string            `json:"reservationId,omitempty"`
	AccountID     string            `json:"accountId,omitempty"`
	Tags          []string          `json:"tags"`
	Notes         string            `json:"notes,omitempty"`
	IsRecurring   bool              `json:"isRecurring"`
	Recurrence    Recurrence        `json:"recurrence,omitempty"`
	CreatedAt     Timestamp         `json:"createdAt"`
}

// TransactionInput is the create/update payload.
type TransactionInput struct {
	Type          TransactionType   `json:"type"`
	Category      string            `json:"category"`
	Description   string            `json:"description"`
	Amount        decimal.Decimal   `json:"amount"`
	Date          Timestamp         `json:"date"`
	Status        TransactionStatus `json:"status"`
	PaymentMethod PaymentMethod     `json:"paymentMethod,omitempty"`
	PropertyID    string            `json:"propertyId,omitempty"`
	ClientID      string            `json:"clientId,omitempty"`
	ReservationID string            `json:"reservationId,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	IsRecurring   bool              `json:"isRecurring"`
	Recurrence    Recurrence        `json:"recurrence,omitempty"`
}

// CategoryTotal is the amount per category with its share of the total.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
	Pct      float64         `json:"pct"`
}

// TransactionStats are the KPI cards of the cash-book screen.
type TransactionStats struct {
	Count         int             `json:"count"`
	Income        decimal.Decimal `json:"income"`
	Expense       decimal.Decimal `json:"expense"`
	Net           decimal.Decimal `json:"net"`
	PendingAmount decimal.Decimal `json:"pendingAmount"`
	ByCategory    []CategoryTotal `json:"byCategory"`
}
