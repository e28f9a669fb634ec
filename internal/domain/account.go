package domain

import "github.com/shopspring/decimal"

func init() {
	// Amounts go over the wire as JSON numbers, which is what the back-office expects.
	decimal.MarshalJSONWithoutQuotes = true
}

// ============================================================
// Accounts payable / receivable
// ============================================================

// AccountType distinguishes money owed to and by the tenant.
type AccountType string

const (
	AccountPayable    AccountType = "payable"
	AccountReceivable AccountType = "receivable"
)

func (t AccountType) Valid() bool {
	return t == AccountPayable || t == AccountReceivable
}

// AccountStatus is the collection state of an account.
type AccountStatus string

const (
	AccountPending       AccountStatus = "PENDING"
	AccountPartiallyPaid AccountStatus = "PARTIALLY_PAID"
	AccountPaid          AccountStatus = "PAID"
	AccountOverdue       AccountStatus = "OVERDUE"
	AccountCancelled     AccountStatus = "CANCELLED"
	AccountRefunded      AccountStatus = "REFUNDED"
	AccountNegotiating   AccountStatus = "NEGOTIATING"
	AccountWrittenOff    AccountStatus = "WRITTEN_OFF"
	AccountScheduled     AccountStatus = "SCHEDULED"
)

// AccountStatuses lists every status in display order.
var AccountStatuses = []AccountStatus{
	AccountPending, AccountPartiallyPaid, AccountPaid, AccountOverdue,
	AccountCancelled, AccountRefunded, AccountNegotiating, AccountWrittenOff,
	AccountScheduled,
}

func (s AccountStatus) Valid() bool {
	for _, v := range AccountStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Open reports whether the account still expects money to move.
func (s AccountStatus) Open() bool {
	switch s {
	case AccountPaid, AccountCancelled, AccountRefunded, AccountWrittenOff:
		return false
	}
	return true
}

// Account is a single bill to collect or to pay.
type Account struct {
	ID                string          `json:"id"`
	TenantID          string          `json:"tenantId"`
	Type              AccountType     `json:"type"`
	Category          string          `json:"category"`
	Description       string          `json:"description"`
	Counterparty      string          `json:"counterparty,omitempty"`
	OriginalAmount    decimal.Decimal `json:"originalAmount"`
	PaidAmount        decimal.Decimal `json:"paidAmount"`
	RemainingAmount   decimal.Decimal `json:"remainingAmount"`
	DueDate           Timestamp       `json:"dueDate"`
	Status            AccountStatus   `json:"status"`
	InterestRate      decimal.Decimal `json:"interestRate"` // % per month
	FineRate          decimal.Decimal `json:"fineRate"`     // % charged once when overdue
	InstallmentNumber int             `json:"installmentNumber,omitempty"`
	TotalInstallments int             `json:"totalInstallments,omitempty"`
	ParentAccountID   string          `json:"parentAccountId,omitempty"`
	ReservationID     string          `json:"reservationId,omitempty"`
	PropertyID        string          `json:"propertyId,omitempty"`
	ClientID          string          `json:"clientId,omitempty"`
	Tags              []string        `json:"tags"`
	Payments          []Payment       `json:"payments"`
	CreatedAt         Timestamp       `json:"createdAt"`
}

// Payment is one settlement registered against an account.
type Payment struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Interest decimal.Decimal `json:"interest"`
	Fine     decimal.Decimal `json:"fine"`
	PaidAt   Timestamp       `json:"paidAt"`
	Method   PaymentMethod   `json:"method"`
	Notes    string          `json:"notes,omitempty"`
}

// AccountInput is the create/update payload.
type AccountInput struct {
	Type              AccountType     `json:"type"`
	Category          string          `json:"category"`
	Description       string          `json:"description"`
	Counterparty      string          `json:"counterparty,omitempty"`
	OriginalAmount    decimal.Decimal `json:"originalAmount"`
	DueDate           Timestamp       `json:"dueDate"`
	Status            AccountStatus   `json:"status,omitempty"`
	InterestRate      decimal.Decimal `json:"interestRate"`
	FineRate          decimal.Decimal `json:"fineRate"`
	TotalInstallments int             `json:"totalInstallments,omitempty"`
	ReservationID     string          `json:"reservationId,omitempty"`
	PropertyID        string          `json:"propertyId,omitempty"`
	ClientID          string          `json:"clientId,omitempty"`
	Tags              []string        `json:"tags,omitempty"`
}

// PaymentRequest is the body of POST /v1/accounts/{id}/payments.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	PaidAt Timestamp       `json:"paidAt"`
	Method PaymentMethod   `json:"method"`
	Notes  string          `json:"notes,omitempty"`
}

// InterestCalculation is the breakdown shown before a payment is confirmed.
type InterestCalculation struct {
	AccountID    string          `json:"accountId"`
	Principal    decimal.Decimal `json:"principal"`
	DaysOverdue  int             `json:"daysOverdue"`
	Interest     decimal.Decimal `json:"interest"`
	Fine         decimal.Decimal `json:"fine"`
	Total        decimal.Decimal `json:"total"`
	CalculatedAt Timestamp       `json:"calculatedAt"`
}

// AccountStats are the KPI cards of the accounts screen.
type AccountStats struct {
	Total               int                   `json:"total"`
	ByStatus            map[AccountStatus]int `json:"byStatus"`
	ReceivableTotal     decimal.Decimal       `json:"receivableTotal"`
	ReceivableRemaining decimal.Decimal       `json:"receivableRemaining"`
	PayableTotal        decimal.Decimal       `json:"payableTotal"`
	PayableRemaining    decimal.Decimal       `json:"payableRemaining"`
	OverdueCount        int                   `json:"overdueCount"`
	OverdueAmount       decimal.Decimal       `json:"overdueAmount"`
	PaidThisMonth       decimal.Decimal       `json:"paidThisMonth"`
	CollectionRatePct   float64               `json:"collectionRatePct"`
}
