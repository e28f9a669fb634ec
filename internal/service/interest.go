package service

import (
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	hundred     = decimal.NewFromInt(100)
	daysInMonth = decimal.NewFromInt(30)
)

// CalculateInterestAndFees computes what is owed on a at the given instant:
// simple daily interest (interestRate% per 30 days) on the remaining amount
// plus a one-time fine (fineRate%) once the due date has passed.
// Earlier payments settled the charges up to their date, so interest accrues
// from the last payment and the fine is not charged again once paid.
// Closed accounts and accounts not yet due carry no charges.
func CalculateInterestAndFees(a *domain.Account, at time.Time) domain.InterestCalculation {
	calc := domain.InterestCalculation{
		AccountID:    a.ID,
		Principal:    a.RemainingAmount,
		Interest:     decimal.Zero,
		Fine:         decimal.Zero,
		CalculatedAt: domain.NativeTimestamp(at),
	}

	due, err := a.DueDate.Time()
	if err == nil && a.Status.Open() && a.RemainingAmount.IsPositive() {
		due = due.In(at.Location())
		if days := daysBetween(due, at); days > 0 {
			calc.DaysOverdue = days
			settled, finePaid := settledCharges(a.Payments, due)
			if accrued := daysBetween(settled, at); accrued > 0 {
				calc.Interest = a.RemainingAmount.
					Mul(a.InterestRate).Div(hundred).
					Div(daysInMonth).
					Mul(decimal.NewFromInt(int64(accrued))).
					RoundBank(2)
			}
			if !finePaid {
				calc.Fine = a.RemainingAmount.Mul(a.FineRate).Div(hundred).RoundBank(2)
			}
		}
	}

	calc.Total = calc.Principal.Add(calc.Interest).Add(calc.Fine)
	return calc
}

// settledCharges returns the date up to which interest was already paid
// (never before due) and whether a payment already carried the fine.
func settledCharges(payments []domain.Payment, due time.Time) (time.Time, bool) {
	settled, finePaid := due, false
	for _, p := range payments {
		if p.Fine.IsPositive() {
			finePaid = true
		}
		paidAt, err := p.PaidAt.Time()
		if err != nil {
			continue
		}
		if paidAt = paidAt.In(due.Location()); paidAt.After(settled) {
			settled = paidAt
		}
	}
	return settled, finePaid
}

// SplitInstallments divides base into n monthly accounts. Each one gets
// original/n truncated to cents; the last absorbs the remainder.
func SplitInstallments(base domain.Account, n int, groupID string) []domain.Account {
	if n < 2 {
		return []domain.Account{base}
	}
	due := base.DueDate.OrZero()
	share := base.OriginalAmount.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	last := base.OriginalAmount.Sub(share.Mul(decimal.NewFromInt(int64(n - 1))))

	out := make([]domain.Account, 0, n)
	for i := 0; i < n; i++ {
		a := base
		a.Tags = append([]string(nil), base.Tags...)
		a.Payments = []domain.Payment{}
		a.InstallmentNumber = i + 1
		a.TotalInstallments = n
		a.ParentAccountID = groupID
		a.OriginalAmount = share
		if i == n-1 {
			a.OriginalAmount = last
		}
		a.PaidAmount = decimal.Zero
		a.RemainingAmount = a.OriginalAmount
		if !due.IsZero() {
			a.DueDate = domain.NativeTimestamp(due.AddDate(0, i, 0))
		}
		out = append(out, a)
	}
	return out
}
