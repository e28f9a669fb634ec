package listview

import (
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
)

// ============================================================
// Filter records, one per list screen
// ============================================================

// ReservationFilter narrows the reservations list. From/To bound check-in.
type ReservationFilter struct {
	Search        string
	Status        string
	PaymentStatus string
	Source        string
	PropertyID    string
	From, To      time.Time
}

// Predicates returns the active predicates of f.
func (f ReservationFilter) Predicates() []Predicate[domain.ReservationRow] {
	return append(f.attributes(), Within(f.From, f.To, func(r domain.ReservationRow) (time.Time, bool) {
		t, err := r.CheckIn.Time()
		return t, err == nil
	}))
}

// StayPredicates selects the stays behind occupancy: the same attribute
// filters, but any stay overlapping From/To counts, whatever its check-in.
func (f ReservationFilter) StayPredicates() []Predicate[domain.ReservationRow] {
	return append(f.attributes(), overlaps(f.From, f.To))
}

func (f ReservationFilter) attributes() []Predicate[domain.ReservationRow] {
	return []Predicate[domain.ReservationRow]{
		MatchText(f.Search, func(r domain.ReservationRow) []string {
			return []string{r.ClientName, r.PropertyName, r.ID}
		}),
		Equals(f.Status, func(r domain.ReservationRow) domain.ReservationStatus { return r.Status }),
		Equals(f.PaymentStatus, func(r domain.ReservationRow) domain.PaymentStatus { return r.PaymentStatus }),
		Equals(f.Source, func(r domain.ReservationRow) domain.ReservationSource { return r.Source }),
		Equals(f.PropertyID, func(r domain.ReservationRow) string { return r.PropertyID }),
	}
}

func overlaps(from, to time.Time) Predicate[domain.ReservationRow] {
	if from.IsZero() && to.IsZero() {
		return nil
	}
	return func(r domain.ReservationRow) bool {
		if !r.DatesValid {
			return false
		}
		in, _ := r.CheckIn.Time()
		out, _ := r.CheckOut.Time()
		if !to.IsZero() && !in.Before(to) {
			return false
		}
		return from.IsZero() || out.After(from)
	}
}

// AccountFilter narrows the accounts list. From/To bound the due date.
type AccountFilter struct {
	Search      string
	Status      string
	Type        string
	Category    string
	From, To    time.Time
	OverdueOnly bool
	Now         time.Time
}

func (f AccountFilter) Predicates() []Predicate[domain.Account] {
	preds := []Predicate[domain.Account]{
		MatchText(f.Search, func(a domain.Account) []string {
			return []string{a.Description, a.Counterparty, a.Category, a.ID}
		}),
		Equals(f.Status, func(a domain.Account) domain.AccountStatus { return a.Status }),
		Equals(f.Type, func(a domain.Account) domain.AccountType { return a.Type }),
		Equals(f.Category, func(a domain.Account) string { return a.Category }),
		Within(f.From, f.To, func(a domain.Account) (time.Time, bool) {
			t, err := a.DueDate.Time()
			return t, err == nil
		}),
	}
	if f.OverdueOnly {
		now := f.Now
		if now.IsZero() {
			now = time.Now()
		}
		preds = append(preds, func(a domain.Account) bool { return IsOverdue(a, now) })
	}
	return preds
}

// IsOverdue reports whether an open account is past its due date, or is
// already flagged OVERDUE.
func IsOverdue(a domain.Account, now time.Time) bool {
	if a.Status == domain.AccountOverdue {
		return true
	}
	if !a.Status.Open() || a.Status == domain.AccountScheduled {
		return false
	}
	due, err := a.DueDate.Time()
	if err != nil {
		return false
	}
	return startOfDay(due).Before(startOfDay(now))
}

// TransactionFilter narrows the cash book. From/To bound the transaction date.
type TransactionFilter struct {
	Search        string
	Type          string
	Status        string
	Category      string
	PaymentMethod string
	From, To      time.Time
}

func (f TransactionFilter) Predicates() []Predicate[domain.Transaction] {
	return []Predicate[domain.Transaction]{
		MatchText(f.Search, func(t domain.Transaction) []string {
			return []string{t.Description, t.Category, t.Notes, t.ID}
		}),
		Equals(f.Type, func(t domain.Transaction) domain.TransactionType { return t.Type }),
		Equals(f.Status, func(t domain.Transaction) domain.TransactionStatus { return t.Status }),
		Equals(f.Category, func(t domain.Transaction) string { return t.Category }),
		Equals(f.PaymentMethod, func(t domain.Transaction) domain.PaymentMethod { return t.PaymentMethod }),
		Within(f.From, f.To, func(t domain.Transaction) (time.Time, bool) {
			d, err := t.Date.Time()
			return d, err == nil
		}),
	}
}

// ConversationFilter narrows the inbox.
type ConversationFilter struct {
	Search   string
	Status   string
	Priority string
	Starred  *bool
	Unread   *bool
}

func (f ConversationFilter) Predicates() []Predicate[domain.Conversation] {
	return []Predicate[domain.Conversation]{
		MatchText(f.Search, func(c domain.Conversation) []string {
			return []string{c.ClientName, c.ClientPhone, c.LastMessage, c.ID}
		}),
		Equals(f.Status, func(c domain.Conversation) domain.ConversationStatus { return c.Status }),
		Equals(f.Priority, func(c domain.Conversation) domain.Priority { return c.Priority }),
		Flag(f.Starred, func(c domain.Conversation) bool { return c.IsStarred }),
		Flag(f.Unread, func(c domain.Conversation) bool { return c.UnreadCount > 0 }),
	}
}

// VisitFilter narrows the visits list. From/To bound the scheduled date.
type VisitFilter struct {
	Status     string
	PropertyID string
	From, To   time.Time
}

func (f VisitFilter) Predicates() []Predicate[domain.VisitRow] {
	return []Predicate[domain.VisitRow]{
		Equals(f.Status, func(v domain.VisitRow) domain.VisitStatus { return v.Status }),
		Equals(f.PropertyID, func(v domain.VisitRow) string { return v.PropertyID }),
		Within(f.From, f.To, func(v domain.VisitRow) (time.Time, bool) {
			t, err := v.ScheduledAt.Time()
			return t, err == nil
		}),
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
