// Package format renders values the way the back-office shows them:
// BRL currency, pt-BR dates and localized status labels.
package format

import (
	"strings"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// BRL formats an amount as "R$ 1.234,56". Negative values keep the sign
// in front of the symbol.
func BRL(v decimal.Decimal) string {
	f, _ := v.Round(2).Float64()
	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	return sign + "R$ " + humanize.FormatFloat("#.###,##", f)
}

// Date formats t as dd/mm/yyyy.
func Date(t time.Time) string {
	return t.Format("02/01/2006")
}

// Percent formats a percentage with one decimal, "12,5%".
func Percent(p float64) string {
	return humanize.FormatFloat("#.###,#", p) + "%"
}

var reservationLabels = map[domain.ReservationStatus]string{
	domain.ReservationPending:    "Pendente",
	domain.ReservationConfirmed:  "Confirmada",
	domain.ReservationCheckedIn:  "Check-in realizado",
	domain.ReservationCheckedOut: "Check-out realizado",
	domain.ReservationCancelled:  "Cancelada",
	domain.ReservationVisit:      "Visita",
}

// ReservationStatusLabel returns the pt-BR label of a reservation status.
func ReservationStatusLabel(s domain.ReservationStatus) string {
	if l, ok := reservationLabels[s]; ok {
		return l
	}
	return string(s)
}

var accountLabels = map[domain.AccountStatus]string{
	domain.AccountPending:       "Pendente",
	domain.AccountPartiallyPaid: "Pago parcialmente",
	domain.AccountPaid:          "Pago",
	domain.AccountOverdue:       "Vencido",
	domain.AccountCancelled:     "Cancelado",
	domain.AccountRefunded:      "Estornado",
	domain.AccountNegotiating:   "Em negociação",
	domain.AccountWrittenOff:    "Baixado",
	domain.AccountScheduled:     "Agendado",
}

// AccountStatusLabel returns the pt-BR label of an account status.
func AccountStatusLabel(s domain.AccountStatus) string {
	if l, ok := accountLabels[s]; ok {
		return l
	}
	return string(s)
}

// Chip colors used by the status badges.
const (
	ColorDefault = "default"
	ColorInfo    = "info"
	ColorSuccess = "success"
	ColorWarning = "warning"
	ColorError   = "error"
)

// AccountStatusColor returns the badge color of an account status.
func AccountStatusColor(s domain.AccountStatus) string {
	switch s {
	case domain.AccountPaid:
		return ColorSuccess
	case domain.AccountOverdue, domain.AccountWrittenOff:
		return ColorError
	case domain.AccountPartiallyPaid, domain.AccountNegotiating:
		return ColorWarning
	case domain.AccountScheduled, domain.AccountPending:
		return ColorInfo
	default:
		return ColorDefault
	}
}

// ReservationStatusColor returns the badge color of a reservation status.
func ReservationStatusColor(s domain.ReservationStatus) string {
	switch s {
	case domain.ReservationConfirmed, domain.ReservationCheckedIn:
		return ColorSuccess
	case domain.ReservationPending, domain.ReservationVisit:
		return ColorWarning
	case domain.ReservationCancelled:
		return ColorError
	default:
		return ColorDefault
	}
}

// ReminderMessage fills the reminder template placeholders.
func ReminderMessage(template string, t domain.ReminderTask) string {
	if strings.TrimSpace(template) == "" {
		template = domain.DefaultReminderTemplate
	}
	r := strings.NewReplacer(
		"{{cliente}}", t.ClientName,
		"{{valor}}", BRL(t.Amount),
		"{{vencimento}}", Date(t.DueDate),
		"{{descricao}}", t.Description,
	)
	return r.Replace(template)
}
