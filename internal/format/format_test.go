package format_test

import (
	"testing"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/format"

	"github.com/shopspring/decimal"
)

func TestBRL(t *testing.T) {
	cases := map[string]string{
		"1234.5":  "R$ 1.234,50",
		"0":       "R$ 0,00",
		"-89.9":   "-R$ 89,90",
		"1000000": "R$ 1.000.000,00",
	}
	for in, want := range cases {
		if got := format.BRL(decimal.RequireFromString(in)); got != want {
			t.Errorf("BRL(%s): expected %q, got %q", in, want, got)
		}
	}
}

func TestReminderMessage(t *testing.T) {
	task := domain.ReminderTask{
		ClientName:  "Maria",
		Description: "Diária extra",
		Amount:      decimal.RequireFromString("350.00"),
		DueDate:     time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
	}
	got := format.ReminderMessage("{{cliente}}: {{descricao}} de {{valor}} até {{vencimento}}", task)
	want := "Maria: Diária extra de R$ 350,00 até 10/06/2024"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestReminderMessage_DefaultTemplate(t *testing.T) {
	got := format.ReminderMessage("  ", domain.ReminderTask{ClientName: "João", Amount: decimal.NewFromInt(10)})
	if got == "" || got == "  " {
		t.Fatal("expected default template to be used")
	}
}

func TestStatusLabels(t *testing.T) {
	if got := format.AccountStatusLabel(domain.AccountWrittenOff); got != "Baixado" {
		t.Errorf("unexpected label %q", got)
	}
	if got := format.AccountStatusColor(domain.AccountOverdue); got != format.ColorError {
		t.Errorf("unexpected color %q", got)
	}
	if got := format.ReservationStatusLabel("unknown"); got != "unknown" {
		t.Errorf("unknown status should fall back to its value, got %q", got)
	}
}
