package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/queue"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

func TestReminderKey_PerAccountPerDay(t *testing.T) {
	morning := &domain.ReminderTask{TenantID: "t1", AccountID: "a1", ScheduledFor: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	evening := &domain.ReminderTask{TenantID: "t1", AccountID: "a1", ScheduledFor: time.Date(2024, 3, 10, 21, 0, 0, 0, time.UTC)}
	nextDay := &domain.ReminderTask{TenantID: "t1", AccountID: "a1", ScheduledFor: time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)}

	if queue.ReminderKey(morning) != queue.ReminderKey(evening) {
		t.Error("same account and day must share a key")
	}
	if queue.ReminderKey(morning) == queue.ReminderKey(nextDay) {
		t.Error("different days must not share a key")
	}
}

func TestReminderTaskHandler_Decodes(t *testing.T) {
	var got *domain.ReminderTask
	h := queue.ReminderTaskHandler(func(ctx context.Context, task *domain.ReminderTask) error {
		got = task
		return nil
	})

	payload := []byte(`{"tenantId":"t1","accountId":"a1","clientName":"Ana","amount":150.5}`)
	if err := h(context.Background(), asynq.NewTask(queue.TypeBillingReminder, payload)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.AccountID != "a1" || !got.Amount.Equal(decimal.RequireFromString("150.5")) {
		t.Errorf("unexpected task %+v", got)
	}
}

func TestReminderTaskHandler_BadPayloadSkipsRetry(t *testing.T) {
	h := queue.ReminderTaskHandler(func(ctx context.Context, task *domain.ReminderTask) error {
		t.Fatal("handler must not run")
		return nil
	})

	err := h(context.Background(), asynq.NewTask(queue.TypeBillingReminder, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("expected SkipRetry, got %v", err)
	}
}

func TestNewClient_BadURL(t *testing.T) {
	if _, err := queue.NewClient("ftp://nope", "billing", nil); err == nil {
		t.Error("expected error for non-redis url")
	}
}
