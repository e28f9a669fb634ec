// Package queue runs billing reminders through asynq on Redis.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("queue")

// TypeBillingReminder is the asynq task type of a single reminder.
const TypeBillingReminder = "billing:reminder"

const (
	reminderMaxRetry  = 5
	reminderUniqueTTL = 24 * time.Hour
	reminderRetention = 72 * time.Hour
)

// ReminderKey identifies the reminder of an account for a given day.
// A second enqueue with the same key on the same day is rejected.
func ReminderKey(t *domain.ReminderTask) string {
	return fmt.Sprintf("reminder:%s:%s:%s", t.TenantID, t.AccountID, t.ScheduledFor.Format("2006-01-02"))
}

// ===================== Client =====================

// Client enqueues reminder tasks.
type Client struct {
	client *asynq.Client
	queue  string
	logger *zap.Logger
}

// NewClient builds a client from a redis:// URL.
func NewClient(redisURL, queue string, logger *zap.Logger) (*Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis url: %w", err)
	}
	return &Client{client: asynq.NewClient(opt), queue: queue, logger: logger}, nil
}

// EnqueueReminder schedules task for delivery. A reminder already queued for
// the same account and day yields *domain.ErrDuplicateTask.
func (c *Client) EnqueueReminder(ctx context.Context, task *domain.ReminderTask) error {
	ctx, span := tracer.Start(ctx, "Queue.EnqueueReminder")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant.id", task.TenantID),
		attribute.String("account.id", task.AccountID),
	)

	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode reminder: %w", err)
	}

	key := ReminderKey(task)
	opts := []asynq.Option{
		asynq.Queue(c.queue),
		asynq.MaxRetry(reminderMaxRetry),
		asynq.TaskID(key),
		asynq.Unique(reminderUniqueTTL),
		asynq.Retention(reminderRetention),
	}
	if task.ScheduledFor.After(time.Now()) {
		opts = append(opts, asynq.ProcessAt(task.ScheduledFor))
	}

	info, err := c.client.EnqueueContext(ctx, asynq.NewTask(TypeBillingReminder, payload), opts...)
	if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
		return &domain.ErrDuplicateTask{Key: key}
	}
	if err != nil {
		return &domain.ErrExternalService{Service: "asynq", Err: err}
	}

	c.logger.Debug("reminder enqueued",
		zap.String("task_id", info.ID),
		zap.String("queue", info.Queue),
		zap.String("tenant_id", task.TenantID),
	)
	return nil
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// ===================== Server =====================

// ReminderHandler delivers one decoded reminder.
type ReminderHandler func(ctx context.Context, task *domain.ReminderTask) error

// Server consumes reminder tasks.
type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewServer builds a worker consuming queue with the given concurrency.
func NewServer(redisURL, queue string, concurrency int, logger *zap.Logger) (*Server, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis url: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 5
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warn("asynq task failed",
				zap.String("type", task.Type()),
				zap.Int("retry", retried),
				zap.Int("max_retry", maxRetry),
				zap.Error(err),
			)
		}),
	})
	return &Server{server: srv, mux: asynq.NewServeMux(), logger: logger}, nil
}

// HandleReminders registers the reminder handler.
func (s *Server) HandleReminders(h ReminderHandler) {
	s.mux.HandleFunc(TypeBillingReminder, ReminderTaskHandler(h))
}

// ReminderTaskHandler adapts h to an asynq handler. Undecodable payloads are
// skipped without retry.
func ReminderTaskHandler(h ReminderHandler) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var task domain.ReminderTask
		if err := json.Unmarshal(t.Payload(), &task); err != nil {
			return fmt.Errorf("decode reminder: %v: %w", err, asynq.SkipRetry)
		}
		return h(ctx, &task)
	}
}

// Run starts the workers and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	s.logger.Info("reminder worker started")
	<-ctx.Done()
	s.server.Shutdown()
	s.logger.Info("reminder worker stopped")
	return nil
}
