// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, value T)
	Delete(ctx context.Context, key string)
}

// MessageGateway delivers outbound WhatsApp messages.
type MessageGateway interface {
	Send(ctx context.Context, msg *domain.OutboundMessage) (*domain.GatewayReceipt, error)
}

// ReminderQueue schedules billing reminders for background delivery.
type ReminderQueue interface {
	EnqueueReminder(ctx context.Context, task *domain.ReminderTask) error
}

// Broadcaster pushes inbox events to the connected clients of a tenant.
type Broadcaster interface {
	Broadcast(tenantID string, ev domain.InboxEvent)
}

// Pinger is implemented by every backend probed by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}
