package port

import (
	"context"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
)

// ConversationStore handles inbox threads.
type ConversationStore interface {
	ListConversations(ctx context.Context, tenantID string) ([]domain.Conversation, error)
	GetConversation(ctx context.Context, tenantID, id string) (*domain.Conversation, error)
	// FindConversationByPhone returns domain.ErrNotFound when no thread exists for phone.
	FindConversationByPhone(ctx context.Context, tenantID, phone string) (*domain.Conversation, error)
	SaveConversation(ctx context.Context, c *domain.Conversation) error
	PatchConversation(ctx context.Context, tenantID, id string, patch domain.ConversationPatch) (*domain.Conversation, error)
	// RecordActivity applies act atomically and returns the updated thread.
	RecordActivity(ctx context.Context, tenantID, id string, act domain.ConversationActivity) (*domain.Conversation, error)
	// ToggleStar flips the star flag in place and returns the updated thread.
	ToggleStar(ctx context.Context, tenantID, id string) (*domain.Conversation, error)
}

// MessageStore handles conversation timelines.
type MessageStore interface {
	ListMessages(ctx context.Context, tenantID, conversationID string, limit int) ([]domain.Message, error)
	ListMessagesSince(ctx context.Context, tenantID string, since time.Time) ([]domain.Message, error)
	InsertMessage(ctx context.Context, m *domain.Message) error
	CommitMessage(ctx context.Context, tenantID, id, gatewayID string) (*domain.Message, error)
	DeleteMessage(ctx context.Context, tenantID, id string) error
}
