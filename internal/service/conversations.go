package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/listview"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// detailMessageLimit is how many messages GET /conversations/{id} returns.
	detailMessageLimit = 100
	// pendingWindow bounds how long a send may stay in flight before its
	// pending message is hidden from the thread.
	pendingWindow = 2 * time.Minute

	EventConversationUpdated = "conversation.updated"
	EventMessageCreated      = "message.created"
	EventMessageRemoved      = "message.removed"
)

// ConversationService runs the WhatsApp inbox.
type ConversationService struct {
	conversations port.ConversationStore
	messages      port.MessageStore
	gateway       port.MessageGateway
	broadcaster   port.Broadcaster
	metrics       *observability.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

func NewConversationService(
	conversations port.ConversationStore,
	messages port.MessageStore,
	gateway port.MessageGateway,
	broadcaster port.Broadcaster,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		gateway:       gateway,
		broadcaster:   broadcaster,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *ConversationService) ListConversations(ctx context.Context, tenantID string, f listview.ConversationFilter, pr PageRequest) (resp *domain.ListResponse[domain.Conversation, domain.ConversationStats], err error) {
	ctx, span := tracer.Start(ctx, "ConversationService.ListConversations")
	defer span.End()
	defer track(s.metrics, "conversations.list", time.Now(), &err)

	convs, err := s.conversations.ListConversations(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	convs = listview.NormalizeConversations(convs)

	filtered := listview.Apply(convs, f.Predicates()...)
	stats := listview.ConversationStats(filtered)

	s.metrics.RecordPipeline("conversations", len(convs), len(filtered), 0)
	return listResponse(filtered, stats, nil, pr), nil
}

// GetConversation loads the thread and its latest messages concurrently.
func (s *ConversationService) GetConversation(ctx context.Context, tenantID, id string) (*domain.ConversationDetail, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.GetConversation")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", id))

	var (
		conv *domain.Conversation
		msgs []domain.Message
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		conv, err = s.conversations.GetConversation(gCtx, tenantID, id)
		return err
	})
	g.Go(func() error {
		var err error
		msgs, err = s.messages.ListMessages(gCtx, tenantID, id, detailMessageLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	conv.ApplyDefaults()
	timeline := listview.NewTimeline(msgs).DropStalePending(s.now().Add(-pendingWindow))
	return &domain.ConversationDetail{Conversation: conv, Messages: timeline.Messages()}, nil
}

func (s *ConversationService) ListMessages(ctx context.Context, tenantID, conversationID string, limit int) ([]domain.Message, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.ListMessages")
	defer span.End()

	if limit <= 0 || limit > 500 {
		limit = detailMessageLimit
	}
	if _, err := s.conversations.GetConversation(ctx, tenantID, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListMessages(ctx, tenantID, conversationID, limit)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

// SendMessage stores a pending message, hands it to the gateway and then
// commits it. When the gateway fails, exactly that pending message is
// removed and the error is returned.
func (s *ConversationService) SendMessage(ctx context.Context, tenantID, conversationID string, req *domain.SendMessageRequest) (msg *domain.Message, err error) {
	ctx, span := tracer.Start(ctx, "ConversationService.SendMessage")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversationID))
	defer track(s.metrics, "messages.send", time.Now(), &err)

	req.Content = strings.TrimSpace(req.Content)
	if req.Type == "" {
		req.Type = domain.MessageText
	}
	if !req.Type.Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "Tipo de mensagem inválido"}
	}
	if req.Type == domain.MessageText && req.Content == "" {
		return nil, &domain.ErrValidation{Field: "content", Message: "Mensagem vazia"}
	}
	if req.Type != domain.MessageText && req.MediaURL == "" {
		return nil, &domain.ErrValidation{Field: "mediaUrl", Message: "Informe o arquivo"}
	}

	conv, err := s.conversations.GetConversation(ctx, tenantID, conversationID)
	if err != nil {
		return nil, err
	}

	pending := domain.Message{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		ConversationID: conversationID,
		Content:        req.Content,
		Timestamp:      domain.NativeTimestamp(s.now().UTC()),
		Sender:         domain.SenderAgent,
		Type:           req.Type,
		Status:         domain.MessageSent,
		Delivery:       domain.DeliveryPending,
		Metadata:       domain.MessageMetadata{SenderName: req.SenderName, MediaURL: req.MediaURL},
	}
	if err := s.messages.InsertMessage(ctx, &pending); err != nil {
		return nil, fmt.Errorf("insert pending message: %w", err)
	}
	s.broadcaster.Broadcast(tenantID, domain.InboxEvent{Type: EventMessageCreated, Message: &pending})

	receipt, sendErr := s.gateway.Send(ctx, &domain.OutboundMessage{
		TenantID: tenantID,
		To:       conv.ClientPhone,
		Content:  pending.Content,
		Type:     pending.Type,
		MediaURL: req.MediaURL,
	})
	if sendErr != nil {
		s.rollback(ctx, &pending, sendErr)
		return nil, sendErr
	}

	committed, err := s.messages.CommitMessage(ctx, tenantID, pending.ID, receipt.ID)
	if err != nil {
		// The gateway already accepted it; keep the pending copy visible.
		s.logger.Error("message sent but not committed",
			zap.String("tenant_id", tenantID),
			zap.String("message_id", pending.ID),
			zap.String("gateway_id", receipt.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("commit message: %w", err)
	}
	s.metrics.IncrMessage("sent")
	s.broadcaster.Broadcast(tenantID, domain.InboxEvent{Type: EventMessageCreated, Message: committed})

	updated, err := s.conversations.RecordActivity(ctx, tenantID, conv.ID, domain.ConversationActivity{
		LastMessage:   committed.Content,
		LastMessageAt: committed.Timestamp,
		UpdatedAt:     domain.NativeTimestamp(s.now().UTC()),
	})
	if err != nil {
		s.logger.Warn("conversation preview not updated", zap.String("conversation_id", conv.ID), zap.Error(err))
	} else {
		updated.ApplyDefaults()
		s.broadcaster.Broadcast(tenantID, domain.InboxEvent{Type: EventConversationUpdated, Conversation: updated})
	}
	return committed, nil
}

func (s *ConversationService) rollback(ctx context.Context, pending *domain.Message, cause error) {
	s.metrics.IncrMessage("failed")
	s.logger.Warn("gateway rejected message, rolling back",
		zap.String("tenant_id", pending.TenantID),
		zap.String("message_id", pending.ID),
		zap.Error(cause),
	)

	// The request context may already be done; removal must still happen.
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.messages.DeleteMessage(rbCtx, pending.TenantID, pending.ID); err != nil {
		var nf *domain.ErrNotFound
		if !errors.As(err, &nf) {
			s.logger.Error("pending message rollback failed", zap.String("message_id", pending.ID), zap.Error(err))
		}
	}
	failed := *pending
	failed.Delivery = domain.DeliveryFailed
	s.broadcaster.Broadcast(pending.TenantID, domain.InboxEvent{Type: EventMessageRemoved, Message: &failed})
}

// ToggleStar flips the star flag and persists it.
func (s *ConversationService) ToggleStar(ctx context.Context, tenantID, id string) (*domain.Conversation, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.ToggleStar")
	defer span.End()

	conv, err := s.conversations.ToggleStar(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.publish(tenantID, conv), nil
}

// MarkRead zeroes the unread counter.
func (s *ConversationService) MarkRead(ctx context.Context, tenantID, id string) (*domain.Conversation, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.MarkRead")
	defer span.End()

	zero := 0
	return s.patch(ctx, tenantID, id, domain.ConversationPatch{UnreadCount: &zero})
}

// Archive moves the conversation out of the active inbox.
func (s *ConversationService) Archive(ctx context.Context, tenantID, id string) (*domain.Conversation, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.Archive")
	defer span.End()

	status := domain.ConversationArchived
	return s.patch(ctx, tenantID, id, domain.ConversationPatch{Status: &status})
}

func (s *ConversationService) patch(ctx context.Context, tenantID, id string, p domain.ConversationPatch) (*domain.Conversation, error) {
	conv, err := s.conversations.PatchConversation(ctx, tenantID, id, p)
	if err != nil {
		return nil, err
	}
	return s.publish(tenantID, conv), nil
}

func (s *ConversationService) publish(tenantID string, conv *domain.Conversation) *domain.Conversation {
	conv.ApplyDefaults()
	s.broadcaster.Broadcast(tenantID, domain.InboxEvent{Type: EventConversationUpdated, Conversation: conv})
	return conv
}

// IngestInbound records a message posted by the gateway webhook, opening a
// conversation for unknown numbers.
func (s *ConversationService) IngestInbound(ctx context.Context, tenantID string, in *domain.InboundMessage) (*domain.Message, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.IngestInbound")
	defer span.End()

	phone := Digits(in.From)
	if phone == "" {
		return nil, &domain.ErrValidation{Field: "from", Message: "remetente ausente"}
	}
	if in.Type == "" {
		in.Type = domain.MessageText
	}
	if !in.Type.Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "tipo de mensagem inválido"}
	}

	now := s.now().UTC()
	receivedAt := in.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = domain.NativeTimestamp(now)
	}

	conv, err := s.conversations.FindConversationByPhone(ctx, tenantID, phone)
	var nf *domain.ErrNotFound
	switch {
	case errors.As(err, &nf):
		conv = &domain.Conversation{
			ID:          uuid.New().String(),
			TenantID:    tenantID,
			ClientName:  in.Name,
			ClientPhone: phone,
			CreatedAt:   domain.NativeTimestamp(now),
			UpdatedAt:   domain.NativeTimestamp(now),
		}
		if conv.ClientName == "" {
			conv.ClientName = phone
		}
		conv.ApplyDefaults()
		if err := s.conversations.SaveConversation(ctx, conv); err != nil {
			return nil, fmt.Errorf("open conversation: %w", err)
		}
		s.logger.Info("conversation opened", zap.String("tenant_id", tenantID), zap.String("conversation_id", conv.ID))
	case err != nil:
		return nil, err
	}

	msg := domain.Message{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		ConversationID: conv.ID,
		Content:        in.Content,
		Timestamp:      receivedAt,
		Sender:         domain.SenderUser,
		Type:           in.Type,
		Status:         domain.MessageDelivered,
		Delivery:       domain.DeliveryCommitted,
		Metadata: domain.MessageMetadata{
			Delivered:  true,
			SenderName: in.Name,
			MediaURL:   in.MediaURL,
			GatewayID:  in.GatewayID,
		},
	}
	act := domain.ConversationActivity{
		LastMessage:   msg.Content,
		LastMessageAt: msg.Timestamp,
		UpdatedAt:     domain.NativeTimestamp(now),
		Sentiment:     in.Sentiment,
	}
	if in.FromAI {
		msg.Sender = domain.SenderAI
		msg.Status = domain.MessageSent
		confidence := in.Confidence
		act.AIConfidence = &confidence
	} else {
		act.UnreadDelta = 1
		act.Reopen = true
	}

	if err := s.messages.InsertMessage(ctx, &msg); err != nil {
		return nil, fmt.Errorf("insert inbound message: %w", err)
	}
	updated, err := s.conversations.RecordActivity(ctx, tenantID, conv.ID, act)
	if err != nil {
		return nil, fmt.Errorf("update conversation: %w", err)
	}

	s.broadcaster.Broadcast(tenantID, domain.InboxEvent{Type: EventMessageCreated, Message: &msg})
	s.publish(tenantID, updated)
	return &msg, nil
}
