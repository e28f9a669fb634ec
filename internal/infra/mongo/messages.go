package mongo

import (
	"context"
	"slices"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type messageMetadataDoc struct {
	Delivered  bool   `bson:"delivered"`
	Read       bool   `bson:"read"`
	SenderName string `bson:"sender_name,omitempty"`
	MediaURL   string `bson:"media_url,omitempty"`
	MediaMime  string `bson:"media_mime,omitempty"`
	FileName   string `bson:"file_name,omitempty"`
	GatewayID  string `bson:"gateway_id,omitempty"`
}

type messageDoc struct {
	ID             string             `bson:"_id"`
	TenantID       string             `bson:"tenant_id"`
	ConversationID string             `bson:"conversation_id"`
	Content        string             `bson:"content"`
	Timestamp      *time.Time         `bson:"timestamp,omitempty"`
	Sender         string             `bson:"sender"`
	Type           string             `bson:"type"`
	Status         string             `bson:"status"`
	Delivery       string             `bson:"delivery"`
	Metadata       messageMetadataDoc `bson:"metadata"`
}

func (d messageDoc) toDomain() domain.Message {
	m := domain.Message{
		ID:             d.ID,
		TenantID:       d.TenantID,
		ConversationID: d.ConversationID,
		Content:        d.Content,
		Timestamp:      tsOf(d.Timestamp),
		Sender:         domain.MessageSender(d.Sender),
		Type:           domain.MessageType(d.Type),
		Status:         domain.MessageStatus(d.Status),
		Delivery:       domain.DeliveryState(d.Delivery),
		Metadata: domain.MessageMetadata{
			Delivered:  d.Metadata.Delivered,
			Read:       d.Metadata.Read,
			SenderName: d.Metadata.SenderName,
			MediaURL:   d.Metadata.MediaURL,
			MediaMime:  d.Metadata.MediaMime,
			FileName:   d.Metadata.FileName,
			GatewayID:  d.Metadata.GatewayID,
		},
	}
	if !m.Type.Valid() {
		m.Type = domain.MessageText
	}
	// Inbound messages and legacy documents carry no delivery state.
	if m.Delivery == "" {
		m.Delivery = domain.DeliveryCommitted
	}
	return m
}

func messageToDoc(m *domain.Message) messageDoc {
	return messageDoc{
		ID:             m.ID,
		TenantID:       m.TenantID,
		ConversationID: m.ConversationID,
		Content:        m.Content,
		Timestamp:      timeOf(m.Timestamp),
		Sender:         string(m.Sender),
		Type:           string(m.Type),
		Status:         string(m.Status),
		Delivery:       string(m.Delivery),
		Metadata: messageMetadataDoc{
			Delivered:  m.Metadata.Delivered,
			Read:       m.Metadata.Read,
			SenderName: m.Metadata.SenderName,
			MediaURL:   m.Metadata.MediaURL,
			MediaMime:  m.Metadata.MediaMime,
			FileName:   m.Metadata.FileName,
			GatewayID:  m.Metadata.GatewayID,
		},
	}
}

// ListMessages returns the latest limit messages of a conversation, oldest first.
func (s *Store) ListMessages(ctx context.Context, tenantID, conversationID string, limit int) ([]domain.Message, error) {
	ctx, span := tracer.Start(ctx, "Mongo.ListMessages")
	defer span.End()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.db.Collection(collMessages).Find(ctx,
		bson.M{"tenant_id": tenantID, "conversation_id": conversationID}, opts)
	if err != nil {
		return nil, wrap(collMessages, "", err)
	}
	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, wrap(collMessages, "", err)
	}

	out := make([]domain.Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	slices.Reverse(out)
	return out, nil
}

func (s *Store) ListMessagesSince(ctx context.Context, tenantID string, since time.Time) ([]domain.Message, error) {
	ctx, span := tracer.Start(ctx, "Mongo.ListMessagesSince")
	defer span.End()

	cur, err := s.db.Collection(collMessages).Find(ctx,
		bson.M{"tenant_id": tenantID, "timestamp": bson.M{"$gte": since.UTC()}},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}),
	)
	if err != nil {
		return nil, wrap(collMessages, "", err)
	}
	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, wrap(collMessages, "", err)
	}

	out := make([]domain.Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (s *Store) InsertMessage(ctx context.Context, m *domain.Message) error {
	ctx, span := tracer.Start(ctx, "Mongo.InsertMessage")
	defer span.End()

	_, err := s.db.Collection(collMessages).InsertOne(ctx, messageToDoc(m))
	return wrap(collMessages, m.ID, err)
}

// CommitMessage marks a pending message as accepted by the gateway.
func (s *Store) CommitMessage(ctx context.Context, tenantID, id, gatewayID string) (*domain.Message, error) {
	ctx, span := tracer.Start(ctx, "Mongo.CommitMessage")
	defer span.End()

	var d messageDoc
	err := s.db.Collection(collMessages).FindOneAndUpdate(ctx,
		tenantScope(tenantID, id),
		bson.M{"$set": bson.M{
			"delivery":            string(domain.DeliveryCommitted),
			"status":              string(domain.MessageSent),
			"metadata.gateway_id": gatewayID,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return nil, wrap("message", id, err)
	}
	m := d.toDomain()
	return &m, nil
}

func (s *Store) DeleteMessage(ctx context.Context, tenantID, id string) error {
	ctx, span := tracer.Start(ctx, "Mongo.DeleteMessage")
	defer span.End()

	res, err := s.db.Collection(collMessages).DeleteOne(ctx, tenantScope(tenantID, id))
	if err != nil {
		return wrap("message", id, err)
	}
	if res.DeletedCount == 0 {
		return &domain.ErrNotFound{Resource: "message", ID: id}
	}
	return nil
}
