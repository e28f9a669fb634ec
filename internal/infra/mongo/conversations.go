package mongo

import (
	"context"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type conversationDoc struct {
	ID            string     `bson:"_id"`
	TenantID      string     `bson:"tenant_id"`
	ClientName    string     `bson:"client_name"`
	ClientPhone   string     `bson:"client_phone"`
	LastMessage   string     `bson:"last_message"`
	LastMessageAt *time.Time `bson:"last_message_at,omitempty"`
	Status        string     `bson:"status"`
	Priority      string     `bson:"priority"`
	UnreadCount   int        `bson:"unread_count"`
	IsStarred     bool       `bson:"is_starred"`
	Sentiment     string     `bson:"sentiment"`
	AIConfidence  float64    `bson:"ai_confidence"`
	Tags          []string   `bson:"tags"`
	AssignedAgent string     `bson:"assigned_agent,omitempty"`
	CreatedAt     *time.Time `bson:"created_at,omitempty"`
	UpdatedAt     *time.Time `bson:"updated_at,omitempty"`
}

func (d conversationDoc) toDomain() domain.Conversation {
	c := domain.Conversation{
		ID:            d.ID,
		TenantID:      d.TenantID,
		ClientName:    d.ClientName,
		ClientPhone:   d.ClientPhone,
		LastMessage:   d.LastMessage,
		LastMessageAt: tsOf(d.LastMessageAt),
		Status:        domain.ConversationStatus(d.Status),
		Priority:      domain.Priority(d.Priority),
		UnreadCount:   d.UnreadCount,
		IsStarred:     d.IsStarred,
		Sentiment:     domain.Sentiment(d.Sentiment),
		AIConfidence:  d.AIConfidence,
		Tags:          d.Tags,
		AssignedAgent: d.AssignedAgent,
		CreatedAt:     tsOf(d.CreatedAt),
		UpdatedAt:     tsOf(d.UpdatedAt),
	}
	c.ApplyDefaults()
	return c
}

func conversationToDoc(c *domain.Conversation) conversationDoc {
	return conversationDoc{
		ID:            c.ID,
		TenantID:      c.TenantID,
		ClientName:    c.ClientName,
		ClientPhone:   c.ClientPhone,
		LastMessage:   c.LastMessage,
		LastMessageAt: timeOf(c.LastMessageAt),
		Status:        string(c.Status),
		Priority:      string(c.Priority),
		UnreadCount:   c.UnreadCount,
		IsStarred:     c.IsStarred,
		Sentiment:     string(c.Sentiment),
		AIConfidence:  c.AIConfidence,
		Tags:          nonNil(c.Tags),
		AssignedAgent: c.AssignedAgent,
		CreatedAt:     timeOf(c.CreatedAt),
		UpdatedAt:     timeOf(c.UpdatedAt),
	}
}

func (s *Store) ListConversations(ctx context.Context, tenantID string) ([]domain.Conversation, error) {
	ctx, span := tracer.Start(ctx, "Mongo.ListConversations")
	defer span.End()

	cur, err := s.db.Collection(collConversations).Find(ctx,
		bson.M{"tenant_id": tenantID},
		options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}}),
	)
	if err != nil {
		return nil, wrap(collConversations, "", err)
	}
	var docs []conversationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, wrap(collConversations, "", err)
	}

	out := make([]domain.Conversation, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (s *Store) GetConversation(ctx context.Context, tenantID, id string) (*domain.Conversation, error) {
	ctx, span := tracer.Start(ctx, "Mongo.GetConversation")
	defer span.End()

	var d conversationDoc
	if err := s.db.Collection(collConversations).FindOne(ctx, tenantScope(tenantID, id)).Decode(&d); err != nil {
		return nil, wrap("conversation", id, err)
	}
	c := d.toDomain()
	return &c, nil
}

func (s *Store) FindConversationByPhone(ctx context.Context, tenantID, phone string) (*domain.Conversation, error) {
	ctx, span := tracer.Start(ctx, "Mongo.FindConversationByPhone")
	defer span.End()

	var d conversationDoc
	err := s.db.Collection(collConversations).FindOne(ctx,
		bson.M{"tenant_id": tenantID, "client_phone": phone},
		options.FindOne().SetSort(bson.D{{Key: "last_message_at", Value: -1}}),
	).Decode(&d)
	if err != nil {
		return nil, wrap("conversation", phone, err)
	}
	c := d.toDomain()
	return &c, nil
}

// SaveConversation upserts the whole document. Only used to open new threads;
// updates go through PatchConversation and RecordActivity.
func (s *Store) SaveConversation(ctx context.Context, c *domain.Conversation) error {
	ctx, span := tracer.Start(ctx, "Mongo.SaveConversation")
	defer span.End()

	_, err := s.db.Collection(collConversations).ReplaceOne(ctx,
		tenantScope(c.TenantID, c.ID),
		conversationToDoc(c),
		options.Replace().SetUpsert(true),
	)
	return wrap(collConversations, c.ID, err)
}

// PatchConversation applies the non-nil fields and returns the updated document.
func (s *Store) PatchConversation(ctx context.Context, tenantID, id string, patch domain.ConversationPatch) (*domain.Conversation, error) {
	ctx, span := tracer.Start(ctx, "Mongo.PatchConversation")
	defer span.End()

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.IsStarred != nil {
		set["is_starred"] = *patch.IsStarred
	}
	if patch.UnreadCount != nil {
		set["unread_count"] = *patch.UnreadCount
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}

	var d conversationDoc
	err := s.db.Collection(collConversations).FindOneAndUpdate(ctx,
		tenantScope(tenantID, id),
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return nil, wrap("conversation", id, err)
	}
	c := d.toDomain()
	return &c, nil
}

// RecordActivity updates the preview, bumps unread_count and optionally
// reopens the thread in a single pipeline update.
func (s *Store) RecordActivity(ctx context.Context, tenantID, id string, act domain.ConversationActivity) (*domain.Conversation, error) {
	ctx, span := tracer.Start(ctx, "Mongo.RecordActivity")
	defer span.End()

	return s.updateConversation(ctx, tenantID, id, activityUpdate(act))
}

func (s *Store) ToggleStar(ctx context.Context, tenantID, id string) (*domain.Conversation, error) {
	ctx, span := tracer.Start(ctx, "Mongo.ToggleStar")
	defer span.End()

	return s.updateConversation(ctx, tenantID, id, bson.A{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "is_starred", Value: bson.D{{Key: "$not", Value: bson.A{"$is_starred"}}}},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	})
}

func (s *Store) updateConversation(ctx context.Context, tenantID, id string, update any) (*domain.Conversation, error) {
	var d conversationDoc
	err := s.db.Collection(collConversations).FindOneAndUpdate(ctx,
		tenantScope(tenantID, id),
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return nil, wrap("conversation", id, err)
	}
	c := d.toDomain()
	return &c, nil
}

// activityUpdate builds the aggregation pipeline for RecordActivity.
// Message text is wrapped in $literal so content starting with "$" is not
// read as a field path.
func activityUpdate(act domain.ConversationActivity) bson.A {
	set := bson.D{
		{Key: "last_message", Value: literal(act.LastMessage)},
		{Key: "last_message_at", Value: timeOf(act.LastMessageAt)},
		{Key: "updated_at", Value: timeOf(act.UpdatedAt)},
		{Key: "unread_count", Value: bson.D{{Key: "$add", Value: bson.A{
			bson.D{{Key: "$ifNull", Value: bson.A{"$unread_count", 0}}},
			act.UnreadDelta,
		}}}},
	}
	if act.Sentiment != "" {
		set = append(set, bson.E{Key: "sentiment", Value: literal(string(act.Sentiment))})
	}
	if act.AIConfidence != nil {
		set = append(set, bson.E{Key: "ai_confidence", Value: *act.AIConfidence})
	}
	if act.Reopen {
		set = append(set, bson.E{Key: "status", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$in", Value: bson.A{"$status", bson.A{
				string(domain.ConversationArchived),
				string(domain.ConversationResolved),
			}}}},
			string(domain.ConversationActive),
			"$status",
		}}}})
	}
	return bson.A{bson.D{{Key: "$set", Value: set}}}
}

func literal(v string) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}
