// Package mongo stores the inbox (conversations, messages) and the cash book
// (transactions) as tenant-scoped MongoDB documents.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("mongo")

const (
	collConversations = "conversations"
	collMessages      = "messages"
	collTransactions  = "transactions"
)

// Store implements the document-backed ports on a single database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// Connect dials the cluster and verifies it answers a ping.
func Connect(ctx context.Context, uri, database string, logger *zap.Logger) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetConnectTimeout(5 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	s := &Store{client: client, db: client.Database(database), logger: logger}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return s, nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the list and lookup queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collConversations: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "last_message_at", Value: -1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "client_phone", Value: 1}}},
		},
		collMessages: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "conversation_id", Value: 1}, {Key: "timestamp", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "timestamp", Value: 1}}},
		},
		collTransactions: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "date", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// wrap maps driver errors onto domain errors.
func wrap(coll, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &domain.ErrNotFound{Resource: coll, ID: id}
	}
	return &domain.ErrExternalService{Service: "mongo/" + coll, Err: err}
}

func tenantScope(tenantID, id string) bson.M {
	return bson.M{"_id": id, "tenant_id": tenantID}
}

func timeOf(ts domain.Timestamp) *time.Time {
	t, err := ts.Time()
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func tsOf(t *time.Time) domain.Timestamp {
	if t == nil {
		return domain.Timestamp{}
	}
	return domain.NativeTimestamp(*t)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
