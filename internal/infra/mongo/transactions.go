package mongo

import (
	"context"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

// Amounts are stored as decimal strings so no precision is lost in BSON doubles.
type transactionDoc struct {
	ID            string     `bson:"_id"`
	TenantID      string     `bson:"tenant_id"`
	Type          string     `bson:"type"`
	Category      string     `bson:"category"`
	Description   string     `bson:"description"`
	Amount        string     `bson:"amount"`
	Date          *time.Time `bson:"date,omitempty"`
	Status        string     `bson:"status"`
	PaymentMethod string     `bson:"payment_method,omitempty"`
	PropertyID    string     `bson:"property_id,omitempty"`
	ClientID      string     `bson:"client_id,omitempty"`
	ReservationID string     `bson:"reservation_id,omitempty"`
	AccountID     string     `bson:"account_id,omitempty"`
	Tags          []string   `bson:"tags"`
	Notes         string     `bson:"notes,omitempty"`
	IsRecurring   bool       `bson:"is_recurring"`
	Recurrence    string     `bson:"recurrence,omitempty"`
	CreatedAt     *time.Time `bson:"created_at,omitempty"`
}

func (s *Store) transactionToDomain(d transactionDoc) domain.Transaction {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		s.logger.Warn("mongo: unparseable transaction amount",
			zap.String("transaction_id", d.ID),
			zap.String("amount", d.Amount),
		)
	}
	t := domain.Transaction{
		ID:            d.ID,
		TenantID:      d.TenantID,
		Type:          domain.TransactionType(d.Type),
		Category:      d.Category,
		Description:   d.Description,
		Amount:        amount,
		Date:          tsOf(d.Date),
		Status:        domain.TransactionStatus(d.Status),
		PaymentMethod: domain.PaymentMethod(d.PaymentMethod),
		PropertyID:    d.PropertyID,
		ClientID:      d.ClientID,
		ReservationID: d.ReservationID,
		AccountID:     d.AccountID,
		Tags:          nonNil(d.Tags),
		Notes:         d.Notes,
		IsRecurring:   d.IsRecurring,
		Recurrence:    domain.Recurrence(d.Recurrence),
		CreatedAt:     tsOf(d.CreatedAt),
	}
	if t.Status == "" {
		t.Status = domain.TransactionCompleted
	}
	return t
}

func transactionToDoc(t *domain.Transaction) transactionDoc {
	return transactionDoc{
		ID:            t.ID,
		TenantID:      t.TenantID,
		Type:          string(t.Type),
		Category:      t.Category,
		Description:   t.Description,
		Amount:        t.Amount.String(),
		Date:          timeOf(t.Date),
		Status:        string(t.Status),
		PaymentMethod: string(t.PaymentMethod),
		PropertyID:    t.PropertyID,
		ClientID:      t.ClientID,
		ReservationID: t.ReservationID,
		AccountID:     t.AccountID,
		Tags:          nonNil(t.Tags),
		Notes:         t.Notes,
		IsRecurring:   t.IsRecurring,
		Recurrence:    string(t.Recurrence),
		CreatedAt:     timeOf(t.CreatedAt),
	}
}

func (s *Store) ListTransactions(ctx context.Context, tenantID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Mongo.ListTransactions")
	defer span.End()

	cur, err := s.db.Collection(collTransactions).Find(ctx,
		bson.M{"tenant_id": tenantID},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}),
	)
	if err != nil {
		return nil, wrap(collTransactions, "", err)
	}
	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, wrap(collTransactions, "", err)
	}

	out := make([]domain.Transaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, s.transactionToDomain(d))
	}
	return out, nil
}

func (s *Store) GetTransaction(ctx context.Context, tenantID, id string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Mongo.GetTransaction")
	defer span.End()

	var d transactionDoc
	if err := s.db.Collection(collTransactions).FindOne(ctx, tenantScope(tenantID, id)).Decode(&d); err != nil {
		return nil, wrap("transaction", id, err)
	}
	t := s.transactionToDomain(d)
	return &t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, in *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Mongo.CreateTransaction")
	defer span.End()

	t := *in
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = domain.NativeTimestamp(time.Now().UTC())
	}
	if _, err := s.db.Collection(collTransactions).InsertOne(ctx, transactionToDoc(&t)); err != nil {
		return nil, wrap(collTransactions, t.ID, err)
	}
	return &t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, in *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Mongo.UpdateTransaction")
	defer span.End()

	res, err := s.db.Collection(collTransactions).ReplaceOne(ctx, tenantScope(in.TenantID, in.ID), transactionToDoc(in))
	if err != nil {
		return nil, wrap("transaction", in.ID, err)
	}
	if res.MatchedCount == 0 {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: in.ID}
	}
	return s.GetTransaction(ctx, in.TenantID, in.ID)
}

func (s *Store) DeleteTransaction(ctx context.Context, tenantID, id string) error {
	ctx, span := tracer.Start(ctx, "Mongo.DeleteTransaction")
	defer span.End()

	res, err := s.db.Collection(collTransactions).DeleteOne(ctx, tenantScope(tenantID, id))
	if err != nil {
		return wrap("transaction", id, err)
	}
	if res.DeletedCount == 0 {
		return &domain.ErrNotFound{Resource: "transaction", ID: id}
	}
	return nil
}
