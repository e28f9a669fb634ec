package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/listview"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/port"

	"go.uber.org/zap"
)

// TransactionService manages the cash book.
type TransactionService struct {
	store   port.TransactionStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewTransactionService(store port.TransactionStore, metrics *observability.Metrics, logger *zap.Logger) *TransactionService {
	return &TransactionService{store: store, metrics: metrics, logger: logger}
}

func (s *TransactionService) ListTransactions(ctx context.Context, tenantID string, f listview.TransactionFilter, pr PageRequest) (resp *domain.ListResponse[domain.Transaction, domain.TransactionStats], err error) {
	ctx, span := tracer.Start(ctx, "TransactionService.ListTransactions")
	defer span.End()
	defer track(s.metrics, "transactions.list", time.Now(), &err)

	txs, err := s.store.ListTransactions(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	var issues []domain.RowIssue
	for _, t := range txs {
		if _, err := t.Date.Time(); err != nil {
			issues = append(issues, domain.RowIssue{ID: t.ID, Field: "date", Message: err.Error()})
		}
	}

	filtered := listview.Apply(txs, f.Predicates()...)
	stats := listview.TransactionStats(filtered)

	s.metrics.RecordPipeline("transactions", len(txs), len(filtered), len(issues))
	return listResponse(filtered, stats, issues, pr), nil
}

func (s *TransactionService) CreateTransaction(ctx context.Context, tenantID string, in *domain.TransactionInput) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionService.CreateTransaction")
	defer span.End()

	if err := validateTransaction(in); err != nil {
		return nil, err
	}
	t := transactionFromInput(in)
	t.TenantID = tenantID

	created, err := s.store.CreateTransaction(ctx, &t)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	s.logger.Info("transaction created",
		zap.String("tenant_id", tenantID),
		zap.String("transaction_id", created.ID),
		zap.String("type", string(created.Type)),
	)
	return s.store.GetTransaction(ctx, tenantID, created.ID)
}

func (s *TransactionService) UpdateTransaction(ctx context.Context, tenantID, id string, in *domain.TransactionInput) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionService.UpdateTransaction")
	defer span.End()

	if err := validateTransaction(in); err != nil {
		return nil, err
	}
	current, err := s.store.GetTransaction(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	t := transactionFromInput(in)
	t.ID = current.ID
	t.TenantID = tenantID
	t.AccountID = current.AccountID
	t.CreatedAt = current.CreatedAt

	return s.store.UpdateTransaction(ctx, &t)
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, tenantID, id string) error {
	ctx, span := tracer.Start(ctx, "TransactionService.DeleteTransaction")
	defer span.End()
	return s.store.DeleteTransaction(ctx, tenantID, id)
}

func transactionFromInput(in *domain.TransactionInput) domain.Transaction {
	status := in.Status
	if status == "" {
		status = domain.TransactionCompleted
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Transaction{
		Type:          in.Type,
		Category:      strings.TrimSpace(in.Category),
		Description:   strings.TrimSpace(in.Description),
		Amount:        in.Amount,
		Date:          in.Date,
		Status:        status,
		PaymentMethod: in.PaymentMethod,
		PropertyID:    in.PropertyID,
		ClientID:      in.ClientID,
		ReservationID: in.ReservationID,
		Tags:          tags,
		Notes:         in.Notes,
		IsRecurring:   in.IsRecurring,
		Recurrence:    in.Recurrence,
	}
}

func validateTransaction(in *domain.TransactionInput) error {
	fields := map[string]string{}
	if !in.Type.Valid() {
		fields["type"] = "Tipo deve ser income ou expense"
	}
	if strings.TrimSpace(in.Description) == "" {
		fields["description"] = "Informe a descrição"
	}
	if strings.TrimSpace(in.Category) == "" {
		fields["category"] = "Informe a categoria"
	}
	if !in.Amount.IsPositive() {
		fields["amount"] = "Informe um valor maior que zero"
	}
	if _, err := in.Date.Time(); err != nil {
		fields["date"] = "Data inválida"
	}
	if in.Status != "" && !in.Status.Valid() {
		fields["status"] = "Status inválido"
	}
	if in.PaymentMethod != "" && !in.PaymentMethod.Valid() {
		fields["paymentMethod"] = "Forma de pagamento inválida"
	}
	if in.IsRecurring {
		switch in.Recurrence {
		case domain.RecurrenceDaily, domain.RecurrenceWeekly, domain.RecurrenceMonthly, domain.RecurrenceYearly:
		default:
			fields["recurrence"] = "Informe a recorrência"
		}
	}
	return fieldErrors(fields)
}
