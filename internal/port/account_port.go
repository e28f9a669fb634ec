package port

import (
	"context"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
)

// AccountStore handles accounts payable/receivable data operations.
type AccountStore interface {
	ListAccounts(ctx context.Context, tenantID string) ([]domain.Account, error)
	GetAccount(ctx context.Context, tenantID, id string) (*domain.Account, error)
	CreateAccounts(ctx context.Context, accounts []domain.Account) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, a *domain.Account) (*domain.Account, error)
	DeleteAccount(ctx context.Context, tenantID, id string) error
	// MarkOverdue flips PENDING accounts due before the given day to OVERDUE
	// and returns how many rows changed.
	MarkOverdue(ctx context.Context, tenantID string, before time.Time) (int, error)
}

// TransactionStore handles cash-book data operations.
type TransactionStore interface {
	ListTransactions(ctx context.Context, tenantID string) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, tenantID, id string) (*domain.Transaction, error)
	CreateTransaction(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, tenantID, id string) error
}
