package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const accountColumns = `id, tenant_id, type, category, description, coalesce(counterparty, ''),
	original_amount, paid_amount, remaining_amount, due_date, status, interest_rate, fine_rate,
	coalesce(installment_number, 0), coalesce(total_installments, 0),
	parent_account_id, reservation_id, property_id, client_id,
	coalesce(tags, '{}'), coalesce(payments, '[]'::jsonb), created_at`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var (
		a                           domain.Account
		typ, status                 string
		due, crAt                   *time.Time
		parent, reservation, propID *string
		clientID                    *string
		payments                    []byte
	)
	if err := row.Scan(&a.ID, &a.TenantID, &typ, &a.Category, &a.Description, &a.Counterparty,
		&a.OriginalAmount, &a.PaidAmount, &a.RemainingAmount, &due, &status, &a.InterestRate, &a.FineRate,
		&a.InstallmentNumber, &a.TotalInstallments,
		&parent, &reservation, &propID, &clientID,
		&a.Tags, &payments, &crAt); err != nil {
		return a, err
	}
	a.Type = domain.AccountType(typ)
	a.Status = domain.AccountStatus(status)
	a.DueDate = tsOf(due)
	a.CreatedAt = tsOf(crAt)
	a.ParentAccountID = str(parent)
	a.ReservationID = str(reservation)
	a.PropertyID = str(propID)
	a.ClientID = str(clientID)
	a.Tags = nonNil(a.Tags)
	a.Payments = []domain.Payment{}
	if len(payments) > 0 {
		if err := json.Unmarshal(payments, &a.Payments); err != nil {
			return a, fmt.Errorf("decode payments of account %s: %w", a.ID, err)
		}
	}
	return a, nil
}

func accountArgs(a *domain.Account) ([]any, error) {
	payments, err := json.Marshal(a.Payments)
	if err != nil {
		return nil, err
	}
	if a.Payments == nil {
		payments = []byte("[]")
	}
	return []any{
		a.TenantID, a.ID, a.Type, a.Category, a.Description, a.Counterparty,
		a.OriginalAmount, a.PaidAmount, a.RemainingAmount, timeParam(a.DueDate), a.Status,
		a.InterestRate, a.FineRate, a.InstallmentNumber, a.TotalInstallments,
		nullable(a.ParentAccountID), nullable(a.ReservationID), nullable(a.PropertyID), nullable(a.ClientID),
		nonNil(a.Tags), payments,
	}, nil
}

func (s *Store) ListAccounts(ctx context.Context, tenantID string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListAccounts")
	defer span.End()

	rows, err := s.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 ORDER BY due_date`, tenantID)
	if err != nil {
		return nil, wrap("accounts", "", err)
	}
	defer rows.Close()

	out := []domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, wrap("accounts", "", err)
		}
		out = append(out, a)
	}
	return out, wrap("accounts", "", rows.Err())
}

func (s *Store) GetAccount(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetAccount")
	defer span.End()

	a, err := scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, wrap("account", id, err)
	}
	return &a, nil
}

const insertAccount = `
	INSERT INTO accounts (tenant_id, id, type, category, description, counterparty,
		original_amount, paid_amount, remaining_amount, due_date, status, interest_rate, fine_rate,
		installment_number, total_installments, parent_account_id, reservation_id, property_id, client_id,
		tags, payments, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, now())
	RETURNING ` + accountColumns

// CreateAccounts inserts the batch in one transaction.
func (s *Store) CreateAccounts(ctx context.Context, accounts []domain.Account) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Postgres.CreateAccounts")
	defer span.End()

	out := make([]domain.Account, 0, len(accounts))
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for i := range accounts {
			a := accounts[i]
			if a.ID == "" {
				a.ID = uuid.New().String()
			}
			args, err := accountArgs(&a)
			if err != nil {
				return err
			}
			created, err := scanAccount(tx.QueryRow(ctx, insertAccount, args...))
			if err != nil {
				return err
			}
			out = append(out, created)
		}
		return nil
	})
	if err != nil {
		return nil, wrap("accounts", "", err)
	}
	return out, nil
}

func (s *Store) UpdateAccount(ctx context.Context, in *domain.Account) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Postgres.UpdateAccount")
	defer span.End()

	args, err := accountArgs(in)
	if err != nil {
		return nil, wrap("account", in.ID, err)
	}
	a, err := scanAccount(s.pool.QueryRow(ctx, `
		UPDATE accounts
		SET type = $3, category = $4, description = $5, counterparty = $6,
		    original_amount = $7, paid_amount = $8, remaining_amount = $9, due_date = $10, status = $11,
		    interest_rate = $12, fine_rate = $13, installment_number = $14, total_installments = $15,
		    parent_account_id = $16, reservation_id = $17, property_id = $18, client_id = $19,
		    tags = $20, payments = $21
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+accountColumns, args...))
	if err != nil {
		return nil, wrap("account", in.ID, err)
	}
	return &a, nil
}

func (s *Store) DeleteAccount(ctx context.Context, tenantID, id string) error {
	ctx, span := tracer.Start(ctx, "Postgres.DeleteAccount")
	defer span.End()

	ct, err := s.pool.Exec(ctx, `DELETE FROM accounts WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return wrap("account", id, err)
	}
	if ct.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "account", ID: id}
	}
	return nil
}

func (s *Store) MarkOverdue(ctx context.Context, tenantID string, before time.Time) (int, error) {
	ctx, span := tracer.Start(ctx, "Postgres.MarkOverdue")
	defer span.End()

	ct, err := s.pool.Exec(ctx, `
		UPDATE accounts SET status = $2
		WHERE tenant_id = $1 AND status = $3 AND due_date < $4::date`,
		tenantID, domain.AccountOverdue, domain.AccountPending, before.Format("2006-01-02"))
	if err != nil {
		return 0, wrap("accounts", "", err)
	}
	n := int(ct.RowsAffected())
	if n > 0 {
		s.logger.Info("postgres: accounts flagged overdue", zap.String("tenant_id", tenantID), zap.Int("count", n))
	}
	return n, nil
}
