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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const maxInstallments = 120

// AccountService manages accounts payable and receivable.
type AccountService struct {
	store        port.AccountStore
	transactions port.TransactionStore
	metrics      *observability.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

func NewAccountService(store port.AccountStore, transactions port.TransactionStore, metrics *observability.Metrics, logger *zap.Logger) *AccountService {
	return &AccountService{store: store, transactions: transactions, metrics: metrics, logger: logger, now: time.Now}
}

// WithClock overrides the time source.
func (s *AccountService) WithClock(now func() time.Time) *AccountService {
	s.now = now
	return s
}

func (s *AccountService) ListAccounts(ctx context.Context, tenantID string, f listview.AccountFilter, pr PageRequest) (resp *domain.ListResponse[domain.Account, domain.AccountStats], err error) {
	ctx, span := tracer.Start(ctx, "AccountService.ListAccounts")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", tenantID))
	defer track(s.metrics, "accounts.list", time.Now(), &err)

	accounts, err := s.store.ListAccounts(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	now := s.now()
	if f.Now.IsZero() {
		f.Now = now
	}
	var issues []domain.RowIssue
	for _, a := range accounts {
		if _, err := a.DueDate.Time(); err != nil {
			issues = append(issues, domain.RowIssue{ID: a.ID, Field: "dueDate", Message: err.Error()})
		}
	}

	filtered := listview.Apply(accounts, f.Predicates()...)
	stats := listview.AccountStats(filtered, now)

	s.metrics.RecordPipeline("accounts", len(accounts), len(filtered), len(issues))
	return listResponse(filtered, stats, issues, pr), nil
}

func (s *AccountService) GetAccount(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "AccountService.GetAccount")
	defer span.End()
	return s.store.GetAccount(ctx, tenantID, id)
}

// CreateAccount stores one account, or one per installment when
// totalInstallments > 1.
func (s *AccountService) CreateAccount(ctx context.Context, tenantID string, in *domain.AccountInput) (created []domain.Account, err error) {
	ctx, span := tracer.Start(ctx, "AccountService.CreateAccount")
	defer span.End()
	defer track(s.metrics, "accounts.create", time.Now(), &err)

	if err := validateAccount(in); err != nil {
		return nil, err
	}

	base := accountFromInput(in)
	base.TenantID = tenantID
	base.PaidAmount = decimal.Zero
	base.RemainingAmount = base.OriginalAmount

	batch := []domain.Account{base}
	if in.TotalInstallments > 1 {
		batch = SplitInstallments(base, in.TotalInstallments, uuid.New().String())
	}
	for i := range batch {
		batch[i].ID = uuid.New().String()
	}

	created, err = s.store.CreateAccounts(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("create accounts: %w", err)
	}
	s.logger.Info("accounts created",
		zap.String("tenant_id", tenantID),
		zap.Int("count", len(created)),
		zap.String("type", string(base.Type)),
	)
	return created, nil
}

// UpdateAccount replaces the editable fields and keeps paid/remaining consistent.
func (s *AccountService) UpdateAccount(ctx context.Context, tenantID, id string, in *domain.AccountInput) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "AccountService.UpdateAccount")
	defer span.End()

	if err := validateAccount(in); err != nil {
		return nil, err
	}
	current, err := s.store.GetAccount(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	next := accountFromInput(in)
	next.ID = current.ID
	next.TenantID = tenantID
	next.PaidAmount = current.PaidAmount
	next.Payments = current.Payments
	next.InstallmentNumber = current.InstallmentNumber
	next.TotalInstallments = current.TotalInstallments
	next.ParentAccountID = current.ParentAccountID
	next.CreatedAt = current.CreatedAt
	next.RemainingAmount = decimal.Max(next.OriginalAmount.Sub(next.PaidAmount), decimal.Zero)
	if in.Status == "" {
		next.Status = current.Status
	}

	if _, err := s.store.UpdateAccount(ctx, &next); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return s.store.GetAccount(ctx, tenantID, id)
}

func (s *AccountService) DeleteAccount(ctx context.Context, tenantID, id string) error {
	ctx, span := tracer.Start(ctx, "AccountService.DeleteAccount")
	defer span.End()

	if err := s.store.DeleteAccount(ctx, tenantID, id); err != nil {
		return err
	}
	s.logger.Info("account deleted", zap.String("tenant_id", tenantID), zap.String("account_id", id))
	return nil
}

// CalculateInterest previews the charges for paying the account now.
func (s *AccountService) CalculateInterest(ctx context.Context, tenantID, id string) (*domain.InterestCalculation, error) {
	ctx, span := tracer.Start(ctx, "AccountService.CalculateInterest")
	defer span.End()

	a, err := s.store.GetAccount(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	calc := CalculateInterestAndFees(a, s.now())
	return &calc, nil
}

// RegisterPayment settles part or all of an account. Interest and fine are
// computed at the payment date and paid first; the rest reduces the
// remaining amount. A matching cash-book entry is recorded.
func (s *AccountService) RegisterPayment(ctx context.Context, tenantID, id string, req *domain.PaymentRequest) (acc *domain.Account, err error) {
	ctx, span := tracer.Start(ctx, "AccountService.RegisterPayment")
	defer span.End()
	defer track(s.metrics, "accounts.payment", time.Now(), &err)

	fields := map[string]string{}
	if !req.Amount.IsPositive() {
		fields["amount"] = "Informe um valor maior que zero"
	}
	if req.Method == "" {
		req.Method = domain.MethodPix
	} else if !req.Method.Valid() {
		fields["method"] = "Forma de pagamento inválida"
	}
	paidAt := s.now()
	if req.PaidAt.Kind != domain.TimestampEmpty {
		t, err := req.PaidAt.Time()
		if err != nil {
			fields["paidAt"] = "Data de pagamento inválida"
		}
		paidAt = t
	}
	if err := fieldErrors(fields); err != nil {
		return nil, err
	}

	a, err := s.store.GetAccount(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.Open() {
		return nil, &domain.ErrConflict{Message: "Esta conta já está encerrada"}
	}

	calc := CalculateInterestAndFees(a, paidAt)
	if req.Amount.GreaterThan(calc.Total) {
		return nil, &domain.ErrValidation{Field: "amount", Message: "Valor excede o total devido"}
	}
	charges := calc.Interest.Add(calc.Fine)
	if req.Amount.LessThan(charges) {
		return nil, &domain.ErrValidation{
			Field:   "amount",
			Message: fmt.Sprintf("Valor deve cobrir ao menos juros e multa (%s)", charges.StringFixed(2)),
		}
	}
	principal := decimal.Max(req.Amount.Sub(charges), decimal.Zero)

	a.PaidAmount = a.PaidAmount.Add(principal)
	a.RemainingAmount = decimal.Max(a.RemainingAmount.Sub(principal), decimal.Zero)
	a.Status = domain.AccountPartiallyPaid
	if a.RemainingAmount.IsZero() {
		a.Status = domain.AccountPaid
	}
	a.Payments = append(a.Payments, domain.Payment{
		ID:       uuid.New().String(),
		Amount:   req.Amount,
		Interest: calc.Interest,
		Fine:     calc.Fine,
		PaidAt:   domain.NativeTimestamp(paidAt),
		Method:   req.Method,
		Notes:    req.Notes,
	})

	updated, err := s.store.UpdateAccount(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}

	txType := domain.TransactionIncome
	if a.Type == domain.AccountPayable {
		txType = domain.TransactionExpense
	}
	_, txErr := s.transactions.CreateTransaction(ctx, &domain.Transaction{
		TenantID:      tenantID,
		Type:          txType,
		Category:      a.Category,
		Description:   fmt.Sprintf("Pagamento: %s", a.Description),
		Amount:        req.Amount,
		Date:          domain.NativeTimestamp(paidAt),
		Status:        domain.TransactionCompleted,
		PaymentMethod: req.Method,
		PropertyID:    a.PropertyID,
		ClientID:      a.ClientID,
		ReservationID: a.ReservationID,
		AccountID:     a.ID,
		Tags:          []string{},
	})
	if txErr != nil {
		// The account is the source of truth; the cash-book entry can be re-added by hand.
		s.logger.Error("payment registered without cash-book entry",
			zap.String("tenant_id", tenantID),
			zap.String("account_id", a.ID),
			zap.Error(txErr),
		)
	}

	s.logger.Info("payment registered",
		zap.String("tenant_id", tenantID),
		zap.String("account_id", a.ID),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

// MarkOverdue flips past-due pending accounts of a tenant.
func (s *AccountService) MarkOverdue(ctx context.Context, tenantID string) (int, error) {
	ctx, span := tracer.Start(ctx, "AccountService.MarkOverdue")
	defer span.End()
	return s.store.MarkOverdue(ctx, tenantID, startOfDay(s.now()))
}

func accountFromInput(in *domain.AccountInput) domain.Account {
	status := in.Status
	if status == "" {
		status = domain.AccountPending
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Account{
		Type:           in.Type,
		Category:       strings.TrimSpace(in.Category),
		Description:    strings.TrimSpace(in.Description),
		Counterparty:   in.Counterparty,
		OriginalAmount: in.OriginalAmount,
		DueDate:        in.DueDate,
		Status:         status,
		InterestRate:   in.InterestRate,
		FineRate:       in.FineRate,
		ReservationID:  in.ReservationID,
		PropertyID:     in.PropertyID,
		ClientID:       in.ClientID,
		Tags:           tags,
		Payments:       []domain.Payment{},
	}
}

func validateAccount(in *domain.AccountInput) error {
	fields := map[string]string{}
	if !in.Type.Valid() {
		fields["type"] = "Tipo deve ser payable ou receivable"
	}
	if strings.TrimSpace(in.Description) == "" {
		fields["description"] = "Informe a descrição"
	}
	if !in.OriginalAmount.IsPositive() {
		fields["originalAmount"] = "Informe um valor maior que zero"
	}
	if _, err := in.DueDate.Time(); err != nil {
		fields["dueDate"] = "Data de vencimento inválida"
	}
	if in.Status != "" && !in.Status.Valid() {
		fields["status"] = "Status inválido"
	}
	if in.InterestRate.IsNegative() {
		fields["interestRate"] = "Juros não podem ser negativos"
	}
	if in.FineRate.IsNegative() {
		fields["fineRate"] = "Multa não pode ser negativa"
	}
	if in.TotalInstallments < 0 || in.TotalInstallments > maxInstallments {
		fields["totalInstallments"] = fmt.Sprintf("Parcelas devem estar entre 1 e %d", maxInstallments)
	}
	return fieldErrors(fields)
}
