package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/format"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/observability"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/listview"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/port"

	"github.com/adhocore/gronx"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxReminderOffset = 90

// BillingService manages reminder settings and sends reminders for
// receivable accounts close to or past their due date.
type BillingService struct {
	settings port.BillingStore
	accounts port.AccountStore
	refs     *ReferenceLoader
	queue    port.ReminderQueue
	gateway  port.MessageGateway
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewBillingService wires the service. A nil queue delivers reminders inline.
func NewBillingService(
	settings port.BillingStore,
	accounts port.AccountStore,
	refs *ReferenceLoader,
	queue port.ReminderQueue,
	gateway port.MessageGateway,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *BillingService {
	return &BillingService{
		settings: settings,
		accounts: accounts,
		refs:     refs,
		queue:    queue,
		gateway:  gateway,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source.
func (s *BillingService) WithClock(now func() time.Time) *BillingService {
	s.now = now
	return s
}

// ============================================================
// Settings — GET/PUT /v1/billing/settings
// ============================================================

// GetSettings returns the stored settings, or the defaults for tenants that
// never saved any.
func (s *BillingService) GetSettings(ctx context.Context, tenantID string) (*domain.BillingSettings, error) {
	ctx, span := tracer.Start(ctx, "BillingService.GetSettings")
	defer span.End()

	st, err := s.settings.GetBillingSettings(ctx, tenantID)
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		st = domain.DefaultBillingSettings(tenantID)
	} else if err != nil {
		return nil, err
	}
	st.NextRunAt = NextRun(st, s.now())
	return st, nil
}

func (s *BillingService) SaveSettings(ctx context.Context, tenantID string, in *domain.BillingSettings) (*domain.BillingSettings, error) {
	ctx, span := tracer.Start(ctx, "BillingService.SaveSettings")
	defer span.End()

	in.TenantID = tenantID
	if err := ValidateBillingSettings(in); err != nil {
		return nil, err
	}
	saved, err := s.settings.SaveBillingSettings(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("save billing settings: %w", err)
	}
	saved.NextRunAt = NextRun(saved, s.now())

	s.logger.Info("billing settings saved",
		zap.String("tenant_id", tenantID),
		zap.Bool("enabled", saved.Enabled),
		zap.String("cron", saved.Cron),
	)
	return saved, nil
}

// ValidateBillingSettings normalizes in and reports every invalid field.
func ValidateBillingSettings(in *domain.BillingSettings) error {
	fields := map[string]string{}

	in.Cron = strings.TrimSpace(in.Cron)
	if in.Cron == "" {
		in.Cron = "0 9 * * *"
	}
	if !gronx.IsValid(in.Cron) {
		fields["cron"] = "Expressão cron inválida"
	}
	if in.Timezone == "" {
		in.Timezone = "America/Sao_Paulo"
	}
	if _, err := time.LoadLocation(in.Timezone); err != nil {
		fields["timezone"] = "Fuso horário inválido"
	}
	for _, d := range append(slices.Clone(in.DaysBeforeDue), in.DaysAfterDue...) {
		if d < 0 || d > maxReminderOffset {
			fields["days"] = fmt.Sprintf("Dias devem estar entre 0 e %d", maxReminderOffset)
			break
		}
	}
	in.DaysBeforeDue = dedupe(in.DaysBeforeDue)
	in.DaysAfterDue = dedupe(in.DaysAfterDue)

	for _, ch := range in.Channels {
		if ch != domain.ChannelWhatsApp && ch != domain.ChannelEmail {
			fields["channels"] = "Canal inválido"
		}
	}
	if in.Enabled {
		if len(in.Channels) == 0 {
			fields["channels"] = "Selecione ao menos um canal"
		}
		if strings.TrimSpace(in.MessageTemplate) == "" {
			fields["messageTemplate"] = "Informe a mensagem do lembrete"
		}
		if len(in.DaysBeforeDue) == 0 && len(in.DaysAfterDue) == 0 {
			fields["days"] = "Informe ao menos um dia de envio"
		}
	}
	return fieldErrors(fields)
}

func dedupe(days []int) []int {
	out := slices.Clone(days)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []int{}
	}
	return out
}

// NextRun is the next cron tick after now in the tenant timezone, or nil
// when reminders are disabled or the settings are unusable.
func NextRun(st *domain.BillingSettings, now time.Time) *time.Time {
	if !st.Enabled {
		return nil
	}
	loc, err := time.LoadLocation(st.Timezone)
	if err != nil {
		return nil
	}
	next, err := gronx.NextTickAfter(st.Cron, now.In(loc), false)
	if err != nil {
		return nil
	}
	return &next
}

// ============================================================
// Reminders — POST /v1/billing/reminders
// ============================================================

// reminderSkipStatuses never receive reminders.
var reminderSkipStatuses = map[domain.AccountStatus]bool{
	domain.AccountPaid:       true,
	domain.AccountCancelled:  true,
	domain.AccountWrittenOff: true,
	domain.AccountRefunded:   true,
}

// RunReminders selects the receivable accounts whose due date is one of the
// configured offsets from today and queues one reminder per account.
func (s *BillingService) RunReminders(ctx context.Context, tenantID string) (res *domain.ReminderRunResult, err error) {
	ctx, span := tracer.Start(ctx, "BillingService.RunReminders")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", tenantID))
	defer track(s.metrics, "billing.reminders", time.Now(), &err)

	var (
		settings *domain.BillingSettings
		accounts []domain.Account
		refs     *References
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = s.GetSettings(gCtx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		accounts, err = s.accounts.ListAccounts(gCtx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		refs, err = s.refs.Load(gCtx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load reminder data: %w", err)
	}

	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		loc = time.UTC
	}
	now := s.now().In(loc)
	clients := listview.NewIndex(refs.Clients, func(c domain.Client) string { return c.ID })
	// WhatsApp is the only channel with a sender; other channels are reported as skipped.
	whatsapp := slices.Contains(settings.Channels, domain.ChannelWhatsApp)

	res = &domain.ReminderRunResult{}
	for _, a := range accounts {
		if a.Type != domain.AccountReceivable || reminderSkipStatuses[a.Status] {
			continue
		}
		due, err := a.DueDate.Time()
		if err != nil {
			continue
		}
		offset := daysBetween(now, due.In(loc))
		if !reminderDue(settings, offset) {
			continue
		}
		res.Evaluated++
		if !whatsapp {
			res.Skipped++
			continue
		}

		client, ok := clients.Lookup(a.ClientID)
		if !ok || Digits(client.Phone) == "" {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: cliente sem telefone", a.ID))
			continue
		}

		task := &domain.ReminderTask{
			TenantID:     tenantID,
			AccountID:    a.ID,
			ClientName:   client.Name,
			ClientPhone:  Digits(client.Phone),
			Description:  a.Description,
			Amount:       a.RemainingAmount,
			DueDate:      due,
			Template:     settings.MessageTemplate,
			DaysFromDue:  -offset,
			ScheduledFor: now,
		}
		if err := s.dispatch(ctx, task); err != nil {
			var dup *domain.ErrDuplicateTask
			if errors.As(err, &dup) {
				res.Skipped++
				continue
			}
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", a.ID, err))
			continue
		}
		res.Enqueued++
	}
	if !whatsapp && res.Skipped > 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("%d lembrete(s) sem canal de envio disponível (%v)", res.Skipped, settings.Channels))
	}

	s.logger.Info("billing reminders run",
		zap.String("tenant_id", tenantID),
		zap.Int("evaluated", res.Evaluated),
		zap.Int("enqueued", res.Enqueued),
		zap.Int("skipped", res.Skipped),
		zap.Int("errors", len(res.Errors)),
	)
	return res, nil
}

// reminderDue reports whether an account due offset days from today
// (negative when already past due) matches the settings.
func reminderDue(st *domain.BillingSettings, offset int) bool {
	if offset >= 0 {
		return slices.Contains(st.DaysBeforeDue, offset)
	}
	return slices.Contains(st.DaysAfterDue, -offset)
}

func (s *BillingService) dispatch(ctx context.Context, task *domain.ReminderTask) error {
	if s.queue == nil {
		return s.DeliverReminder(ctx, task)
	}
	if err := s.queue.EnqueueReminder(ctx, task); err != nil {
		return err
	}
	s.metrics.IncrReminder("enqueued")
	return nil
}

// DeliverReminder renders the template and sends it through the gateway.
// It is the asynq worker handler.
func (s *BillingService) DeliverReminder(ctx context.Context, task *domain.ReminderTask) error {
	ctx, span := tracer.Start(ctx, "BillingService.DeliverReminder")
	defer span.End()

	text := format.ReminderMessage(task.Template, *task)
	receipt, err := s.gateway.Send(ctx, &domain.OutboundMessage{
		TenantID: task.TenantID,
		To:       task.ClientPhone,
		Content:  text,
		Type:     domain.MessageText,
	})
	if err != nil {
		s.metrics.IncrReminder("failed")
		s.logger.Warn("reminder delivery failed",
			zap.String("tenant_id", task.TenantID),
			zap.String("account_id", task.AccountID),
			zap.Error(err),
		)
		return err
	}

	s.metrics.IncrReminder("sent")
	s.logger.Info("reminder delivered",
		zap.String("tenant_id", task.TenantID),
		zap.String("account_id", task.AccountID),
		zap.String("gateway_id", receipt.ID),
		zap.Int("days_from_due", task.DaysFromDue),
	)
	return nil
}
