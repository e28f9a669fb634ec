package service

import (
	"context"
	"sync"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/port"

	"go.uber.org/zap"
)

// ReminderScheduler triggers the reminder run of every enabled tenant on its
// own cron, and flags past-due accounts as overdue before each run.
type ReminderScheduler struct {
	settings port.BillingStore
	billing  *BillingService
	accounts *AccountService
	interval time.Duration
	logger   *zap.Logger

	mu   sync.Mutex
	next map[string]time.Time
}

func NewReminderScheduler(settings port.BillingStore, billing *BillingService, accounts *AccountService, logger *zap.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		settings: settings,
		billing:  billing,
		accounts: accounts,
		interval: time.Minute,
		logger:   logger,
		next:     make(map[string]time.Time),
	}
}

// Run checks the schedule every interval until ctx is cancelled.
func (s *ReminderScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("reminder scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder scheduler stopping")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick runs every tenant whose next tick is due at now and returns the
// tenants that ran.
func (s *ReminderScheduler) Tick(ctx context.Context, now time.Time) []string {
	all, err := s.settings.ListEnabledBillingSettings(ctx)
	if err != nil {
		s.logger.Error("scheduler: list billing settings", zap.Error(err))
		return nil
	}

	var due []string
	for i := range all {
		st := &all[i]
		if s.isDue(st, now) {
			due = append(due, st.TenantID)
		}
	}
	for _, tenantID := range due {
		s.runTenant(ctx, tenantID)
	}
	return due
}

// isDue compares now with the remembered next tick, then advances it. The
// first sighting of a tenant only schedules it.
func (s *ReminderScheduler) isDue(st *domain.BillingSettings, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, seen := s.next[st.TenantID]
	if seen && now.Before(next) {
		return false
	}
	upcoming := NextRun(st, now)
	if upcoming == nil {
		delete(s.next, st.TenantID)
		return false
	}
	s.next[st.TenantID] = *upcoming
	return seen
}

func (s *ReminderScheduler) runTenant(ctx context.Context, tenantID string) {
	if n, err := s.accounts.MarkOverdue(ctx, tenantID); err != nil {
		s.logger.Warn("scheduler: mark overdue failed", zap.String("tenant_id", tenantID), zap.Error(err))
	} else if n > 0 {
		s.logger.Info("scheduler: accounts overdue", zap.String("tenant_id", tenantID), zap.Int("count", n))
	}

	if _, err := s.billing.RunReminders(ctx, tenantID); err != nil {
		s.logger.Error("scheduler: reminders failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}
}
