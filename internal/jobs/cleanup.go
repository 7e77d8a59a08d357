package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dukerupert/academy/internal/telemetry"
)

// Job names used in logs and metrics.
const (
	JobExpirePendingPayments = "cleanup:expire_pending_payments"
	JobDeleteExpiredSessions = "cleanup:expired_sessions"
)

// ExpiryStore is the subset of repository.Querier the scheduler needs.
type ExpiryStore interface {
	ExpireUserCourses(ctx context.Context, before time.Time) (int64, error)
	ExpireWalletTransactions(ctx context.Context, before time.Time) (int64, error)
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// SchedulerConfig controls the cleanup schedule.
type SchedulerConfig struct {
	// PendingTTL is how long a payment may stay waiting_for_payment.
	PendingTTL time.Duration

	// Schedule is the cron expression for both cleanup jobs. Defaults to every 10 minutes.
	Schedule string

	// Timeout caps a single run.
	Timeout time.Duration
}

// Scheduler runs periodic maintenance: abandoned checkouts and wallet
// top-ups are moved to cancel, expired sessions are removed.
type Scheduler struct {
	cron   *cron.Cron
	store  ExpiryStore
	config SchedulerConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewScheduler(store ExpiryStore, config SchedulerConfig, logger *slog.Logger) *Scheduler {
	if config.Schedule == "" {
		config.Schedule = "*/10 * * * *"
	}
	if config.PendingTTL <= 0 {
		config.PendingTTL = time.Hour
	}
	if config.Timeout <= 0 {
		config.Timeout = time.Minute
	}

	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		store:  store,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.config.Schedule, s.run(JobExpirePendingPayments, s.ExpirePendingPayments)); err != nil {
		return fmt.Errorf("failed to add pending payment expiry job: %w", err)
	}
	if _, err := s.cron.AddFunc(s.config.Schedule, s.run(JobDeleteExpiredSessions, s.DeleteExpiredSessions)); err != nil {
		return fmt.Errorf("failed to add session cleanup job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started", "schedule", s.config.Schedule, "pending_ttl", s.config.PendingTTL)
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.logger.Info("cron scheduler stopped")
}

func (s *Scheduler) run(name string, fn func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
			telemetry.CaptureError(ctx, err, map[string]any{"job": name})
			if telemetry.Business != nil {
				telemetry.Business.JobsFailed.WithLabelValues(name).Inc()
			}
			return
		}
		if telemetry.Business != nil {
			telemetry.Business.JobsProcessed.WithLabelValues(name).Inc()
		}
	}
}

// ExpirePendingPayments cancels purchase rows and wallet transactions that
// have been waiting longer than PendingTTL.
func (s *Scheduler) ExpirePendingPayments(ctx context.Context) error {
	before := s.now().Add(-s.config.PendingTTL)

	courses, err := s.store.ExpireUserCourses(ctx, before)
	if err != nil {
		return fmt.Errorf("expire user courses: %w", err)
	}
	wallet, err := s.store.ExpireWalletTransactions(ctx, before)
	if err != nil {
		return fmt.Errorf("expire wallet transactions: %w", err)
	}

	if telemetry.Business != nil {
		telemetry.Business.ExpiredRows.WithLabelValues("user_course").Add(float64(courses))
		telemetry.Business.ExpiredRows.WithLabelValues("wallet_transaction").Add(float64(wallet))
	}
	if courses > 0 || wallet > 0 {
		s.logger.Info("expired pending payments", "user_courses", courses, "wallet_transactions", wallet)
	}
	return nil
}

func (s *Scheduler) DeleteExpiredSessions(ctx context.Context) error {
	n, err := s.store.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	if n > 0 {
		s.logger.Debug("deleted expired sessions", "count", n)
	}
	return nil
}
