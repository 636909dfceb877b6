// Package scheduler runs the periodic sweeps: bank-transfer expiry, stale
// session cleanup and recurring charges. Every sweep is idempotent under
// at-least-once invocation, so a missed or doubled tick is harmless.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/config"
	"github.com/seffafbagis/donation-platform/internal/usecase"
)

// Scheduler owns the sweep workers and their lifecycle.
type Scheduler struct {
	cfg       config.SchedulerConfig
	transfers *usecase.BankTransferService
	sessions  *usecase.SessionService
	recurring *usecase.RecurringService
	logger    *zap.Logger

	wg sync.WaitGroup
}

func New(
	cfg config.SchedulerConfig,
	transfers *usecase.BankTransferService,
	sessions *usecase.SessionService,
	recurring *usecase.RecurringService,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		transfers: transfers,
		sessions:  sessions,
		recurring: recurring,
		logger:    logger,
	}
}

// Start launches the enabled sweep workers. They stop when ctx is
// cancelled; Wait blocks until they have drained.
func (s *Scheduler) Start(ctx context.Context) {
	s.startWorker(ctx, "bank_transfer_expiry", s.cfg.BankTransferExpiry, func(ctx context.Context) error {
		_, err := s.transfers.ExpireOverdue(ctx)
		return err
	})
	s.startWorker(ctx, "session_cleanup", s.cfg.SessionCleanup, func(ctx context.Context) error {
		_, err := s.sessions.ExpireStale(ctx)
		return err
	})
	s.startWorker(ctx, "recurring_charge", s.cfg.RecurringCharge, func(ctx context.Context) error {
		charged, err := s.recurring.ProcessDue(ctx)
		if charged > 0 {
			s.logger.Info("Recurring charge sweep finished", zap.Int("charged", charged))
		}
		return err
	})
}

// Wait blocks until all workers have stopped.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) startWorker(ctx context.Context, name string, cfg config.SweepConfig, sweep func(context.Context) error) {
	if !cfg.Enabled {
		s.logger.Info("Sweep worker disabled", zap.String("worker", name))
		return
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.logger.Info("Sweep worker started",
			zap.String("worker", name),
			zap.Duration("interval", interval))

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Sweep worker stopped", zap.String("worker", name))
				return
			case <-ticker.C:
				if err := sweep(ctx); err != nil {
					s.logger.Error("Sweep failed",
						zap.String("worker", name),
						zap.Error(err))
				}
			}
		}
	}()
}
