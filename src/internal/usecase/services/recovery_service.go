package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/settlement-hub/src/internal/config"
	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/api-sage/settlement-hub/src/internal/logger"
)

type HoldResolver interface {
	ResumeTransaction(ctx context.Context, tx domain.Transaction) bool
	RejectHeldTransaction(ctx context.Context, tx domain.Transaction, reason string) bool
}

type RecoveryReport struct {
	Scanned  int
	Resumed  int
	Rejected int
	Failed   int
	Skipped  bool
}

// RecoveryService picks up held transactions after their fraud case is
// decided and settles or rejects them.
type RecoveryService struct {
	transactionRepo repo_interfaces.TransactionRepository
	resolver        HoldResolver
	interval        time.Duration
	lookback        time.Duration
	opts            options

	running atomic.Bool
}

func NewRecoveryService(transactionRepo repo_interfaces.TransactionRepository, resolver HoldResolver, cfg config.RecoveryConfig, opts ...Option) *RecoveryService {
	return &RecoveryService{
		transactionRepo: transactionRepo,
		resolver:        resolver,
		interval:        cfg.Interval,
		lookback:        cfg.Lookback,
		opts:            buildOptions(opts),
	}
}

// Run calls RunOnce every interval until ctx is cancelled.
func (s *RecoveryService) Run(ctx context.Context) error {
	logger.Info("recovery service started", logger.Fields{
		"interval": s.interval.String(),
		"lookback": s.lookback.String(),
	})

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("recovery service stopped", nil)
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

func (s *RecoveryService) RunOnce(ctx context.Context) RecoveryReport {
	if !s.running.CompareAndSwap(false, true) {
		logger.Warn("recovery service run skipped, previous run still in progress", nil)
		return RecoveryReport{Skipped: true}
	}
	defer s.running.Store(false)

	since := s.opts.now().Add(-s.lookback)
	holds, err := s.transactionRepo.ListResolvedHolds(ctx, since)
	if err != nil {
		logger.Error("recovery service list resolved holds failed", err, nil)
		return RecoveryReport{}
	}

	report := RecoveryReport{Scanned: len(holds)}
	for _, hold := range holds {
		if ctx.Err() != nil {
			break
		}
		resumed, rejected, err := s.process(ctx, hold)
		switch {
		case err != nil:
			report.Failed++
			logger.Error("recovery service item failed", err, logger.Fields{
				"transactionId": hold.Transaction.ID,
				"caseId":        hold.CaseID,
			})
		case resumed:
			report.Resumed++
		case rejected:
			report.Rejected++
		default:
			report.Failed++
		}
	}

	s.opts.metrics.RecordRecoveryRun(report.Resumed, report.Rejected, report.Failed)
	if report.Scanned > 0 {
		logger.Info("recovery service run success", logger.Fields{
			"scanned":  report.Scanned,
			"resumed":  report.Resumed,
			"rejected": report.Rejected,
			"failed":   report.Failed,
		})
	}
	return report
}

func (s *RecoveryService) process(ctx context.Context, hold domain.ResolvedHold) (resumed bool, rejected bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered panic: %v", r)
		}
	}()

	switch hold.Decision {
	case domain.FraudCaseStatusDismissed:
		return s.resolver.ResumeTransaction(ctx, hold.Transaction), false, nil
	case domain.FraudCaseStatusReviewed:
		return false, s.resolver.RejectHeldTransaction(ctx, hold.Transaction, "Confirmed fraudulent by review of case "+hold.CaseID), nil
	default:
		return false, false, fmt.Errorf("unexpected case decision %s", hold.Decision)
	}
}
