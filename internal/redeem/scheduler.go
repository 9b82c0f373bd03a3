package redeem

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Redeemer makes one redemption attempt against an external withdraw
// service. Implemented by lnurl.Client.
type Redeemer interface {
	Redeem(ctx context.Context, walletID, withdrawURL, description string, tags map[string]string) error
}

// Scheduler runs voucher redemptions as best-effort background tasks: one
// attempt per Schedule call, after an optional delay, with the outcome
// invisible to the caller. A failed attempt is logged and dropped, never
// retried — the only externally observable success signal is the balance
// change that flows through the event dispatch path.
type Scheduler struct {
	redeemer Redeemer
	logger   *zap.Logger

	// baseCtx bounds every pending and in-flight task; cancelling it
	// (process shutdown) abandons waits and aborts attempts.
	baseCtx context.Context
	wg      sync.WaitGroup

	onResult func(ok bool)
}

func NewScheduler(ctx context.Context, redeemer Redeemer, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		redeemer: redeemer,
		logger:   logger,
		baseCtx:  ctx,
		onResult: func(bool) {},
	}
}

// SetHook installs a metric callback invoked after every attempt. Must be
// called before the scheduler is shared.
func (s *Scheduler) SetHook(onResult func(ok bool)) {
	if onResult != nil {
		s.onResult = onResult
	}
}

// Schedule queues exactly one redemption attempt of withdrawURL for
// walletID after delay seconds (zero = immediate) and returns right away.
// Cancelling the connection or request that called Schedule has no effect
// on the pending task.
func (s *Scheduler) Schedule(walletID, withdrawURL, description string, tags map[string]string, delaySeconds int) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if delaySeconds > 0 {
			timer := time.NewTimer(time.Duration(delaySeconds) * time.Second)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-s.baseCtx.Done():
				return
			}
		}

		err := s.redeemer.Redeem(s.baseCtx, walletID, withdrawURL, description, tags)
		s.onResult(err == nil)
		if err != nil {
			s.logger.Debug("redemption attempt failed",
				zap.String("wallet_id", walletID),
				zap.String("url", withdrawURL),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until every scheduled task has finished or been abandoned.
// Called during graceful shutdown after baseCtx is cancelled.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
