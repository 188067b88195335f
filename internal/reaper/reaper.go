// Package reaper periodically erases links whose time bomb has fired.
package reaper

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is used when a non-positive interval is configured.
const DefaultInterval = time.Minute

// Sweeper erases a batch of expired links and reports how many it erased.
type Sweeper interface {
	Reap(ctx context.Context) (int, error)
}

// Reaper runs a Sweeper on a fixed interval until shut down.
type Reaper struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a Reaper. It does nothing until Start is called.
func New(sweeper Sweeper, interval time.Duration, logger *zap.Logger) *Reaper {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Reaper{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger.Named("reaper"),
		done:     make(chan struct{}),
	}
}

// Start sweeps once immediately, then on every tick.
func (r *Reaper) Start(ctx context.Context) error {
	ctx, r.cancel = context.WithCancel(ctx)

	go r.loop(ctx)

	r.logger.Info("reaper started", zap.Duration("interval", r.interval))

	return nil
}

func (r *Reaper) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.Sweep(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep drains expired links batch by batch and returns the total erased.
// It stops at the first error, which is logged.
func (r *Reaper) Sweep(ctx context.Context) int {
	total := 0

	for ctx.Err() == nil {
		n, err := r.sweeper.Reap(ctx)
		total += n

		if err != nil {
			if !errors.Is(err, context.Canceled) {
				r.logger.Error("sweep failed", zap.Int("erased", total), zap.Error(err))
			}

			return total
		}

		if n == 0 {
			break
		}
	}

	if total > 0 {
		r.logger.Info("erased expired links", zap.Int("count", total))
	}

	return total
}

// Shutdown stops the loop and waits for an in-flight sweep to finish.
func (r *Reaper) Shutdown() error {
	if r.cancel == nil {
		return nil
	}

	r.cancel()
	<-r.done

	return nil
}
