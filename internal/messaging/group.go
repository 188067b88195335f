package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Runnable is a background worker with an explicit lifecycle, such as a
// stream consumer or the reaper.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// Group runs workers that share one subscriber. Workers start in the order
// they were added and stop in reverse, so later workers never outlive the
// ones they were started after. The subscriber is closed last.
type Group struct {
	logger     *zap.Logger
	subscriber io.Closer

	mu        sync.Mutex
	runnables []Runnable
	started   []Runnable
	stopped   bool
}

// NewGroup creates a group owning subscriber.
func NewGroup(subscriber io.Closer, logger *zap.Logger) *Group {
	return &Group{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers workers with the group.
func (g *Group) Add(runnables ...Runnable) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.runnables = append(g.runnables, runnables...)
}

// Start starts every worker. When one fails, the workers already running
// are stopped and the start error is returned.
func (g *Group) Start(ctx context.Context) error {
	g.mu.Lock()

	for i, r := range g.runnables {
		if err := r.Start(ctx); err != nil {
			g.mu.Unlock()

			return errors.Join(fmt.Errorf("start worker %d: %w", i, err), g.Shutdown())
		}

		g.started = append(g.started, r)
	}

	count := len(g.started)
	g.mu.Unlock()

	g.logger.Info("worker group started", zap.Int("count", count))

	return nil
}

// Run starts the group, blocks until ctx is done, then shuts it down.
func (g *Group) Run(ctx context.Context) error {
	if err := g.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	return g.Shutdown()
}

// Shutdown stops the started workers in reverse order and closes the
// subscriber. Every error is reported. Calls after the first are no-ops.
func (g *Group) Shutdown() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopped {
		return nil
	}

	g.stopped = true

	g.logger.Info("shutting down worker group", zap.Int("count", len(g.started)))

	var errs []error

	for i := len(g.started) - 1; i >= 0; i-- {
		if err := g.started[i].Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	g.started = nil

	if err := g.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close subscriber: %w", err))
	}

	return errors.Join(errs...)
}
