package lifecycle

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/fuselink/internal/link"
	"github.com/serroba/fuselink/internal/messaging"
	"go.uber.org/zap"
)

// Journal records lifecycle transitions in the log.
type Journal struct {
	logger *zap.Logger
}

// NewJournal creates a journal writing to logger.
func NewJournal(logger *zap.Logger) *Journal {
	return &Journal{logger: logger.Named("journal")}
}

func (j *Journal) Created(_ context.Context, event *CreatedEvent) error {
	j.logger.Info("link created",
		zap.String("id", event.ID),
		zap.Stringer("policy", event.Policy.Kind),
		zap.Time("createdAt", event.CreatedAt),
	)

	return nil
}

func (j *Journal) Consumed(_ context.Context, event *ConsumedEvent) error {
	j.logger.Info("link consumed",
		zap.String("id", event.ID),
		zap.Int64("clickCount", event.ClickCount),
		zap.Stringer("policy", event.Policy.Kind),
		zap.Time("consumedAt", event.ConsumedAt),
	)

	return nil
}

func (j *Journal) Erased(_ context.Context, event *ErasedEvent) error {
	j.logger.Info("link erased",
		zap.String("id", event.ID),
		zap.String("reason", event.Reason),
		zap.Time("erasedAt", event.ErasedAt),
	)

	return nil
}

// Evictor removes erased links from the cache. The request path already
// evicts synchronously; this catches the cases where that attempt failed.
type Evictor struct {
	cache link.Cache
}

// NewEvictor creates an evictor for cache.
func NewEvictor(cache link.Cache) *Evictor {
	return &Evictor{cache: cache}
}

// Erased deletes the cache entry. A failure nacks the event so it is retried.
func (e *Evictor) Erased(ctx context.Context, event *ErasedEvent) error {
	if err := e.cache.Delete(ctx, link.ID(event.ID)); err != nil {
		return fmt.Errorf("evict %s: %w", event.ID, err)
	}

	return nil
}

// Chain runs handlers in order and stops at the first error.
func Chain[T any](handlers ...messaging.Handler[T]) messaging.Handler[T] {
	return func(ctx context.Context, event *T) error {
		for _, h := range handlers {
			if err := h(ctx, event); err != nil {
				return err
			}
		}

		return nil
	}
}

// Consumers builds one consumer per lifecycle topic. The erased topic is
// handled by a single consumer so a stream consumer group does not split
// deliveries between eviction and the journal.
func Consumers(subscriber message.Subscriber, cache link.Cache, logger *zap.Logger) []messaging.Runnable {
	journal := NewJournal(logger)
	evictor := NewEvictor(cache)

	return []messaging.Runnable{
		messaging.NewConsumer(subscriber, TopicLinkCreated, journal.Created, logger),
		messaging.NewConsumer(subscriber, TopicLinkConsumed, journal.Consumed, logger),
		messaging.NewConsumer(subscriber, TopicLinkErased, Chain(evictor.Erased, journal.Erased), logger),
	}
}
