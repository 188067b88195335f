package lifecycle

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/fuselink/internal/link"
	"github.com/serroba/fuselink/internal/messaging"
)

var _ link.Observer = (*Publisher)(nil)

// Publisher turns link.Observer callbacks into events.
type Publisher struct {
	created  messaging.Publish[CreatedEvent]
	consumed messaging.Publish[ConsumedEvent]
	erased   messaging.Publish[ErasedEvent]
	now      func() time.Time
}

// NewPublisher creates a Publisher writing to the lifecycle topics.
func NewPublisher(publisher message.Publisher) *Publisher {
	return &Publisher{
		created:  messaging.NewPublishFunc[CreatedEvent](publisher, TopicLinkCreated),
		consumed: messaging.NewPublishFunc[ConsumedEvent](publisher, TopicLinkConsumed),
		erased:   messaging.NewPublishFunc[ErasedEvent](publisher, TopicLinkErased),
		now:      time.Now,
	}
}

func (p *Publisher) LinkCreated(ctx context.Context, l *link.Link) error {
	return p.created(ctx, &CreatedEvent{
		ID:        string(l.ID),
		Policy:    l.Policy,
		CreatedAt: l.CreatedAt,
	})
}

func (p *Publisher) LinkConsumed(ctx context.Context, l *link.Link) error {
	return p.consumed(ctx, &ConsumedEvent{
		ID:         string(l.ID),
		ClickCount: l.ClickCount,
		Policy:     l.Policy,
		ConsumedAt: p.now().UTC(),
	})
}

func (p *Publisher) LinkErased(ctx context.Context, id link.ID, reason link.ErasureReason) error {
	return p.erased(ctx, &ErasedEvent{
		ID:       string(id),
		Reason:   string(reason),
		ErasedAt: p.now().UTC(),
	})
}
