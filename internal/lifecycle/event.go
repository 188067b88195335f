// Package lifecycle publishes and consumes link lifecycle events.
//
// Events never carry the destination URL: once a link is erased the only
// surviving trace of it is its identifier.
package lifecycle

import (
	"time"

	"github.com/serroba/fuselink/internal/policy"
)

const (
	TopicLinkCreated  = "link.created"
	TopicLinkConsumed = "link.consumed"
	TopicLinkErased   = "link.erased"
)

// CreatedEvent is emitted when a link has been stored.
type CreatedEvent struct {
	ID        string        `json:"id"`
	Policy    policy.Policy `json:"policy"`
	CreatedAt time.Time     `json:"createdAt"`
}

// ConsumedEvent is emitted after a durable read was permitted.
type ConsumedEvent struct {
	ID         string        `json:"id"`
	ClickCount int64         `json:"clickCount"`
	Policy     policy.Policy `json:"policy"`
	ConsumedAt time.Time     `json:"consumedAt"`
}

// ErasedEvent is emitted after a link was overwritten and deleted.
type ErasedEvent struct {
	ID       string    `json:"id"`
	Reason   string    `json:"reason"`
	ErasedAt time.Time `json:"erasedAt"`
}
