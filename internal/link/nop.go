package link

import (
	"context"
	"time"
)

// NopCache never holds anything. Use it to run without a cache tier.
type NopCache struct{}

func (NopCache) Get(context.Context, ID) (string, error) { return "", ErrCacheMiss }

func (NopCache) Set(context.Context, ID, string, time.Duration) error { return nil }

func (NopCache) Delete(context.Context, ID) error { return nil }

// NopObserver discards lifecycle notifications.
type NopObserver struct{}

func (NopObserver) LinkCreated(context.Context, *Link) error { return nil }

func (NopObserver) LinkConsumed(context.Context, *Link) error { return nil }

func (NopObserver) LinkErased(context.Context, ID, ErasureReason) error { return nil }

// Compile-time check.
var (
	_ Cache    = NopCache{}
	_ Observer = NopObserver{}
)
