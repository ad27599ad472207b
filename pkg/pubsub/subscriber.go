package pubsub

import (
	"context"
	"time"
)

// SubscribeHandler processes one message. A non-nil error asks the
// subscriber to deliver the message again.
type SubscribeHandler func(context.Context, *Pack, time.Time) error

type Subscriber interface {
	// Subscribe starts consuming in the background until ctx is done or
	// Stop is called.
	Subscribe(ctx context.Context)
	Stop(ctx context.Context) error
}
