package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
)

// CommitHook runs an action once the transaction in ctx has committed.
type CommitHook interface {
	AfterCommit(ctx context.Context, action func())
}

// DeferredEventBus holds events back until the surrounding transaction commits,
// so a rolled back commit publishes nothing.
type DeferredEventBus struct {
	bus  *cqrs.EventBus
	hook CommitHook
}

func NewDeferredEventBus(bus *cqrs.EventBus, hook CommitHook) *DeferredEventBus {
	return &DeferredEventBus{bus: bus, hook: hook}
}

func (b *DeferredEventBus) Publish(ctx context.Context, event any) error {
	if event == nil {
		return fmt.Errorf("cannot publish nil event")
	}

	b.hook.AfterCommit(ctx, func() {
		publishCtx := context.WithoutCancel(ctx)
		if err := b.bus.Publish(publishCtx, event); err != nil {
			log.FromContext(publishCtx).
				WithError(err).
				WithField("event", fmt.Sprintf("%T", event)).
				Error("Failed to publish event after commit")
		}
	})

	return nil
}
