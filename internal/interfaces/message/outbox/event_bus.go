package outbox

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jmoiron/sqlx"

	"hotel/internal/interfaces/message/events"
)

// TxEventBus publishes events through the outbox of the transaction found in ctx.
type TxEventBus struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
	logger watermill.LoggerAdapter
}

func NewTxEventBus(db *sqlx.DB, getter *trmsqlx.CtxGetter, logger watermill.LoggerAdapter) *TxEventBus {
	return &TxEventBus{
		db:     db,
		getter: getter,
		logger: logger,
	}
}

func (b *TxEventBus) Publish(ctx context.Context, event any) error {
	tr := b.getter.DefaultTrOrDB(ctx, b.db)
	if tr == nil {
		return fmt.Errorf("failed to get transaction from context")
	}

	publisher, err := NewPublisher(tr, b.logger)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}

	eb, err := events.NewEventBus(publisher, b.logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}

	log.FromContext(ctx).WithField("event", fmt.Sprintf("%T", event)).Debug("Publishing event to outbox")

	return eb.Publish(ctx, event)
}
