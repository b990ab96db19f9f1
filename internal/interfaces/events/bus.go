package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"

	"tickets/internal/entities"
	"tickets/internal/infrastructure/event_publisher"
	"tickets/internal/outbox"
)

func NewEventBus(
	pub message.Publisher,
	logger watermill.LoggerAdapter,
) (*cqrs.EventBus, error) {
	return cqrs.NewEventBusWithConfig(
		pub,
		cqrs.EventBusConfig{
			GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
				return "events." + params.EventName, nil
			},
			Marshaler: cqrs.JSONMarshaler{
				GenerateName: cqrs.StructName,
			},
			Logger: logger,
		},
	)
}

// TransactionalBus publishes through the outbox of the transaction carried
// in the context. Events published this way commit together with the
// business write that produced them.
type TransactionalBus struct {
	getter *trmsqlx.CtxGetter
	logger watermill.LoggerAdapter
}

func NewTransactionalBus(getter *trmsqlx.CtxGetter, logger watermill.LoggerAdapter) *TransactionalBus {
	return &TransactionalBus{getter: getter, logger: logger}
}

func (b *TransactionalBus) Publish(ctx context.Context, event entities.Event) error {
	tr := b.getter.DefaultTrOrDB(ctx, nil)
	if tr == nil {
		return fmt.Errorf("no transaction in context")
	}

	publisher, err := outbox.NewPublisher(tr, b.logger)
	if err != nil {
		return fmt.Errorf("creating outbox publisher: %w", err)
	}

	bus, err := NewEventBus(
		event_publisher.CorrelationPublisherDecorator{Publisher: publisher},
		b.logger,
	)
	if err != nil {
		return fmt.Errorf("creating event bus: %w", err)
	}

	return bus.Publish(ctx, event)
}
