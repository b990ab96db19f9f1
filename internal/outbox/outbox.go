// Package outbox is the transactional outbox: events published inside a
// database transaction land in a Postgres table and a forwarder moves them
// onto the Redis stream once the transaction commits. A payment and its
// InvoicePaid event therefore commit or vanish together.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Topic is the staging topic in Postgres that the forwarder drains.
const Topic = "events_to_forward"

// NewPublisher wraps the given transaction in a publisher that stages
// messages on the outbox topic. tx must be the transaction the business
// write runs in.
func NewPublisher(tx watermillSQL.ContextExecutor, logger watermill.LoggerAdapter) (message.Publisher, error) {
	publisher, err := watermillSQL.NewPublisher(
		tx,
		watermillSQL.PublisherConfig{
			SchemaAdapter: watermillSQL.DefaultPostgreSQLSchema{},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("creating outbox publisher: %w", err)
	}

	return forwarder.NewPublisher(publisher, forwarder.PublisherConfig{
		ForwarderTopic: Topic,
	}), nil
}

type Forwarder struct {
	fwd *forwarder.Forwarder
}

func NewForwarder(
	db *sqlx.DB,
	rdb *redis.Client,
	logger watermill.LoggerAdapter,
) (*Forwarder, error) {
	subscriber, err := watermillSQL.NewSubscriber(
		db,
		watermillSQL.SubscriberConfig{
			SchemaAdapter:  watermillSQL.DefaultPostgreSQLSchema{},
			OffsetsAdapter: watermillSQL.DefaultPostgreSQLOffsetsAdapter{},
			PollInterval:   100 * time.Millisecond,
			ResendInterval: 100 * time.Millisecond,
			RetryInterval:  100 * time.Millisecond,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("creating outbox subscriber: %w", err)
	}

	if err := subscriber.SubscribeInitialize(Topic); err != nil {
		return nil, fmt.Errorf("initializing outbox topic: %w", err)
	}

	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: rdb,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating redis publisher: %w", err)
	}

	fwd, err := forwarder.NewForwarder(subscriber, publisher, logger, forwarder.Config{
		ForwarderTopic: Topic,
	})
	if err != nil {
		return nil, fmt.Errorf("creating forwarder: %w", err)
	}

	return &Forwarder{fwd: fwd}, nil
}

// Run starts the forwarder and blocks until it is running.
func (f *Forwarder) Run(ctx context.Context) {
	go func() {
		if err := f.fwd.Run(ctx); err != nil {
			panic(err)
		}
	}()

	<-f.fwd.Running()
}
