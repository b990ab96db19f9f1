package events

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type ArchiveRepo interface {
	SaveEvent(ctx context.Context, id uuid.UUID, publishedAt time.Time, eventName string, payload []byte) error
}

// RegisterEventArchive copies every event on the given topics into the
// archive table. It runs as its own consumer group, so archiving lags never
// slow down the notification handlers.
func RegisterEventArchive(
	router *message.Router,
	rdb *redis.Client,
	repo ArchiveRepo,
	logger watermill.LoggerAdapter,
	topics []string,
) error {
	for _, topic := range topics {
		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        rdb,
			ConsumerGroup: "svc-tickets.events_archive",
		}, logger)
		if err != nil {
			return err
		}

		router.AddNoPublisherHandler(
			"events_archive."+topic,
			topic,
			subscriber,
			func(msg *message.Message) error {
				id, err := uuid.Parse(msg.UUID)
				if err != nil {
					id = uuid.New()
				}
				name := msg.Metadata.Get("name")
				if name == "" {
					name = topic
				}
				return repo.SaveEvent(msg.Context(), id, time.Now().UTC(), name, msg.Payload)
			},
		)
	}
	return nil
}
