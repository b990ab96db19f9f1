package entities

import (
	"time"

	"github.com/google/uuid"
)

// ArchivedEvent is one row of the event archive.
type ArchivedEvent struct {
	ID          uuid.UUID `db:"event_id"`
	PublishedAt time.Time `db:"published_at"`
	EventName   string    `db:"event_name"`
	Payload     []byte    `db:"event_payload"`
}
