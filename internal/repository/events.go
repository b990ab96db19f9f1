package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tickets/internal/entities"
)

// EventsRepository archives every published event for audit and replay.
// Postgres stands in for a proper archive store.
type EventsRepository struct {
	db *sqlx.DB
}

func NewEventsRepo(db *sqlx.DB) *EventsRepository {
	return &EventsRepository{db: db}
}

func (r *EventsRepository) SaveEvent(
	ctx context.Context,
	id uuid.UUID,
	publishedAt time.Time,
	eventName string,
	payload []byte,
) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (event_id, published_at, event_name, event_payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`, id, publishedAt, eventName, payload)
	if err != nil {
		return fmt.Errorf("archive event %s: %w", eventName, err)
	}
	return nil
}

func (r *EventsRepository) ListEvents(ctx context.Context, eventName string) ([]entities.ArchivedEvent, error) {
	var events []entities.ArchivedEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT event_id, published_at, event_name, event_payload
		FROM events
		WHERE event_name = $1
		ORDER BY published_at
	`, eventName)
	if err != nil {
		return nil, fmt.Errorf("list events %s: %w", eventName, err)
	}
	return events, nil
}
