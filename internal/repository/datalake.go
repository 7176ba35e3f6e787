package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"hotel/internal/entities"
)

// temporary datalake using postgres
// should be replaced with a real datalake in prod(google bigquery, aws s3, etc)

type EventsRepository struct {
	db     *sqlx.DB
	tables Tables
}

func NewEventsRepo(db *sqlx.DB, tables Tables) *EventsRepository {
	return &EventsRepository{db: db, tables: tables}
}

func (r *EventsRepository) SaveEvent(ctx context.Context, event entities.DatalakeEvent) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (event_id, published_at, event_name, event_payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`, r.tables.Events), event.Id, event.PublishedAt, event.EventName, string(event.Payload))
	if err != nil {
		return fmt.Errorf("save event %s: %w", event.EventName, err)
	}

	return nil
}

func (r *EventsRepository) CountByName(ctx context.Context, eventName string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE event_name = $1`, r.tables.Events), eventName)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}

	return count, nil
}
