package inbox

import (
	"context"

	"github.com/salonbook/salonbook/libs/db"
)

// Repository records consumed event ids so redelivered events are skipped.
type Repository struct {
	pool     *db.Pool
	consumer string
}

func NewRepository(pool *db.Pool, consumer string) *Repository {
	return &Repository{pool: pool, consumer: consumer}
}

// Seen reports whether this consumer already handled eventID.
func (r *Repository) Seen(ctx context.Context, eventID string) (bool, error) {
	var seen bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM inbox_events WHERE consumer = $1 AND event_id = $2)
	`, r.consumer, eventID).Scan(&seen)
	return seen, err
}

// Record reports false when the event was already seen by this consumer.
func (r *Repository) Record(ctx context.Context, eventID string, eventType string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO inbox_events (consumer, event_id, event_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (consumer, event_id) DO NOTHING
	`, r.consumer, eventID, eventType)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
