package outbox

import (
	"database/sql"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/event"
)

// SQLRepository stores outbox events in the outbox_events table. Queries use
// numbered placeholders, which both SQLite and Postgres accept.
type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db}
}

func (r *SQLRepository) Save(evt OutboxEvent) error {
	_, err := r.db.Exec(`
		INSERT INTO outbox_events (id, event_type, payload, published, created_at)
		VALUES ($1, $2, $3, 0, $4)
	`,
		evt.ID,
		string(evt.Type),
		evt.Payload,
		evt.CreatedAt,
	)
	return err
}

func (r *SQLRepository) FindUnpublished(limit int) ([]OutboxEvent, error) {
	rows, err := r.db.Query(`
		SELECT id, event_type, payload, published, created_at
		FROM outbox_events
		WHERE published = 0
		ORDER BY created_at, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []OutboxEvent

	for rows.Next() {
		var evt OutboxEvent
		var typ string
		var published int

		if err := rows.Scan(
			&evt.ID,
			&typ,
			&evt.Payload,
			&published,
			&evt.CreatedAt,
		); err != nil {
			return nil, err
		}

		evt.Type = event.Type(typ)
		evt.Published = published == 1
		events = append(events, evt)
	}

	return events, rows.Err()
}

func (r *SQLRepository) MarkPublished(id string) error {
	res, err := r.db.Exec(`
		UPDATE outbox_events
		SET published = 1
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrEventNotFound
	}
	return nil
}
