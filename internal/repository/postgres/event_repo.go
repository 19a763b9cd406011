package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventregistration/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

const eventColumns = `id, title, description, location, event_date, capacity, confirmed_count, owner_id, status, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var date sql.NullTime
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &date, &e.Capacity,
		&e.ConfirmedCount, &e.OwnerID, &e.Status, &e.Version, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if date.Valid {
		e.EventDate = date.Time
	}
	return e, nil
}

func (r *eventRepository) LoadEvent(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// SaveEvent upserts the event. Rows holding the same or a newer version are left alone.
func (r *eventRepository) SaveEvent(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			location = EXCLUDED.location,
			event_date = EXCLUDED.event_date,
			confirmed_count = EXCLUDED.confirmed_count,
			status = EXCLUDED.status,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
		WHERE events.version < EXCLUDED.version
	`
	date := sql.NullTime{Time: e.EventDate, Valid: !e.EventDate.IsZero()}
	_, err := r.DB.ExecContext(ctx, query,
		e.ID, e.Title, e.Description, e.Location, date, e.Capacity, e.ConfirmedCount,
		e.OwnerID, string(e.Status), e.Version, e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *eventRepository) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
