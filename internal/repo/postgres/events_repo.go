package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/eventdesk/internal/domain/event"
	"github.com/geocoder89/eventdesk/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewEventsRepo(pool *pgxpool.Pool, prom *observability.Prom) *EventsRepo {
	return &EventsRepo{
		pool: pool,
		prom: prom,
	}
}

const eventColumns = `id, title, location, event_date, created_at, updated_at`

func scanEvent(row pgx.Row, e *event.Event) error {
	return row.Scan(&e.ID, &e.Title, &e.Location, &e.EventDate, &e.CreatedAt, &e.UpdatedAt)
}

func (r *EventsRepo) CreateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	err := r.prom.ObserveDB("events.create", func() error {
		return scanEvent(r.pool.QueryRow(ctx,
			`INSERT INTO events (title, location, event_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+eventColumns,
			e.Title, e.Location, e.EventDate, e.CreatedAt, e.UpdatedAt,
		), &e)
	})
	if err != nil {
		return event.Event{}, fmt.Errorf("insert event: %w", err)
	}

	return e, nil
}

func (r *EventsRepo) ListEvents(ctx context.Context) ([]event.Event, error) {
	out := make([]event.Event, 0)

	err := r.prom.ObserveDB("events.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e event.Event
			if err := scanEvent(rows, &e); err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return out, nil
}

// GetEvent reads the event and its attendees inside one read-only snapshot.
func (r *EventsRepo) GetEvent(ctx context.Context, id int64) (event.WithAttendees, error) {
	out := event.WithAttendees{Attendees: make([]event.Attendee, 0)}

	err := r.prom.ObserveDB("events.get", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		err = scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id), &out.Event)
		if err != nil {
			return err
		}

		out.Attendees, err = queryAttendees(ctx, tx, id)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.WithAttendees{}, event.ErrNotFound
		}
		return event.WithAttendees{}, fmt.Errorf("get event %d: %w", id, err)
	}

	return out, nil
}

func (r *EventsRepo) EventExists(ctx context.Context, id int64) (bool, error) {
	var exists bool

	err := r.prom.ObserveDB("events.exists", func() error {
		return r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, id).Scan(&exists)
	})
	if err != nil {
		return false, fmt.Errorf("check event %d: %w", id, err)
	}

	return exists, nil
}

// UpdateEvent applies only the non-nil changes in a single statement.
func (r *EventsRepo) UpdateEvent(ctx context.Context, id int64, ch event.Changes) error {
	var affected int64

	err := r.prom.ObserveDB("events.update", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE events
				SET title = COALESCE($2, title),
					location = COALESCE($3, location),
					event_date = COALESCE($4, event_date),
					updated_at = NOW()
			WHERE id = $1`,
			id, ch.Title, ch.Location, ch.EventDate,
		)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("update event %d: %w", id, err)
	}

	if affected == 0 {
		return event.ErrNotFound
	}

	return nil
}
