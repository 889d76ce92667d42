package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/eventdesk/internal/domain/event"
	"github.com/geocoder89/eventdesk/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AttendeesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAttendeesRepo(pool *pgxpool.Pool, prom *observability.Prom) *AttendeesRepo {
	return &AttendeesRepo{
		pool: pool,
		prom: prom,
	}
}

// queryer is satisfied by both the pool and a transaction.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryAttendees(ctx context.Context, q queryer, eventID int64) ([]event.Attendee, error) {
	rows, err := q.Query(ctx,
		`SELECT id, event_id, name, email, created_at
		FROM attendees
		WHERE event_id = $1
		ORDER BY id ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]event.Attendee, 0)
	for rows.Next() {
		var a event.Attendee
		if err := rows.Scan(&a.ID, &a.EventID, &a.Name, &a.Email, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

func (r *AttendeesRepo) AddAttendee(ctx context.Context, a event.Attendee) (event.Attendee, error) {
	err := r.prom.ObserveDB("attendees.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO attendees (event_id, name, email, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			a.EventID, a.Name, a.Email, a.CreatedAt,
		).Scan(&a.ID)
	})
	if err != nil {
		// the event vanished between the service's existence check and the insert
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return event.Attendee{}, event.ErrNotFound
		}
		return event.Attendee{}, fmt.Errorf("insert attendee: %w", err)
	}

	return a, nil
}

func (r *AttendeesRepo) ListAttendees(ctx context.Context, eventID int64) ([]event.Attendee, error) {
	var out []event.Attendee

	err := r.prom.ObserveDB("attendees.list", func() error {
		var err error
		out, err = queryAttendees(ctx, r.pool, eventID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list attendees of %d: %w", eventID, err)
	}

	return out, nil
}
