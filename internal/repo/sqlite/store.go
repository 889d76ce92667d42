// Package sqlite is the embedded store: bun over SQLite, used for local
// development, single-node deployments and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/eventdesk/internal/domain/event"
	"github.com/geocoder89/eventdesk/internal/observability"
	"github.com/uptrace/bun"
)

type Store struct {
	db   *bun.DB
	prom *observability.Prom
}

func NewStore(db *bun.DB, prom *observability.Prom) *Store {
	return &Store{db: db, prom: prom}
}

func (s *Store) CreateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	row := eventRowFrom(e)

	err := s.prom.ObserveDB("events.create", func() error {
		_, err := s.db.NewInsert().Model(row).Exec(ctx)
		return err
	})
	if err != nil {
		return event.Event{}, fmt.Errorf("insert event: %w", err)
	}

	return row.toDomain(), nil
}

func (s *Store) ListEvents(ctx context.Context) ([]event.Event, error) {
	var rows []eventRow

	err := s.prom.ObserveDB("events.list", func() error {
		return s.db.NewSelect().Model(&rows).OrderExpr("e.id ASC").Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	out := make([]event.Event, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// GetEvent eager-loads the attendees relation.
func (s *Store) GetEvent(ctx context.Context, id int64) (event.WithAttendees, error) {
	row := new(eventRow)

	err := s.prom.ObserveDB("events.get", func() error {
		return s.db.NewSelect().
			Model(row).
			Relation("Attendees", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.OrderExpr("a.id ASC")
			}).
			Where("e.id = ?", id).
			Scan(ctx)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.WithAttendees{}, event.ErrNotFound
		}
		return event.WithAttendees{}, fmt.Errorf("get event %d: %w", id, err)
	}

	return event.WithAttendees{
		Event:     row.toDomain(),
		Attendees: attendeesToDomain(row.Attendees),
	}, nil
}

func (s *Store) EventExists(ctx context.Context, id int64) (bool, error) {
	var exists bool

	err := s.prom.ObserveDB("events.exists", func() error {
		var err error
		exists, err = s.db.NewSelect().Model((*eventRow)(nil)).Where("e.id = ?", id).Exists(ctx)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("check event %d: %w", id, err)
	}

	return exists, nil
}

// UpdateEvent loads the row, applies ch to it and writes it back in one
// transaction.
func (s *Store) UpdateEvent(ctx context.Context, id int64, ch event.Changes) error {
	err := s.prom.ObserveDB("events.update", func() error {
		return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			row := new(eventRow)
			if err := tx.NewSelect().Model(row).Where("e.id = ?", id).Scan(ctx); err != nil {
				return err
			}

			e := row.toDomain()
			ch.Apply(&e)
			e.UpdatedAt = time.Now().UTC()

			upd := eventRowFrom(e)
			upd.ID = id

			_, err := tx.NewUpdate().
				Model(upd).
				Column("title", "location", "event_date", "updated_at").
				WherePK().
				Exec(ctx)
			return err
		})
	})
	if errors.Is(err, sql.ErrNoRows) {
		return event.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update event %d: %w", id, err)
	}
	return nil
}

func (s *Store) AddAttendee(ctx context.Context, a event.Attendee) (event.Attendee, error) {
	row := &attendeeRow{
		EventID:   a.EventID,
		Name:      a.Name,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
	}

	err := s.prom.ObserveDB("attendees.create", func() error {
		_, err := s.db.NewInsert().Model(row).Exec(ctx)
		return err
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return event.Attendee{}, event.ErrNotFound
		}
		return event.Attendee{}, fmt.Errorf("insert attendee: %w", err)
	}

	return row.toDomain(), nil
}

func (s *Store) ListAttendees(ctx context.Context, eventID int64) ([]event.Attendee, error) {
	var rows []*attendeeRow

	err := s.prom.ObserveDB("attendees.list", func() error {
		return s.db.NewSelect().
			Model(&rows).
			Where("a.event_id = ?", eventID).
			OrderExpr("a.id ASC").
			Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list attendees of %d: %w", eventID, err)
	}

	return attendeesToDomain(rows), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// both sqlite drivers behind sqliteshim report this text
func isForeignKeyViolation(err error) bool {
	return strings.Contains(strings.ToUpper(err.Error()), "FOREIGN KEY CONSTRAINT FAILED")
}
