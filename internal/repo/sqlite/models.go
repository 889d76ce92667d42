package sqlite

import (
	"time"

	"github.com/geocoder89/eventdesk/internal/domain/event"
	"github.com/uptrace/bun"
)

type eventRow struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID        int64      `bun:"id,pk,autoincrement"`
	Title     string     `bun:"title,notnull"`
	Location  string     `bun:"location,notnull"`
	EventDate *time.Time `bun:"event_date"`
	CreatedAt time.Time  `bun:"created_at,notnull"`
	UpdatedAt time.Time  `bun:"updated_at,notnull"`

	Attendees []*attendeeRow `bun:"rel:has-many,join:id=event_id"`
}

type attendeeRow struct {
	bun.BaseModel `bun:"table:attendees,alias:a"`

	ID        int64     `bun:"id,pk,autoincrement"`
	EventID   int64     `bun:"event_id,notnull"`
	Name      string    `bun:"name,notnull"`
	Email     string    `bun:"email,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (r *eventRow) toDomain() event.Event {
	return event.Event{
		ID:        r.ID,
		Title:     r.Title,
		Location:  r.Location,
		EventDate: r.EventDate,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *attendeeRow) toDomain() event.Attendee {
	return event.Attendee{
		ID:        r.ID,
		EventID:   r.EventID,
		Name:      r.Name,
		Email:     r.Email,
		CreatedAt: r.CreatedAt,
	}
}

func eventRowFrom(e event.Event) *eventRow {
	return &eventRow{
		Title:     e.Title,
		Location:  e.Location,
		EventDate: e.EventDate,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func attendeesToDomain(rows []*attendeeRow) []event.Attendee {
	out := make([]event.Attendee, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}
