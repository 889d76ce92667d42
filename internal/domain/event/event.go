package event

import (
	"errors"
	"time"
)

type Event struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Location  string     `json:"location"`
	EventDate *time.Time `json:"event_date"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// WithAttendees is the single-event read shape. Attendees is never nil so it
// always encodes as an array.
type WithAttendees struct {
	Event
	Attendees []Attendee `json:"attendees"`
}

var (
	ErrNotFound  = errors.New("event not found")
	ErrNoChanges = errors.New("update carries no changes")
)

type CreateEventRequest struct {
	Title     string     `json:"title" binding:"required,notblank,max=255"`
	Location  string     `json:"location" binding:"required,notblank,max=255"`
	EventDate *time.Time `json:"event_date"`
}

// a partial update payload: nil fields are left untouched.
// ID is accepted for clients that echo it back in the body, the path id wins.
type UpdateEventRequest struct {
	ID        *int64     `json:"id" binding:"omitempty,gt=0"`
	Title     *string    `json:"title" binding:"omitempty,notblank,max=255"`
	Location  *string    `json:"location" binding:"omitempty,notblank,max=255"`
	EventDate *time.Time `json:"event_date"`
}

// Changes is what a store applies to an existing row.
type Changes struct {
	Title     *string
	Location  *string
	EventDate *time.Time
}

func (r UpdateEventRequest) Changes() Changes {
	return Changes{
		Title:     r.Title,
		Location:  r.Location,
		EventDate: r.EventDate,
	}
}

func (c Changes) Empty() bool {
	return c.Title == nil && c.Location == nil && c.EventDate == nil
}

// Apply copies the set fields onto e.
func (c Changes) Apply(e *Event) {
	if c.Title != nil {
		e.Title = *c.Title
	}
	if c.Location != nil {
		e.Location = *c.Location
	}
	if c.EventDate != nil {
		d := *c.EventDate
		e.EventDate = &d
	}
}

// UpdateResult reports the outcome of an update, not the record itself.
type UpdateResult struct {
	ID      int64 `json:"id"`
	Updated bool  `json:"updated"`
}
