package event

import "time"

// NewFromCreateRequest builds an unsaved event holding the submitted values
// as given. The store assigns the ID.
func NewFromCreateRequest(req CreateEventRequest) Event {
	now := time.Now().UTC()

	return Event{
		Title:     req.Title,
		Location:  req.Location,
		EventDate: req.EventDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewAttendee(eventID int64, req CreateAttendeeRequest) Attendee {
	return Attendee{
		EventID:   eventID,
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}
}
