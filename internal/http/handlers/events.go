package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/geocoder89/eventdesk/internal/domain/event"
	"github.com/gin-gonic/gin"
)

type EventService interface {
	ListEvents(ctx context.Context) ([]event.Event, error)
	GetEvent(ctx context.Context, id int64) (event.WithAttendees, error)
	CreateEvent(ctx context.Context, req event.CreateEventRequest) (event.Event, error)
	UpdateEvent(ctx context.Context, id int64, req event.UpdateEventRequest) (event.UpdateResult, error)
}

type EventsHandler struct {
	svc EventService
}

func NewEventsHandler(svc EventService) *EventsHandler {
	return &EventsHandler{svc: svc}
}

func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	events, err := h.svc.ListEvents(ctx.Request.Context())
	if err != nil {
		RespondInternal(ctx, "Could not list events", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, events)
}

func (h *EventsHandler) GetEventByID(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		RespondNotFound(ctx, "Event not found")
		return
	}

	e, err := h.svc.GetEvent(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not fetch event", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, e)
}

func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	var req event.CreateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	e, err := h.svc.CreateEvent(ctx.Request.Context(), req)
	if err != nil {
		RespondInternal(ctx, "Could not create event", err)
		return
	}

	ctx.Header("Location", "/events/"+strconv.FormatInt(e.ID, 10))
	ctx.JSON(http.StatusCreated, e)
}

// UpdateEvent serves both PUT and PATCH with partial semantics.
func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		RespondNotFound(ctx, "Event not found")
		return
	}

	var req event.UpdateEventRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if req.ID != nil && *req.ID != id {
		RespondValidation(ctx, "Body id does not match path id", []FieldError{{
			Field:   "id",
			Rule:    "eq",
			Param:   strconv.FormatInt(id, 10),
			Message: "must match the id in the path",
		}})
		return
	}

	res, err := h.svc.UpdateEvent(ctx.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, event.ErrNotFound):
			RespondNotFound(ctx, "Event not found")
		case errors.Is(err, event.ErrNoChanges):
			RespondValidation(ctx, "Nothing to update", []FieldError{{
				Field:   "title",
				Rule:    "required_without_all",
				Param:   "location event_date",
				Message: "at least one of title, location, event_date is required",
			}})
		default:
			RespondInternal(ctx, "Could not update event", err)
		}
		return
	}

	ctx.JSON(http.StatusOK, res)
}
