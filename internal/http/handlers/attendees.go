package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/eventdesk/internal/domain/event"
	"github.com/gin-gonic/gin"
)

type AttendeeService interface {
	AddAttendee(ctx context.Context, eventID int64, req event.CreateAttendeeRequest) (event.Attendee, error)
	ListAttendees(ctx context.Context, eventID int64) ([]event.Attendee, error)
}

type AttendeesHandler struct {
	svc AttendeeService
}

func NewAttendeesHandler(svc AttendeeService) *AttendeesHandler {
	return &AttendeesHandler{svc: svc}
}

func (h *AttendeesHandler) AddAttendee(ctx *gin.Context) {
	eventID, ok := pathID(ctx)
	if !ok {
		RespondNotFound(ctx, "Event not found")
		return
	}

	var req event.CreateAttendeeRequest
	if !BindJSON(ctx, &req) {
		return
	}

	a, err := h.svc.AddAttendee(ctx.Request.Context(), eventID, req)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not add attendee", err)
		return
	}

	ctx.JSON(http.StatusCreated, a)
}

func (h *AttendeesHandler) ListAttendees(ctx *gin.Context) {
	eventID, ok := pathID(ctx)
	if !ok {
		RespondNotFound(ctx, "Event not found")
		return
	}

	list, err := h.svc.ListAttendees(ctx.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not list attendees", err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}
