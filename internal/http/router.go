package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/eventdesk/internal/config"
	"github.com/geocoder89/eventdesk/internal/http/handlers"
	"github.com/geocoder89/eventdesk/internal/http/middlewares"
	"github.com/geocoder89/eventdesk/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Service is everything the HTTP layer needs from the event service.
type Service interface {
	handlers.EventService
	handlers.AttendeeService
	Ping(ctx context.Context) error
}

type Deps struct {
	Log     *slog.Logger
	Service Service
	Prom    *observability.Prom

	// Tokens guards the write routes. Nil leaves them open.
	Tokens middlewares.TokenVerifier

	// Draining reports graceful shutdown in progress.
	Draining func() bool
}

func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(otelgin.Middleware(cfg.ServiceName))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found")
	})
	r.NoMethod(func(ctx *gin.Context) {
		handlers.RespondError(ctx, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	// health
	h := handlers.NewHealthHandler(deps.Service.Ping, deps.Draining)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Prom != nil {
		r.GET("/metrics", gin.WrapH(deps.Prom.Handler()))
	}

	eventsHandler := handlers.NewEventsHandler(deps.Service)
	attendeesHandler := handlers.NewAttendeesHandler(deps.Service)

	// public reads
	r.GET("/events", eventsHandler.ListEvents)
	r.GET("/events/:id", eventsHandler.GetEventByID)
	r.GET("/events/:id/attendees", attendeesHandler.ListAttendees)

	// writes
	writes := r.Group("/events")
	if deps.Tokens != nil {
		writes.Use(middlewares.NewAuthMiddleware(deps.Tokens).RequireAuth())
	}
	writes.Use(middlewares.RequireJSON())
	writes.POST("", eventsHandler.CreateEvent)
	writes.PUT("/:id", eventsHandler.UpdateEvent)
	writes.PATCH("/:id", eventsHandler.UpdateEvent)
	writes.POST("/:id/attendees", attendeesHandler.AddAttendee)

	return r
}
