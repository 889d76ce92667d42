package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/geocoder89/eventdesk/internal/cache"
	"github.com/geocoder89/eventdesk/internal/domain/event"
	"github.com/geocoder89/eventdesk/internal/observability"
)

// Store is the persistence contract. Implementations translate their own
// "no rows" errors into event.ErrNotFound.
type Store interface {
	ListEvents(ctx context.Context) ([]event.Event, error)
	GetEvent(ctx context.Context, id int64) (event.WithAttendees, error)
	EventExists(ctx context.Context, id int64) (bool, error)
	CreateEvent(ctx context.Context, e event.Event) (event.Event, error)
	UpdateEvent(ctx context.Context, id int64, ch event.Changes) error
	AddAttendee(ctx context.Context, a event.Attendee) (event.Attendee, error)
	ListAttendees(ctx context.Context, eventID int64) ([]event.Attendee, error)
	Ping(ctx context.Context) error
}

type EventService struct {
	store Store
	cache cache.Cache
	prom  *observability.Prom
	log   *slog.Logger
}

type Option func(*EventService)

// WithCache enables read-through caching of list and single-event reads.
func WithCache(c cache.Cache) Option {
	return func(s *EventService) {
		s.cache = c
	}
}

func WithMetrics(p *observability.Prom) Option {
	return func(s *EventService) {
		s.prom = p
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *EventService) {
		if log != nil {
			s.log = log
		}
	}
}

func NewEventService(store Store, opts ...Option) *EventService {
	s := &EventService{
		store: store,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EventService) ListEvents(ctx context.Context) ([]event.Event, error) {
	key, ok := s.versionedKey(ctx, cache.EventsListGenKey(), cache.EventsListKey)

	var out []event.Event
	if ok && s.cached(ctx, cache.FamilyEventList, key, &out) {
		return out, nil
	}

	out, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	if ok {
		s.fill(ctx, key, out)
	}
	return out, nil
}

func (s *EventService) GetEvent(ctx context.Context, id int64) (event.WithAttendees, error) {
	key, ok := s.versionedKey(ctx, cache.EventGenKey(id), func(gen int64) string {
		return cache.EventKey(id, gen)
	})

	var out event.WithAttendees
	if ok && s.cached(ctx, cache.FamilyEvent, key, &out) {
		return out, nil
	}

	out, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return event.WithAttendees{}, err
	}

	if ok {
		s.fill(ctx, key, out)
	}
	return out, nil
}

func (s *EventService) CreateEvent(ctx context.Context, req event.CreateEventRequest) (event.Event, error) {
	e, err := s.store.CreateEvent(ctx, event.NewFromCreateRequest(req))
	if err != nil {
		return event.Event{}, err
	}

	s.invalidate(ctx, cache.EventsListGenKey())
	return e, nil
}

// UpdateEvent fails with event.ErrNotFound before touching anything when the
// id is unknown.
func (s *EventService) UpdateEvent(ctx context.Context, id int64, req event.UpdateEventRequest) (event.UpdateResult, error) {
	ch := req.Changes()
	if ch.Empty() {
		return event.UpdateResult{}, event.ErrNoChanges
	}

	if err := s.mustExist(ctx, id); err != nil {
		return event.UpdateResult{}, err
	}

	if err := s.store.UpdateEvent(ctx, id, ch); err != nil {
		return event.UpdateResult{}, err
	}

	s.invalidate(ctx, cache.EventGenKey(id), cache.EventsListGenKey())
	return event.UpdateResult{ID: id, Updated: true}, nil
}

func (s *EventService) AddAttendee(ctx context.Context, eventID int64, req event.CreateAttendeeRequest) (event.Attendee, error) {
	if err := s.mustExist(ctx, eventID); err != nil {
		return event.Attendee{}, err
	}

	a, err := s.store.AddAttendee(ctx, event.NewAttendee(eventID, req))
	if err != nil {
		return event.Attendee{}, err
	}

	s.invalidate(ctx, cache.EventGenKey(eventID))
	return a, nil
}

func (s *EventService) ListAttendees(ctx context.Context, eventID int64) ([]event.Attendee, error) {
	if err := s.mustExist(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListAttendees(ctx, eventID)
}

func (s *EventService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *EventService) mustExist(ctx context.Context, id int64) error {
	ok, err := s.store.EventExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return event.ErrNotFound
	}
	return nil
}

// cache failures degrade to a store read; they are logged, never returned.

func (s *EventService) cached(ctx context.Context, family, key string, out any) bool {
	if s.cache == nil {
		return false
	}

	b, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.prom.ObserveCache(family, "error")
		s.log.WarnContext(ctx, "cache get failed", "key", key, "err", err)
		return false
	}
	if !ok {
		s.prom.ObserveCache(family, "miss")
		return false
	}

	if err := json.Unmarshal(b, out); err != nil {
		s.prom.ObserveCache(family, "error")
		s.log.WarnContext(ctx, "cache entry undecodable, dropping", "key", key, "err", err)
		_ = s.cache.Delete(ctx, key)
		return false
	}

	s.prom.ObserveCache(family, "hit")
	return true
}

func (s *EventService) fill(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}

	b, err := json.Marshal(v)
	if err != nil {
		s.log.WarnContext(ctx, "cache encode failed", "key", key, "err", err)
		return
	}

	if err := s.cache.Set(ctx, key, b); err != nil {
		s.log.WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
}

// versionedKey resolves the key for the current generation. The generation is
// read before the store so a write that lands during the read bumps it and
// the fill goes to a key nobody reads again. ok is false when the cache is
// off or unreachable; the caller then neither reads nor fills.
func (s *EventService) versionedKey(ctx context.Context, genKey string, key func(gen int64) string) (string, bool) {
	if s.cache == nil {
		return "", false
	}

	gen, err := s.cache.Generation(ctx, genKey)
	if err != nil {
		s.log.WarnContext(ctx, "cache generation read failed", "key", genKey, "err", err)
		return "", false
	}
	return key(gen), true
}

// invalidate bumps generations after a write has been stored.
func (s *EventService) invalidate(ctx context.Context, genKeys ...string) {
	if s.cache == nil {
		return
	}

	for _, k := range genKeys {
		if _, err := s.cache.Bump(ctx, k); err != nil {
			s.log.ErrorContext(ctx, "cache invalidation failed, stale reads possible until ttl", "key", k, "err", err)
		}
	}
}
