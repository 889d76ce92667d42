package postgres

import (
	"context"

	"github.com/geocoder89/eventdesk/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store bundles the repositories behind the service's store contract.
type Store struct {
	*EventsRepo
	*AttendeesRepo

	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool, prom *observability.Prom) *Store {
	return &Store{
		EventsRepo:    NewEventsRepo(pool, prom),
		AttendeesRepo: NewAttendeesRepo(pool, prom),
		pool:          pool,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
