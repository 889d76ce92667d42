package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/eventdesk/internal/auth"
	"github.com/geocoder89/eventdesk/internal/cache"
	"github.com/geocoder89/eventdesk/internal/config"
	"github.com/geocoder89/eventdesk/internal/db"
	httpx "github.com/geocoder89/eventdesk/internal/http"
	"github.com/geocoder89/eventdesk/internal/observability"
	"github.com/geocoder89/eventdesk/internal/repo/postgres"
	"github.com/geocoder89/eventdesk/internal/repo/sqlite"
	"github.com/geocoder89/eventdesk/internal/service"
	"github.com/geocoder89/eventdesk/migrations"
)

type ServeCmd struct{}

func (c *ServeCmd) Run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTLPEndpoint,
		Env:         cfg.Env,
		ImageURL:    cfg.ImageURL,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		tctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		if err := shutdownTracer(tctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	prom := observability.NewProm()

	store, closeStore, err := openStore(ctx, cfg, prom)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []service.Option{service.WithMetrics(prom), service.WithLogger(log)}
	if c, closeCache := newCache(cfg); c != nil {
		defer closeCache()
		if cfg.RedisAddr == "" {
			log.Warn("in-process cache enabled; other replicas will not see its invalidations", "ttl", cfg.CacheTTL)
		}
		opts = append(opts, service.WithCache(c))
	}
	svc := service.NewEventService(store, opts...)

	var draining atomic.Bool
	deps := httpx.Deps{Log: log, Service: svc, Prom: prom, Draining: draining.Load}
	if cfg.AuthEnabled() {
		deps.Tokens = auth.NewManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpx.NewRouter(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			"port", cfg.Port,
			"env", cfg.Env,
			"db_driver", cfg.DBDriver,
			"cache", cacheKind(cfg),
			"auth", cfg.AuthEnabled(),
			"image_url", cfg.ImageURL,
			"vpc_id", cfg.VPCID,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	draining.Store(true)

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(out io.Writer) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := config.WithTimeout(30 * time.Second)
	defer cancel()

	_, closeStore, err := openStore(ctx, cfg, nil)
	if err != nil {
		return err
	}
	closeStore()

	fmt.Fprintf(out, "schema up to date (%s)\n", cfg.DBDriver)
	return nil
}

type TokenCmd struct {
	Subject string        `default:"ops" help:"Subject recorded in the token"`
	TTL     time.Duration `name:"ttl" help:"Token lifetime; defaults to JWT_ACCESS_TTL_MINUTES"`
}

func (c *TokenCmd) Run(out io.Writer) error {
	cfg := config.Load()
	if !cfg.AuthEnabled() {
		return errors.New("JWT_SECRET is not set; write endpoints are open")
	}

	ttl := cfg.JWTAccessTTL
	if c.TTL > 0 {
		ttl = c.TTL
	}

	token, err := auth.NewManager(cfg.JWTSecret, ttl).GenerateAccessToken(c.Subject)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, token)
	return nil
}

// openStore connects to the configured database and brings its schema up to date.
func openStore(ctx context.Context, cfg config.Config, prom *observability.Prom) (service.Store, func(), error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		bundb, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlite.CreateSchema(ctx, bundb); err != nil {
			_ = bundb.Close()
			return nil, nil, fmt.Errorf("create schema: %w", err)
		}
		return sqlite.NewStore(bundb, prom), func() { _ = bundb.Close() }, nil

	default:
		pool, err := db.NewPool(cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migrations.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		return postgres.NewStore(pool, prom), pool.Close, nil
	}
}

func newCache(cfg config.Config) (cache.Cache, func()) {
	if !cfg.CacheEnabled() {
		return nil, nil
	}

	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.CacheTTL)
		return rc, func() { _ = rc.Close() }
	}

	return cache.NewMemory(cfg.CacheTTL), func() {}
}

func cacheKind(cfg config.Config) string {
	switch {
	case !cfg.CacheEnabled():
		return "off"
	case cfg.RedisAddr != "":
		return "redis"
	default:
		return "memory"
	}
}
