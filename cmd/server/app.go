package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mormegil-cz/nklink/internal/authority/cache"
	"github.com/mormegil-cz/nklink/internal/authority/handler"
	"github.com/mormegil-cz/nklink/internal/authority/metrics"
	"github.com/mormegil-cz/nklink/internal/authority/models"
	"github.com/mormegil-cz/nklink/internal/authority/render"
	"github.com/mormegil-cz/nklink/internal/authority/service"
	"github.com/mormegil-cz/nklink/internal/authority/sparql"
	"github.com/mormegil-cz/nklink/internal/platform/config"
	"github.com/mormegil-cz/nklink/internal/platform/redis"
)

const cacheConnectTimeout = 5 * time.Second

// healthChecker is implemented by caches with a reachable backend.
type healthChecker interface {
	Health(ctx context.Context) error
}

// app holds the wired components. It is built once at startup.
type app struct {
	service  *service.Service
	renderer *render.Renderer
	handler  *handler.Handler
	health   healthChecker
	closers  []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*app, error) {
	m := metrics.New(reg)
	catalog := models.DefaultCatalog()

	builder, err := sparql.NewQueryBuilder(cfg.Upstream.AuthorityProperty, cfg.Upstream.Languages, sparql.DefaultCrossReferences())
	if err != nil {
		return nil, err
	}
	resolver := sparql.NewClient(sparql.Config{
		Endpoint:      cfg.Upstream.Endpoint,
		Timeout:       cfg.Upstream.Timeout.Std(),
		UserAgent:     cfg.Upstream.UserAgent,
		From:          cfg.Upstream.From,
		RatePerSecond: cfg.Upstream.RatePerSecond,
		Burst:         cfg.Upstream.Burst,
	}, builder, sparql.NewParser(builder, catalog),
		sparql.WithLogger(logger),
		sparql.WithMetrics(m),
	)

	a := &app{}
	c := a.openCache(ctx, cfg.Cache, logger, m)

	a.service = service.New(resolver, c, service.WithLogger(logger), service.WithMetrics(m))
	a.renderer = render.New(catalog, render.PageConfig{
		AuthorityBaseURL: cfg.Client.AuthorityBaseURL,
		FaviconURL:       cfg.Client.FaviconURL,
		DocumentationURL: cfg.Client.DocumentationURL,
		APIURL:           cfg.Client.APIURL,
		SourceURL:        cfg.Client.SourceURL,
	}, cfg.Client.MaxCachingTime.Std())
	a.handler = handler.New(a.service, a.renderer, logger, m)
	return a, nil
}

// openCache selects the cache once. An unreachable backend degrades to the
// no-op cache with a warning.
func (a *app) openCache(ctx context.Context, cfg config.Cache, logger *slog.Logger, m *metrics.Metrics) service.Cache {
	ttl := cache.TTLPolicy{Found: cfg.TTL.Std(), Empty: cfg.EmptyTTL.Std()}
	opts := []cache.Option{cache.WithLogger(logger), cache.WithMetrics(m)}

	var store cache.Store
	switch cfg.Backend {
	case config.CacheBackendRedis:
		ctx, cancel := context.WithTimeout(ctx, cacheConnectTimeout)
		defer cancel()
		client, err := redis.New(ctx, cfg)
		if err != nil {
			logger.WarnContext(ctx, "redis unavailable, caching disabled", "error", err)
			return cache.Noop{}
		}
		a.closers = append(a.closers, client.Close)
		store = cache.NewRedisStore(client.Client)
	case config.CacheBackendBadger:
		db, err := cache.OpenBadger(cfg.BadgerPath)
		if err != nil {
			logger.WarnContext(ctx, "badger unavailable, caching disabled", "error", err, "path", cfg.BadgerPath)
			return cache.Noop{}
		}
		a.closers = append(a.closers, db.Close)
		store = cache.NewBadgerStore(db)
	case config.CacheBackendMemory:
		store = cache.NewMemoryStore()
	default:
		logger.InfoContext(ctx, "caching disabled")
		return cache.Noop{}
	}

	client := cache.New(store, cfg.KeyPrefix, ttl, opts...)
	a.health = client
	logger.InfoContext(ctx, "cache ready", "backend", cfg.Backend)
	return client
}
