// Package cache stores resolved authority records in a key/value backend.
//
// The service depends on the Cache capability only. Client is the real
// implementation over a Store backend (redis, badger or in-memory); Noop is
// used when no backend is configured or reachable. Backend failures never
// fail a request: a failed read is a miss and a failed write is dropped.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/mormegil-cz/nklink/internal/authority/metrics"
	"github.com/mormegil-cz/nklink/internal/authority/models"
	"github.com/mormegil-cz/nklink/pkg/platform/sentinel"
)

// Cache is the capability the resolution service depends on.
type Cache interface {
	// Get returns the cached record for id and whether one was present.
	Get(ctx context.Context, id models.AuthorityID) (*models.Record, bool)
	// Put stores rec for id with a TTL chosen from its content.
	Put(ctx context.Context, id models.AuthorityID, rec *models.Record)
}

// Store is a key/value backend with per-key expiry.
// Find returns sentinel.ErrNotFound for a missing or expired key.
type Store interface {
	Find(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Health(ctx context.Context) error
}

// TTLPolicy selects the expiry of a cache entry.
type TTLPolicy struct {
	// Found is used for records holding at least one link entry.
	Found time.Duration
	// Empty is used for absent records and records without entries, so
	// identifiers not yet in the graph are retried sooner.
	Empty time.Duration
}

// For returns the TTL for rec.
func (p TTLPolicy) For(rec *models.Record) time.Duration {
	if rec.HasEntries() {
		return p.Found
	}
	return p.Empty
}

// Client is the Cache backed by a Store.
type Client struct {
	store   Store
	prefix  string
	ttl     TTLPolicy
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for backend failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a Client storing records under prefix+autid.
func New(store Store, prefix string, ttl TTLPolicy, opts ...Option) *Client {
	c := &Client{
		store:  store,
		prefix: prefix,
		ttl:    ttl,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Key returns the backend key of id.
func (c *Client) Key(id models.AuthorityID) string {
	return c.prefix + id.String()
}

// Get implements Cache.
func (c *Client) Get(ctx context.Context, id models.AuthorityID) (*models.Record, bool) {
	data, err := c.store.Find(ctx, c.Key(id))
	if errors.Is(err, sentinel.ErrNotFound) {
		c.metrics.IncrementCacheOperation("get", "miss")
		return nil, false
	}
	if err != nil {
		c.metrics.IncrementCacheOperation("get", "error")
		c.logger.WarnContext(ctx, "cache read failed", "autid", id, "error", err)
		return nil, false
	}

	var rec models.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		c.metrics.IncrementCacheOperation("get", "error")
		c.logger.WarnContext(ctx, "discarding undecodable cache entry", "autid", id, "error", err)
		return nil, false
	}
	c.metrics.IncrementCacheOperation("get", "hit")
	return &rec, true
}

// Put implements Cache.
func (c *Client) Put(ctx context.Context, id models.AuthorityID, rec *models.Record) {
	if rec == nil {
		rec = models.Absent()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		c.metrics.IncrementCacheOperation("put", "error")
		c.logger.WarnContext(ctx, "cache encode failed", "autid", id, "error", err)
		return
	}
	if err := c.store.Save(ctx, c.Key(id), data, c.ttl.For(rec)); err != nil {
		c.metrics.IncrementCacheOperation("put", "error")
		c.logger.WarnContext(ctx, "cache write failed", "autid", id, "error", err)
		return
	}
	c.metrics.IncrementCacheOperation("put", "ok")
}

// Health reports whether the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.store.Health(ctx)
}

// Noop is the Cache used when caching is unavailable. Every Get misses and
// every Put is discarded.
type Noop struct{}

// Get implements Cache.
func (Noop) Get(context.Context, models.AuthorityID) (*models.Record, bool) {
	return nil, false
}

// Put implements Cache.
func (Noop) Put(context.Context, models.AuthorityID, *models.Record) {}

// Health always succeeds; there is nothing to reach.
func (Noop) Health(context.Context) error {
	return nil
}
