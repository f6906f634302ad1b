// Package service orchestrates a resolution: cache lookup, upstream resolution
// on a miss, and storing the substantive result.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mormegil-cz/nklink/internal/authority/metrics"
	"github.com/mormegil-cz/nklink/internal/authority/models"
	"github.com/mormegil-cz/nklink/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/service-mocks.go -package=mocks Resolver,Cache

// Resolver looks an authority ID up in the knowledge graph.
type Resolver interface {
	Resolve(ctx context.Context, id models.AuthorityID) (*models.Record, error)
}

// Cache stores resolved records.
type Cache interface {
	Get(ctx context.Context, id models.AuthorityID) (*models.Record, bool)
	Put(ctx context.Context, id models.AuthorityID, rec *models.Record)
}

// Source tells where a record came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceUpstream Source = "upstream"
)

// Options modify a single resolution.
type Options struct {
	// Purge skips the cache read. The result is still stored.
	Purge bool
}

// Result is a resolved record with its origin.
type Result struct {
	Record   *models.Record
	Source   Source
	Duration time.Duration
}

// Service resolves authority IDs through the cache.
type Service struct {
	resolver Resolver
	cache    Cache
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a Service.
func New(resolver Resolver, cache Cache, opts ...Option) *Service {
	s := &Service{
		resolver: resolver,
		cache:    cache,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Resolve returns the record for id. A cache hit is used unless opts.Purge is
// set; otherwise the resolver is called and its result stored, including the
// absent record. Resolver failures are returned unchanged and never cached.
func (s *Service) Resolve(ctx context.Context, id models.AuthorityID, opts Options) (*Result, error) {
	start := time.Now()

	if !opts.Purge {
		if rec, ok := s.cache.Get(ctx, id); ok {
			s.metrics.IncrementResolution(string(SourceCache), outcome(rec))
			return &Result{Record: rec, Source: SourceCache, Duration: time.Since(start)}, nil
		}
	}

	rec, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		s.metrics.IncrementResolution(string(SourceUpstream), "error")
		s.logger.WarnContext(ctx, "upstream resolution failed",
			"request_id", requestcontext.RequestID(ctx),
			"autid", id,
			"error", err,
		)
		return nil, err
	}
	if rec == nil {
		rec = models.Absent()
	}

	s.cache.Put(ctx, id, rec)
	s.metrics.IncrementResolution(string(SourceUpstream), outcome(rec))
	return &Result{Record: rec, Source: SourceUpstream, Duration: time.Since(start)}, nil
}

func outcome(rec *models.Record) string {
	if rec.Found() {
		return "found"
	}
	return "absent"
}
