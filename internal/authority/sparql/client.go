package sparql

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/mormegil-cz/nklink/internal/authority/metrics"
	"github.com/mormegil-cz/nklink/internal/authority/models"
	dErrors "github.com/mormegil-cz/nklink/pkg/domain-errors"
)

// maxResponseBytes caps the body read from the endpoint.
const maxResponseBytes = 8 << 20

// Config holds the endpoint settings of a Client.
type Config struct {
	Endpoint  string
	Timeout   time.Duration
	UserAgent string
	From      string
	// RatePerSecond limits outbound requests; zero disables the limiter.
	RatePerSecond float64
	Burst         int
}

// Client resolves authority IDs with one SPARQL request each. Failures are
// not retried.
type Client struct {
	cfg        Config
	httpClient *http.Client
	builder    *QueryBuilder
	parser     *Parser
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its Timeout is overridden by
// Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
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

// WithClock overrides the time source of the cache-busting nonce.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a client for cfg.Endpoint.
func NewClient(cfg Config, builder *QueryBuilder, parser *Parser, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		builder:    builder,
		parser:     parser,
		logger:     slog.Default(),
		tracer:     otel.Tracer("github.com/mormegil-cz/nklink/internal/authority/sparql"),
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.httpClient.Timeout = cfg.Timeout
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return c
}

// Resolve queries the endpoint for id. It returns the absent record when the
// graph has no matching entity, and a coded error wrapping *UpstreamError on
// transport, status or parse failures.
func (c *Client) Resolve(ctx context.Context, id models.AuthorityID) (*models.Record, error) {
	ctx, span := c.tracer.Start(ctx, "sparql.Resolve", trace.WithAttributes(
		attribute.String("nklink.autid", id.String()),
		attribute.String("nklink.query_version", QueryVersion),
	))
	defer span.End()

	rec, err := c.resolve(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(GetCategory(err)))
		return nil, err
	}
	span.SetAttributes(attribute.Bool("nklink.found", rec.Found()))
	return rec, nil
}

func (c *Client) resolve(ctx context.Context, id models.AuthorityID) (*models.Record, error) {
	query, err := c.builder.Build(id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Could not build query")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, transportError(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(query), nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Could not build request")
	}
	req.Header.Set("Accept", "application/sparql-results+json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.From != "" {
		req.Header.Set("From", c.cfg.From)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveUpstreamLatency(time.Since(start))
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "sparql response",
		"autid", id,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		msg := fmt.Sprintf("Error received from WQS: %d", resp.StatusCode)
		return nil, dErrors.Wrap(&UpstreamError{
			Category: ErrorProviderOutage,
			Status:   resp.StatusCode,
			Message:  msg,
		}, dErrors.CodeBadGateway, msg)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(err)
	}

	rec, err := c.parser.Parse(body)
	if err != nil {
		const msg = "Could not parse WQS data"
		return nil, dErrors.Wrap(&UpstreamError{
			Category:   ErrorBadData,
			Status:     resp.StatusCode,
			Message:    msg,
			Underlying: err,
		}, dErrors.CodeInternal, msg)
	}
	return rec, nil
}

// requestURL appends the query, the result format and a cache-busting nonce.
func (c *Client) requestURL(query string) string {
	params := url.Values{}
	params.Set("query", query)
	params.Set("format", "json")
	params.Set("_", strconv.FormatInt(c.now().Unix(), 10))
	sep := "?"
	if strings.Contains(c.cfg.Endpoint, "?") {
		sep = "&"
	}
	return c.cfg.Endpoint + sep + params.Encode()
}

func transportError(err error) error {
	category := ErrorProviderOutage
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		category = ErrorTimeout
	}
	detail := err
	var ue *url.Error
	if errors.As(err, &ue) {
		// the request URL carries the whole query
		detail = ue.Err
	}
	msg := "Could not download data: " + strconv.Quote(detail.Error())
	return dErrors.Wrap(&UpstreamError{
		Category:   category,
		Message:    "Could not download data",
		Underlying: err,
	}, dErrors.CodeBadGateway, msg)
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
