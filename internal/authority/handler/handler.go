package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mormegil-cz/nklink/internal/authority/metrics"
	"github.com/mormegil-cz/nklink/internal/authority/models"
	"github.com/mormegil-cz/nklink/internal/authority/render"
	"github.com/mormegil-cz/nklink/internal/authority/service"
	dErrors "github.com/mormegil-cz/nklink/pkg/domain-errors"
	"github.com/mormegil-cz/nklink/pkg/platform/httputil"
	"github.com/mormegil-cz/nklink/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks Service

// Service resolves authority IDs.
type Service interface {
	Resolve(ctx context.Context, id models.AuthorityID, opts service.Options) (*service.Result, error)
}

// Handler serves the resolution endpoint.
type Handler struct {
	service  Service
	renderer *render.Renderer
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New creates a Handler.
func New(svc Service, renderer *render.Renderer, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		service:  svc,
		renderer: renderer,
		logger:   logger,
		metrics:  m,
	}
}

// Register registers the resolution routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	for _, path := range []string{"/", "/link.php"} {
		r.Get(path, h.handleResolve)
		r.Head(path, h.handleResolve)
	}
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	now := requestcontext.Now(ctx)
	expires := h.renderer.Expires(now)

	req, err := parseResolveRequest(r.URL.Query())
	if err != nil {
		h.logger.InfoContext(ctx, "invalid resolve request",
			"request_id", requestID,
			"error", err,
		)
		h.writeError(w, "invalid", err, expires)
		return
	}
	format := req.Params.Format.String()

	res, err := h.service.Resolve(ctx, req.AuthorityID, service.Options{Purge: req.Purge})
	if err != nil {
		h.logger.ErrorContext(ctx, "authority resolution failed",
			"request_id", requestID,
			"autid", req.AuthorityID,
			"code", dErrors.CodeOf(err),
			"error", err,
		)
		h.writeError(w, format, err, expires)
		return
	}

	resp, err := h.renderer.Render(res.Record, req.AuthorityID, req.Params, now)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "render failed",
				"request_id", requestID,
				"autid", req.AuthorityID,
				"error", err,
			)
		}
		h.writeError(w, format, err, expires)
		return
	}

	for k, v := range resp.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
	h.metrics.IncrementResponse(format, resp.Status)

	h.logger.InfoContext(ctx, "authority resolved",
		"request_id", requestID,
		"autid", req.AuthorityID,
		"format", format,
		"source", res.Source,
		"duration_ms", res.Duration.Milliseconds(),
	)
}

func (h *Handler) writeError(w http.ResponseWriter, format string, err error, expires time.Time) {
	status := httputil.WriteError(w, err, expires)
	h.metrics.IncrementResponse(format, status)
}
