// Package web serves the HTML dashboard, the JSON API and the operational
// endpoints over chi.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/godilite/perf-dashboard/internal/dataset"
	"github.com/godilite/perf-dashboard/internal/service"
	"github.com/godilite/perf-dashboard/pkg/cache"
)

//go:embed templates/*.html
var templateFS embed.FS

const defaultRequestTimeout = 10 * time.Second

type Handler struct {
	perf     PerformanceService
	cache    *cache.ReadThrough
	logger   *zap.Logger
	observer RequestObserver
	metrics  http.Handler
	tmpl     *template.Template
	chartCfg chartConfig
}

type Option func(*Handler)

func WithCache(rt *cache.ReadThrough) Option {
	return func(h *Handler) {
		h.cache = rt
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMetrics mounts the exposition handler on /metrics and reports every
// request to observer.
func WithMetrics(handler http.Handler, observer RequestObserver) Option {
	return func(h *Handler) {
		h.metrics = handler
		h.observer = observer
	}
}

func NewHandler(perf PerformanceService, opts ...Option) *Handler {
	if perf == nil {
		panic("nil PerformanceService provided to NewHandler")
	}
	h := &Handler{
		perf:     perf,
		logger:   zap.NewNop(),
		tmpl:     template.Must(template.ParseFS(templateFS, "templates/*.html")),
		chartCfg: defaultChartConfig(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.Named("web")
	if h.cache == nil {
		h.cache = cache.NewReadThrough(cache.Nop{}, 0, h.logger)
	}
	return h
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger, h.observer))
	r.Use(recoverer(h.logger))

	r.Get("/", h.dashboard)
	r.Get("/healthz", h.healthz)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(middleware.Timeout(defaultRequestTimeout))

		r.Get("/summary/{dimension}", h.getSummary)
		r.Get("/divisions", h.listDivisions)
		r.Get("/divisions/{division}/stakeholders", h.listStakeholders)
		r.Get("/breakdown", h.getBreakdown)
		r.Post("/dataset/reload", h.reloadDataset)
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, op string, err error) {
	code, msg := h.classify(r.Context(), op, err)
	render.Status(r, code)
	render.JSON(w, r, errorResponse{Error: msg})
}

// classify maps a service error onto an HTTP status and a client message.
func (h *Handler) classify(ctx context.Context, op string, err error) (int, string) {
	switch ctx.Err() {
	case context.Canceled:
		h.logger.Warn("request canceled", zap.String("op", op))
		return 499, "request canceled"
	case context.DeadlineExceeded:
		h.logger.Warn("request timeout", zap.String("op", op))
		return http.StatusGatewayTimeout, "request timed out"
	}

	switch {
	case errors.Is(err, service.ErrNoData):
		return http.StatusNotFound, service.ErrNoData.Error()
	case errors.Is(err, service.ErrInvalidGroupBy):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, dataset.ErrLoad):
		h.logger.Error("dataset unavailable", zap.String("op", op), zap.Error(err))
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, service.ErrStorageFailure):
		h.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		return http.StatusInternalServerError, "database error"
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return http.StatusInternalServerError, "internal error"
	}
}

func cacheKey(kind, version string, parts ...string) string {
	var b strings.Builder
	b.WriteString("http:")
	b.WriteString(kind)
	b.WriteByte(':')
	b.WriteString(version)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(url.QueryEscape(p))
	}
	return b.String()
}

func (h *Handler) summary(ctx context.Context, by service.GroupBy) (service.Summary, error) {
	v, err := h.perf.CurrentVersion(ctx)
	if err != nil {
		return service.Summary{}, err
	}
	return cache.FindAndCache(ctx, h.cache, cacheKey("summary", v.Fingerprint, string(by)),
		func(ctx context.Context) (service.Summary, error) {
			return h.perf.Summarize(ctx, by)
		})
}

func (h *Handler) breakdown(ctx context.Context, division, stakeholder string) (service.Breakdown, error) {
	v, err := h.perf.CurrentVersion(ctx)
	if err != nil {
		return service.Breakdown{}, err
	}
	return cache.FindAndCache(ctx, h.cache, cacheKey("breakdown", v.Fingerprint, division, stakeholder),
		func(ctx context.Context) (service.Breakdown, error) {
			return h.perf.Breakdown(ctx, division, stakeholder)
		})
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
