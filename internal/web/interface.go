package web

import (
	"context"
	"time"

	"github.com/godilite/perf-dashboard/internal/dataset"
	"github.com/godilite/perf-dashboard/internal/service"
)

type PerformanceService interface {
	CurrentVersion(ctx context.Context) (dataset.Version, error)
	Reload(ctx context.Context) (dataset.Version, error)
	Summarize(ctx context.Context, by service.GroupBy) (service.Summary, error)
	Divisions(ctx context.Context) ([]string, error)
	Stakeholders(ctx context.Context, division string) ([]string, error)
	Breakdown(ctx context.Context, division, stakeholder string) (service.Breakdown, error)
	DefaultSelection(ctx context.Context, division, stakeholder string) (service.Selection, error)
}

// RequestObserver records finished HTTP requests.
type RequestObserver interface {
	ObserveHTTP(method, route string, code int, elapsed time.Duration)
}
