package grpc

import (
	"context"

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
}
