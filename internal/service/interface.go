package service

import (
	"context"

	"github.com/godilite/perf-dashboard/internal/dataset"
	"github.com/godilite/perf-dashboard/internal/repository/models"
)

// PerformanceRepository defines the storage queries the service aggregates over.
type PerformanceRepository interface {
	SumByDivision(ctx context.Context) ([]models.GroupTotals, error)
	SumByStakeholder(ctx context.Context) ([]models.GroupTotals, error)
	SumByDivisionStakeholder(ctx context.Context) ([]models.GroupTotals, error)
	FilterByDivisionStakeholder(ctx context.Context, division, stakeholder string) ([]models.PerformanceRecord, error)
	DistinctDivisions(ctx context.Context) ([]string, error)
	DistinctStakeholders(ctx context.Context, division string) ([]string, error)
}

// DatasetSource keeps the stored table in sync with the input workbook.
type DatasetSource interface {
	Ensure(ctx context.Context) (dataset.Version, error)
	Reload(ctx context.Context) (dataset.Version, error)
}
