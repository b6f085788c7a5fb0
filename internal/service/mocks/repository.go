package mocks

import (
	"context"
	"errors"

	"github.com/godilite/perf-dashboard/internal/dataset"
	"github.com/godilite/perf-dashboard/internal/repository/models"
)

// MockPerformanceRepository is a mock implementation of the PerformanceRepository interface
// for testing the service layer.
type MockPerformanceRepository struct {
	SumByDivisionFunc               func(ctx context.Context) ([]models.GroupTotals, error)
	SumByStakeholderFunc            func(ctx context.Context) ([]models.GroupTotals, error)
	SumByDivisionStakeholderFunc    func(ctx context.Context) ([]models.GroupTotals, error)
	FilterByDivisionStakeholderFunc func(ctx context.Context, division, stakeholder string) ([]models.PerformanceRecord, error)
	DistinctDivisionsFunc           func(ctx context.Context) ([]string, error)
	DistinctStakeholdersFunc        func(ctx context.Context, division string) ([]string, error)
}

func (m *MockPerformanceRepository) SumByDivision(ctx context.Context) ([]models.GroupTotals, error) {
	if m.SumByDivisionFunc != nil {
		return m.SumByDivisionFunc(ctx)
	}
	return nil, errors.New("SumByDivisionFunc not implemented")
}

func (m *MockPerformanceRepository) SumByStakeholder(ctx context.Context) ([]models.GroupTotals, error) {
	if m.SumByStakeholderFunc != nil {
		return m.SumByStakeholderFunc(ctx)
	}
	return nil, errors.New("SumByStakeholderFunc not implemented")
}

func (m *MockPerformanceRepository) SumByDivisionStakeholder(ctx context.Context) ([]models.GroupTotals, error) {
	if m.SumByDivisionStakeholderFunc != nil {
		return m.SumByDivisionStakeholderFunc(ctx)
	}
	return nil, errors.New("SumByDivisionStakeholderFunc not implemented")
}

func (m *MockPerformanceRepository) FilterByDivisionStakeholder(ctx context.Context, division, stakeholder string) ([]models.PerformanceRecord, error) {
	if m.FilterByDivisionStakeholderFunc != nil {
		return m.FilterByDivisionStakeholderFunc(ctx, division, stakeholder)
	}
	return nil, errors.New("FilterByDivisionStakeholderFunc not implemented")
}

func (m *MockPerformanceRepository) DistinctDivisions(ctx context.Context) ([]string, error) {
	if m.DistinctDivisionsFunc != nil {
		return m.DistinctDivisionsFunc(ctx)
	}
	return nil, errors.New("DistinctDivisionsFunc not implemented")
}

func (m *MockPerformanceRepository) DistinctStakeholders(ctx context.Context, division string) ([]string, error) {
	if m.DistinctStakeholdersFunc != nil {
		return m.DistinctStakeholdersFunc(ctx, division)
	}
	return nil, errors.New("DistinctStakeholdersFunc not implemented")
}

// MockDatasetSource returns a fixed version unless EnsureFunc is set.
type MockDatasetSource struct {
	EnsureFunc func(ctx context.Context) (dataset.Version, error)
	ReloadFunc func(ctx context.Context) (dataset.Version, error)
}

func (m *MockDatasetSource) Ensure(ctx context.Context) (dataset.Version, error) {
	if m.EnsureFunc != nil {
		return m.EnsureFunc(ctx)
	}
	return dataset.Version{Fingerprint: "v1"}, nil
}

func (m *MockDatasetSource) Reload(ctx context.Context) (dataset.Version, error) {
	if m.ReloadFunc != nil {
		return m.ReloadFunc(ctx)
	}
	return dataset.Version{Fingerprint: "v2"}, nil
}
