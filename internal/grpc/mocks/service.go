package mocks

import (
	"context"
	"errors"

	"github.com/godilite/perf-dashboard/internal/dataset"
	"github.com/godilite/perf-dashboard/internal/service"
)

// MockPerformanceService is a mock implementation of the PerformanceService interface
// for testing the handler layer. It uses function-based mocking for flexibility.
type MockPerformanceService struct {
	CurrentVersionFunc func(ctx context.Context) (dataset.Version, error)
	ReloadFunc         func(ctx context.Context) (dataset.Version, error)
	SummarizeFunc      func(ctx context.Context, by service.GroupBy) (service.Summary, error)
	DivisionsFunc      func(ctx context.Context) ([]string, error)
	StakeholdersFunc   func(ctx context.Context, division string) ([]string, error)
	BreakdownFunc      func(ctx context.Context, division, stakeholder string) (service.Breakdown, error)
}

// CurrentVersion defaults to version "v1".
func (m *MockPerformanceService) CurrentVersion(ctx context.Context) (dataset.Version, error) {
	if m.CurrentVersionFunc != nil {
		return m.CurrentVersionFunc(ctx)
	}
	return dataset.Version{Fingerprint: "v1"}, nil
}

func (m *MockPerformanceService) Reload(ctx context.Context) (dataset.Version, error) {
	if m.ReloadFunc != nil {
		return m.ReloadFunc(ctx)
	}
	return dataset.Version{}, errors.New("ReloadFunc not implemented")
}

func (m *MockPerformanceService) Summarize(ctx context.Context, by service.GroupBy) (service.Summary, error) {
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, by)
	}
	return service.Summary{}, errors.New("SummarizeFunc not implemented")
}

func (m *MockPerformanceService) Divisions(ctx context.Context) ([]string, error) {
	if m.DivisionsFunc != nil {
		return m.DivisionsFunc(ctx)
	}
	return nil, errors.New("DivisionsFunc not implemented")
}

func (m *MockPerformanceService) Stakeholders(ctx context.Context, division string) ([]string, error) {
	if m.StakeholdersFunc != nil {
		return m.StakeholdersFunc(ctx, division)
	}
	return nil, errors.New("StakeholdersFunc not implemented")
}

func (m *MockPerformanceService) Breakdown(ctx context.Context, division, stakeholder string) (service.Breakdown, error) {
	if m.BreakdownFunc != nil {
		return m.BreakdownFunc(ctx, division, stakeholder)
	}
	return service.Breakdown{}, errors.New("BreakdownFunc not implemented")
}
