package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/godilite/perf-dashboard/internal/dataset"
	"github.com/godilite/perf-dashboard/internal/performance"
	"github.com/godilite/perf-dashboard/internal/repository/models"
	"github.com/godilite/perf-dashboard/internal/service/mocks"
)

// TestNewPerformanceService tests the constructor
func TestNewPerformanceService(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		mockRepo := &mocks.MockPerformanceRepository{}
		mockDS := &mocks.MockDatasetSource{}
		logger := zap.NewNop()

		svc := NewPerformanceService(mockRepo, mockDS, logger)

		assert.NotNil(t, svc)
		assert.Equal(t, mockRepo, svc.storage)
		assert.Equal(t, logger, svc.logger)
	})

	t.Run("nil storage panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewPerformanceService(nil, &mocks.MockDatasetSource{}, zap.NewNop())
		})
	})

	t.Run("nil dataset panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewPerformanceService(&mocks.MockPerformanceRepository{}, nil, zap.NewNop())
		})
	})

	t.Run("nil logger gets default", func(t *testing.T) {
		svc := NewPerformanceService(&mocks.MockPerformanceRepository{}, &mocks.MockDatasetSource{}, nil)
		assert.NotNil(t, svc.logger)
	})
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()

	t.Run("performance is computed from sums", func(t *testing.T) {
		mockRepo := &mocks.MockPerformanceRepository{
			SumByDivisionFunc: func(ctx context.Context) ([]models.GroupTotals, error) {
				return []models.GroupTotals{
					{Division: "Ops", Target: 30, Actual: 22, RecordCount: 2},
					{Division: "Sales", Target: 10, Actual: 10, RecordCount: 1},
					{Division: "Support", Target: 100, Actual: 50, RecordCount: 4},
				}, nil
			},
		}

		svc := NewPerformanceService(mockRepo, &mocks.MockDatasetSource{}, zap.NewNop())
		summary, err := svc.DivisionSummary(ctx)

		require.NoError(t, err)
		assert.Equal(t, "v1", summary.Version)
		assert.Equal(t, GroupByDivision, summary.GroupBy)
		require.Len(t, summary.Groups, 3)

		ops := summary.Groups[0]
		assert.Equal(t, "Ops", ops.Division)
		assert.Equal(t, int64(30), ops.Target)
		assert.Equal(t, int64(22), ops.Actual)
		assert.InDelta(t, 73.333, ops.Performance.Percent, 0.001)
		assert.Equal(t, performance.ColorOrange, ops.Color)
		assert.Equal(t, "73.3%", ops.Label)

		assert.Equal(t, performance.ColorGreen, summary.Groups[1].Color)
		assert.Equal(t, "100.0%", summary.Groups[1].Label)
		assert.Equal(t, performance.ColorRed, summary.Groups[2].Color)
	})

	t.Run("zero target group is undefined", func(t *testing.T) {
		mockRepo := &mocks.MockPerformanceRepository{
			SumByStakeholderFunc: func(ctx context.Context) ([]models.GroupTotals, error) {
				return []models.GroupTotals{{Stakeholder: "A", Target: 0, Actual: 5, RecordCount: 1}}, nil
			},
		}

		svc := NewPerformanceService(mockRepo, &mocks.MockDatasetSource{}, zap.NewNop())
		summary, err := svc.StakeholderSummary(ctx)

		require.NoError(t, err)
		require.Len(t, summary.Groups, 1)
		assert.False(t, summary.Groups[0].Performance.Defined)
		assert.Equal(t, performance.ColorGrey, summary.Groups[0].Color)
		assert.Equal(t, "n/a", summary.Groups[0].Label)
	})

	t.Run("pair grouping", func(t *testing.T) {
		mockRepo := &mocks.MockPerformanceRepository{
			SumByDivisionStakeholderFunc: func(ctx context.Context) ([]models.GroupTotals, error) {
				return []models.GroupTotals{{Division: "Ops", Stakeholder: "A", Target: 4, Actual: 3, RecordCount: 1}}, nil
			},
		}

		svc := NewPerformanceService(mockRepo, &mocks.MockDatasetSource{}, zap.NewNop())
		summary, err := svc.Summarize(ctx, GroupByDivisionStakeholder)

		require.NoError(t, err)
		assert.Equal(t, "Ops / A", summary.Groups[0].Key(GroupByDivisionStakeholder))
		assert.Equal(t, "75.0%", summary.Groups[0].Label)
	})

	t.Run("invalid grouping", func(t *testing.T) {
		svc := NewPerformanceService(&mocks.MockPerformanceRepository{}, &mocks.MockDatasetSource{}, zap.NewNop())
		_, err := svc.Summarize(ctx, GroupBy("name"))
		assert.ErrorIs(t, err, ErrInvalidGroupBy)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := &mocks.MockPerformanceRepository{
			SumByDivisionFunc: func(ctx context.Context) ([]models.GroupTotals, error) {
				return nil, errors.New("database connection failed")
			},
		}

		svc := NewPerformanceService(mockRepo, &mocks.MockDatasetSource{}, zap.NewNop())
		_, err := svc.DivisionSummary(ctx)

		assert.ErrorIs(t, err, ErrStorageFailure)
		assert.Contains(t, err.Error(), "database connection failed")
	})

	t.Run("load failure propagates", func(t *testing.T) {
		mockDS := &mocks.MockDatasetSource{
			EnsureFunc: func(ctx context.Context) (dataset.Version, error) {
				return dataset.Version{}, dataset.ErrLoad
			},
		}

		svc := NewPerformanceService(&mocks.MockPerformanceRepository{}, mockDS, zap.NewNop())
		_, err := svc.DivisionSummary(ctx)

		assert.ErrorIs(t, err, dataset.ErrLoad)
	})
}

func TestBreakdown(t *testing.T) {
	ctx := context.Background()

	t.Run("summary and details", func(t *testing.T) {
		mockRepo := &mocks.MockPerformanceRepository{
			FilterByDivisionStakeholderFunc: func(ctx context.Context, d, s string) ([]models.PerformanceRecord, error) {
				assert.Equal(t, "Ops", d)
				assert.Equal(t, "StakeholderA", s)
				return []models.PerformanceRecord{
					{Division: d, Stakeholder: s, Name: "X", Target: 10, Actual: 12},
					{Division: d, Stakeholder: s, Name: "W", Target: 5, Actual: 5},
				}, nil
			},
		}

		svc := NewPerformanceService(mockRepo, &mocks.MockDatasetSource{}, zap.NewNop())
		b, err := svc.Breakdown(ctx, "Ops", "StakeholderA")

		require.NoError(t, err)
		assert.Equal(t, "v1", b.Version)
		assert.Equal(t, int64(15), b.Summary.Target)
		assert.Equal(t, int64(17), b.Summary.Actual)
		assert.Equal(t, "113.3%", b.Summary.Label)
		assert.Equal(t, performance.ColorGreen, b.Summary.Color)
		require.Len(t, b.Details, 2)
		assert.Equal(t, "X", b.Details[0].Name)
		assert.Equal(t, "120.0%", b.Details[0].Label)
		assert.Equal(t, "100.0%", b.Details[1].Label)
	})

	t.Run("summary is read from the detail rows only", func(t *testing.T) {
		var calls int
		mockRepo := &mocks.MockPerformanceRepository{
			FilterByDivisionStakeholderFunc: func(ctx context.Context, d, s string) ([]models.PerformanceRecord, error) {
				calls++
				return []models.PerformanceRecord{
					{Division: d, Stakeholder: s, Name: "P", Target: 16, Actual: 1},
					{Division: d, Stakeholder: s, Name: "Q", Target: 0, Actual: 4},
				}, nil
			},
		}

		svc := NewPerformanceService(mockRepo, &mocks.MockDatasetSource{}, zap.NewNop())
		b, err := svc.Breakdown(ctx, "Ops", "StakeholderB")

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, "Ops", b.Summary.Division)
		assert.Equal(t, "StakeholderB", b.Summary.Stakeholder)
		assert.Equal(t, int64(16), b.Summary.Target)
		assert.Equal(t, int64(5), b.Summary.Actual)
		assert.Equal(t, int64(2), b.Summary.Records)

		var target, actual int64
		for _, d := range b.Details {
			target += d.Target
			actual += d.Actual
		}
		assert.Equal(t, b.Summary.Target, target)
		assert.Equal(t, b.Summary.Actual, actual)
	})

	t.Run("empty selection signals no data", func(t *testing.T) {
		mockRepo := &mocks.MockPerformanceRepository{
			FilterByDivisionStakeholderFunc: func(ctx context.Context, d, s string) ([]models.PerformanceRecord, error) {
				return nil, nil
			},
		}

		svc := NewPerformanceService(mockRepo, &mocks.MockDatasetSource{}, zap.NewNop())
		_, err := svc.Breakdown(ctx, "Sales", "StakeholderB")

		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := &mocks.MockPerformanceRepository{
			FilterByDivisionStakeholderFunc: func(ctx context.Context, d, s string) ([]models.PerformanceRecord, error) {
				return nil, errors.New("locked")
			},
		}

		svc := NewPerformanceService(mockRepo, &mocks.MockDatasetSource{}, zap.NewNop())
		_, err := svc.Breakdown(ctx, "Ops", "A")

		assert.ErrorIs(t, err, ErrStorageFailure)
	})
}

func TestDefaultSelection(t *testing.T) {
	ctx := context.Background()
	mockRepo := &mocks.MockPerformanceRepository{
		DistinctDivisionsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"Finance", "Ops"}, nil
		},
		DistinctStakeholdersFunc: func(ctx context.Context, division string) ([]string, error) {
			if division == "Ops" {
				return []string{"StakeholderA", "StakeholderB"}, nil
			}
			return []string{"StakeholderB"}, nil
		},
	}
	svc := NewPerformanceService(mockRepo, &mocks.MockDatasetSource{}, zap.NewNop())

	cases := []struct {
		name                 string
		division             string
		stakeholder          string
		expectedDivision     string
		expectedStakeholder  string
		expectedStakeholders []string
	}{
		{
			name:                 "empty request picks first values",
			expectedDivision:     "Finance",
			expectedStakeholder:  "StakeholderB",
			expectedStakeholders: []string{"StakeholderB"},
		},
		{
			name:                 "valid request is kept",
			division:             "Ops",
			stakeholder:          "StakeholderB",
			expectedDivision:     "Ops",
			expectedStakeholder:  "StakeholderB",
			expectedStakeholders: []string{"StakeholderA", "StakeholderB"},
		},
		{
			name:                 "stakeholder outside division falls back",
			division:             "Finance",
			stakeholder:          "StakeholderA",
			expectedDivision:     "Finance",
			expectedStakeholder:  "StakeholderB",
			expectedStakeholders: []string{"StakeholderB"},
		},
		{
			name:                 "unknown division falls back",
			division:             "Legal",
			stakeholder:          "StakeholderA",
			expectedDivision:     "Finance",
			expectedStakeholder:  "StakeholderB",
			expectedStakeholders: []string{"StakeholderB"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sel, err := svc.DefaultSelection(ctx, tc.division, tc.stakeholder)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedDivision, sel.Division)
			assert.Equal(t, tc.expectedStakeholder, sel.Stakeholder)
			assert.Equal(t, tc.expectedStakeholders, sel.Stakeholders)
			assert.Equal(t, []string{"Finance", "Ops"}, sel.Divisions)
			assert.False(t, sel.Empty())
		})
	}

	t.Run("no data", func(t *testing.T) {
		empty := NewPerformanceService(&mocks.MockPerformanceRepository{
			DistinctDivisionsFunc: func(ctx context.Context) ([]string, error) { return nil, nil },
		}, &mocks.MockDatasetSource{}, zap.NewNop())

		sel, err := empty.DefaultSelection(ctx, "", "")
		require.NoError(t, err)
		assert.True(t, sel.Empty())
	})
}

func TestParseGroupBy(t *testing.T) {
	for _, name := range []string{"division", "stakeholder", "pair"} {
		g, err := ParseGroupBy(name)
		require.NoError(t, err)
		assert.Equal(t, GroupBy(name), g)
	}

	_, err := ParseGroupBy("Division")
	assert.ErrorIs(t, err, ErrInvalidGroupBy)
}

func TestReload(t *testing.T) {
	svc := NewPerformanceService(&mocks.MockPerformanceRepository{}, &mocks.MockDatasetSource{}, zap.NewNop())

	v, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", v.Fingerprint)
}
