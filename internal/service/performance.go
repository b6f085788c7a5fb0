package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/perf-dashboard/internal/dataset"
	"github.com/godilite/perf-dashboard/internal/performance"
	"github.com/godilite/perf-dashboard/internal/repository/models"
)

const (
	dbTimeout = 1 * time.Second
)

var (
	ErrNoData         = errors.New("no data for this selection")
	ErrStorageFailure = errors.New("storage failure")
	ErrInvalidGroupBy = errors.New("invalid grouping")
)

// PerformanceService aggregates the unified table and resolves drill-down selections.
type PerformanceService struct {
	storage PerformanceRepository
	dataset DatasetSource
	logger  *zap.Logger
}

// NewPerformanceService creates a new PerformanceService instance.
func NewPerformanceService(storage PerformanceRepository, ds DatasetSource, logger *zap.Logger) *PerformanceService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if ds == nil {
		panic("dataset source must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	return &PerformanceService{
		storage: storage,
		dataset: ds,
		logger:  logger,
	}
}

// CurrentVersion makes sure the table is loaded and returns its version.
func (s *PerformanceService) CurrentVersion(ctx context.Context) (dataset.Version, error) {
	return s.dataset.Ensure(ctx)
}

// Reload rebuilds the table from the workbook regardless of its state.
func (s *PerformanceService) Reload(ctx context.Context) (dataset.Version, error) {
	v, err := s.dataset.Reload(ctx)
	if err != nil {
		return v, err
	}
	s.logger.Info("dataset reloaded",
		zap.String("version", v.Fingerprint),
		zap.Int("records", v.Records))
	return v, nil
}

// Summarize groups the table by the given keys, summing Target and Actual and
// computing performance from the sums.
func (s *PerformanceService) Summarize(ctx context.Context, by GroupBy) (Summary, error) {
	v, err := s.dataset.Ensure(ctx)
	if err != nil {
		return Summary{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var rows []models.GroupTotals
	switch by {
	case GroupByDivision:
		rows, err = s.storage.SumByDivision(dbCtx)
	case GroupByStakeholder:
		rows, err = s.storage.SumByStakeholder(dbCtx)
	case GroupByDivisionStakeholder:
		rows, err = s.storage.SumByDivisionStakeholder(dbCtx)
	default:
		return Summary{}, fmt.Errorf("%w: %q", ErrInvalidGroupBy, by)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	groups := make([]Aggregate, 0, len(rows))
	for _, r := range rows {
		groups = append(groups, newAggregate(r))
	}

	s.logger.Debug("summarized performance",
		zap.String("group_by", string(by)),
		zap.Int("groups", len(groups)),
		zap.String("version", v.Fingerprint))

	return Summary{
		Version: v.Fingerprint,
		GroupBy: by,
		Groups:  groups,
	}, nil
}

// DivisionSummary aggregates by Division.
func (s *PerformanceService) DivisionSummary(ctx context.Context) (Summary, error) {
	return s.Summarize(ctx, GroupByDivision)
}

// StakeholderSummary aggregates by Stakeholder.
func (s *PerformanceService) StakeholderSummary(ctx context.Context) (Summary, error) {
	return s.Summarize(ctx, GroupByStakeholder)
}

// Divisions lists the divisions available for selection, sorted ascending.
func (s *PerformanceService) Divisions(ctx context.Context) ([]string, error) {
	if _, err := s.dataset.Ensure(ctx); err != nil {
		return nil, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	out, err := s.storage.DistinctDivisions(dbCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return out, nil
}

// Stakeholders lists the stakeholders present within division, sorted ascending.
func (s *PerformanceService) Stakeholders(ctx context.Context, division string) ([]string, error) {
	if _, err := s.dataset.Ensure(ctx); err != nil {
		return nil, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	out, err := s.storage.DistinctStakeholders(dbCtx, division)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return out, nil
}

// Breakdown filters the table on an exact (division, stakeholder) match. It
// returns ErrNoData when nothing matches.
func (s *PerformanceService) Breakdown(ctx context.Context, division, stakeholder string) (Breakdown, error) {
	v, err := s.dataset.Ensure(ctx)
	if err != nil {
		return Breakdown{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	// Summary and details come from the same rows so a reload in between
	// cannot pair them across tables.
	records, err := s.storage.FilterByDivisionStakeholder(dbCtx, division, stakeholder)
	if err != nil {
		return Breakdown{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if len(records) == 0 {
		return Breakdown{}, ErrNoData
	}

	totals := models.GroupTotals{Division: division, Stakeholder: stakeholder}
	details := make([]DetailRow, len(records))
	for i, r := range records {
		totals.Target += r.Target
		totals.Actual += r.Actual
		totals.RecordCount++

		p := performance.Of(r.Actual, r.Target)
		details[i] = DetailRow{
			Name:        r.Name,
			Target:      r.Target,
			Actual:      r.Actual,
			Performance: p,
			Color:       p.Color(),
			Label:       p.Label(),
		}
	}

	return Breakdown{
		Version:     v.Fingerprint,
		Division:    division,
		Stakeholder: stakeholder,
		Summary:     newAggregate(totals),
		Details:     details,
	}, nil
}

// DefaultSelection resolves a requested selection against the available
// values: an unknown or empty division falls back to the first division, and
// a stakeholder not present in the chosen division falls back to the first
// stakeholder of that division.
func (s *PerformanceService) DefaultSelection(ctx context.Context, division, stakeholder string) (Selection, error) {
	divisions, err := s.Divisions(ctx)
	if err != nil {
		return Selection{}, err
	}
	sel := Selection{Divisions: divisions}
	if len(divisions) == 0 {
		return sel, nil
	}

	sel.Division = pick(divisions, division)

	stakeholders, err := s.Stakeholders(ctx, sel.Division)
	if err != nil {
		return Selection{}, err
	}
	sel.Stakeholders = stakeholders
	if len(stakeholders) > 0 {
		sel.Stakeholder = pick(stakeholders, stakeholder)
	}
	return sel, nil
}

func pick(options []string, want string) string {
	for _, o := range options {
		if o == want {
			return o
		}
	}
	return options[0]
}

func newAggregate(r models.GroupTotals) Aggregate {
	p := performance.Of(r.Actual, r.Target)
	return Aggregate{
		Division:    r.Division,
		Stakeholder: r.Stakeholder,
		Target:      r.Target,
		Actual:      r.Actual,
		Records:     r.RecordCount,
		Performance: p,
		Color:       p.Color(),
		Label:       p.Label(),
	}
}
