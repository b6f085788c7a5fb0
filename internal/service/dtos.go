package service

import (
	"fmt"

	"github.com/godilite/perf-dashboard/internal/performance"
)

// GroupBy selects the grouping keys of an aggregate.
type GroupBy string

const (
	GroupByDivision            GroupBy = "division"
	GroupByStakeholder         GroupBy = "stakeholder"
	GroupByDivisionStakeholder GroupBy = "pair"
)

// ParseGroupBy validates a grouping name.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(s); g {
	case GroupByDivision, GroupByStakeholder, GroupByDivisionStakeholder:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGroupBy, s)
	}
}

// Aggregate is one group of summed records. Performance is recomputed from
// the sums, never averaged.
type Aggregate struct {
	Division    string            `json:"division,omitempty"`
	Stakeholder string            `json:"stakeholder,omitempty"`
	Target      int64             `json:"target"`
	Actual      int64             `json:"actual"`
	Records     int64             `json:"records"`
	Performance performance.Value `json:"performance"`
	Color       performance.Color `json:"color"`
	Label       string            `json:"label"`
}

// Key returns the display name of the group for the given grouping.
func (a Aggregate) Key(by GroupBy) string {
	switch by {
	case GroupByDivision:
		return a.Division
	case GroupByStakeholder:
		return a.Stakeholder
	default:
		return a.Division + " / " + a.Stakeholder
	}
}

type Summary struct {
	Version string      `json:"version"`
	GroupBy GroupBy     `json:"group_by"`
	Groups  []Aggregate `json:"groups"`
}

// DetailRow is an unaggregated record of a breakdown.
type DetailRow struct {
	Name        string            `json:"name"`
	Target      int64             `json:"target"`
	Actual      int64             `json:"actual"`
	Performance performance.Value `json:"performance"`
	Color       performance.Color `json:"color"`
	Label       string            `json:"label"`
}

// Breakdown is the drill-down view of one (Division, Stakeholder) selection.
type Breakdown struct {
	Version     string      `json:"version"`
	Division    string      `json:"division"`
	Stakeholder string      `json:"stakeholder"`
	Summary     Aggregate   `json:"summary"`
	Details     []DetailRow `json:"details"`
}

// Selection is a resolved pair of drop-down values together with the options
// each drop-down offers.
type Selection struct {
	Division     string   `json:"division"`
	Stakeholder  string   `json:"stakeholder"`
	Divisions    []string `json:"divisions"`
	Stakeholders []string `json:"stakeholders"`
}

// Empty reports whether there is nothing to select from.
func (s Selection) Empty() bool {
	return len(s.Divisions) == 0 || len(s.Stakeholders) == 0
}
