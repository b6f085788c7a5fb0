package models

// PerformanceRecord is one row of the unified table: a (Division, Name, Stakeholder)
// triple with its planned and achieved quantities.
type PerformanceRecord struct {
	ID          int64  `db:"id"`
	Division    string `db:"division"`
	Name        string `db:"name"`
	Stakeholder string `db:"stakeholder"`
	Target      int64  `db:"target"`
	Actual      int64  `db:"actual"`
}

// GroupTotals holds summed Target and Actual for one group. Division or
// Stakeholder is empty when the grouping does not include that key.
type GroupTotals struct {
	Division    string `db:"division"`
	Stakeholder string `db:"stakeholder"`
	Target      int64  `db:"target"`
	Actual      int64  `db:"actual"`
	RecordCount int64  `db:"record_count"`
}
