package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/godilite/perf-dashboard/internal/repository/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS performance_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		division TEXT NOT NULL,
		name TEXT NOT NULL,
		stakeholder TEXT NOT NULL,
		target INTEGER NOT NULL,
		actual INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_performance_division_stakeholder
		ON performance_records (division, stakeholder);
`

type PerformanceRepository struct {
	db *sqlx.DB
}

// NewPerformanceRepository wraps an open pool. driverName selects the bind
// variable style for sqlx and is normally "sqlite3".
func NewPerformanceRepository(db *sql.DB, driverName string) *PerformanceRepository {
	return &PerformanceRepository{db: sqlx.NewDb(db, driverName)}
}

// Migrate creates the unified table if it does not exist.
func (r *PerformanceRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate performance_records: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole table for records in one transaction. Insertion
// order is preserved through the autoincrement id.
func (r *PerformanceRepository) ReplaceAll(ctx context.Context, records []models.PerformanceRecord) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ReplaceAll: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM performance_records`); err != nil {
		return fmt.Errorf("clear performance_records: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO performance_records (division, name, stakeholder, target, actual)
		VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare ReplaceAll insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err = stmt.ExecContext(ctx, rec.Division, rec.Name, rec.Stakeholder, rec.Target, rec.Actual); err != nil {
			return fmt.Errorf("insert record %q/%q/%q: %w", rec.Division, rec.Stakeholder, rec.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ReplaceAll: %w", err)
	}
	return nil
}

// SumByDivision sums Target and Actual per division.
func (r *PerformanceRepository) SumByDivision(ctx context.Context) ([]models.GroupTotals, error) {
	const query = `
		SELECT
			division,
			'' AS stakeholder,
			SUM(target) AS target,
			SUM(actual) AS actual,
			COUNT(id) AS record_count
		FROM performance_records
		GROUP BY division
		ORDER BY division
	`
	return r.selectTotals(ctx, "SumByDivision", query)
}

// SumByStakeholder sums Target and Actual per stakeholder.
func (r *PerformanceRepository) SumByStakeholder(ctx context.Context) ([]models.GroupTotals, error) {
	const query = `
		SELECT
			'' AS division,
			stakeholder,
			SUM(target) AS target,
			SUM(actual) AS actual,
			COUNT(id) AS record_count
		FROM performance_records
		GROUP BY stakeholder
		ORDER BY stakeholder
	`
	return r.selectTotals(ctx, "SumByStakeholder", query)
}

// SumByDivisionStakeholder sums Target and Actual per (division, stakeholder) pair.
func (r *PerformanceRepository) SumByDivisionStakeholder(ctx context.Context) ([]models.GroupTotals, error) {
	const query = `
		SELECT
			division,
			stakeholder,
			SUM(target) AS target,
			SUM(actual) AS actual,
			COUNT(id) AS record_count
		FROM performance_records
		GROUP BY division, stakeholder
		ORDER BY division, stakeholder
	`
	return r.selectTotals(ctx, "SumByDivisionStakeholder", query)
}

// FilterByDivisionStakeholder returns the rows matching both keys exactly, in source order.
func (r *PerformanceRepository) FilterByDivisionStakeholder(ctx context.Context, division, stakeholder string) ([]models.PerformanceRecord, error) {
	query := r.db.Rebind(`
		SELECT id, division, name, stakeholder, target, actual
		FROM performance_records
		WHERE division = ? AND stakeholder = ?
		ORDER BY id
	`)

	var results []models.PerformanceRecord
	if err := r.db.SelectContext(ctx, &results, query, division, stakeholder); err != nil {
		return nil, fmt.Errorf("query FilterByDivisionStakeholder: %w", err)
	}
	return results, nil
}

// DistinctDivisions lists divisions in ascending order.
func (r *PerformanceRepository) DistinctDivisions(ctx context.Context) ([]string, error) {
	var out []string
	if err := r.db.SelectContext(ctx, &out, `SELECT DISTINCT division FROM performance_records ORDER BY division`); err != nil {
		return nil, fmt.Errorf("query DistinctDivisions: %w", err)
	}
	return out, nil
}

// DistinctStakeholders lists the stakeholders present within a division in ascending order.
func (r *PerformanceRepository) DistinctStakeholders(ctx context.Context, division string) ([]string, error) {
	query := r.db.Rebind(`
		SELECT DISTINCT stakeholder
		FROM performance_records
		WHERE division = ?
		ORDER BY stakeholder
	`)

	var out []string
	if err := r.db.SelectContext(ctx, &out, query, division); err != nil {
		return nil, fmt.Errorf("query DistinctStakeholders: %w", err)
	}
	return out, nil
}

func (r *PerformanceRepository) selectTotals(ctx context.Context, op, query string) ([]models.GroupTotals, error) {
	var results []models.GroupTotals
	if err := r.db.SelectContext(ctx, &results, query); err != nil {
		return nil, fmt.Errorf("query %s: %w", op, err)
	}
	return results, nil
}
