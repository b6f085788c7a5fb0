package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/godilite/perf-dashboard/internal/performance"
	"github.com/godilite/perf-dashboard/internal/repository/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Row is one record of the unified table with its row-level performance.
type Row struct {
	models.PerformanceRecord
	Performance performance.Value
}

// Table is the unified, read-only result of loading a workbook.
type Table struct {
	Source string
	Sheets []string
	Rows   []Row
}

// Records returns the rows without their derived performance.
func (t *Table) Records() []models.PerformanceRecord {
	out := make([]models.PerformanceRecord, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.PerformanceRecord
	}
	return out
}

// Loader flattens every sheet of a workbook into one table, tagging each row
// with its sheet name as Stakeholder.
type Loader struct {
	logger *zap.Logger
}

// New creates a Loader.
func New(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger.Named("loader")}
}

// Load reads the workbook at path.
func (l *Loader) Load(ctx context.Context, path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrOpenWorkbook, path, err)
	}
	defer file.Close()

	return l.LoadReader(ctx, file, path)
}

// LoadReader reads a workbook from r. name is recorded as the table's source.
func (l *Loader) LoadReader(ctx context.Context, r io.Reader, name string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrOpenWorkbook, name, err)
	}
	defer f.Close()

	return l.read(ctx, f, name)
}

func (l *Loader) read(ctx context.Context, f *excelize.File, source string) (*Table, error) {
	start := time.Now()

	sheets := f.GetSheetList()
	table := &Table{
		Source: source,
		Sheets: sheets,
	}

	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		sheetRows, err := readSheet(sheet, rows)
		if err != nil {
			return nil, err
		}
		table.Rows = append(table.Rows, sheetRows...)

		l.logger.Debug("sheet read",
			zap.String("sheet", sheet),
			zap.Int("rows", len(sheetRows)))
	}

	l.logger.Info("workbook loaded",
		zap.String("source", source),
		zap.Int("sheets", len(sheets)),
		zap.Int("rows", len(table.Rows)),
		zap.Duration("elapsed", time.Since(start)))

	return table, nil
}

// readSheet converts the raw rows of one sheet. The first row is the header.
func readSheet(sheet string, rows [][]string) ([]Row, error) {
	if len(rows) == 0 {
		return nil, &SchemaError{Sheet: sheet, Column: requiredColumns[0]}
	}

	idx, err := normalizeHeader(sheet, rows[0])
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(rows)-1)
	for i, raw := range rows[1:] {
		if isBlankRow(raw) {
			continue
		}
		rowNum := i + 2

		target, err := castColumn(sheet, rowNum, idx, raw, ColumnTarget)
		if err != nil {
			return nil, err
		}
		actual, err := castColumn(sheet, rowNum, idx, raw, ColumnActual)
		if err != nil {
			return nil, err
		}

		out = append(out, Row{
			PerformanceRecord: models.PerformanceRecord{
				Division:    idx.cell(raw, ColumnDivision),
				Name:        idx.cell(raw, ColumnName),
				Stakeholder: sheet,
				Target:      target,
				Actual:      actual,
			},
			Performance: performance.Of(actual, target),
		})
	}
	return out, nil
}

func castColumn(sheet string, rowNum int, idx columnIndex, raw []string, column string) (int64, error) {
	v := idx.cell(raw, column)
	n, err := parseInteger(v)
	if err != nil {
		return 0, &CellError{Sheet: sheet, Row: rowNum, Column: column, Value: v, Err: err}
	}
	return n, nil
}
