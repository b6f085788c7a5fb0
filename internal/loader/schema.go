package loader

import (
	"math"
	"strconv"
	"strings"
)

// Canonical column names of an input sheet.
const (
	ColumnDivision = "Division"
	ColumnName     = "Name"
	ColumnTarget   = "Target"
	ColumnActual   = "Actual"
)

var requiredColumns = []string{ColumnDivision, ColumnName, ColumnTarget, ColumnActual}

// columnAliases maps known misspellings found in source workbooks to their
// canonical column.
var columnAliases = map[string]string{
	"Traget": ColumnTarget,
}

// columnIndex maps a canonical column name to its position in a sheet row.
type columnIndex map[string]int

// normalizeHeader resolves the header row of a sheet against the canonical
// schema. A canonical header always wins over an alias of the same column.
func normalizeHeader(sheet string, header []string) (columnIndex, error) {
	idx := make(columnIndex, len(requiredColumns))

	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if _, seen := idx[name]; seen {
			continue
		}
		if isRequired(name) {
			idx[name] = i
		}
	}

	for i, raw := range header {
		canonical, ok := columnAliases[strings.TrimSpace(raw)]
		if !ok {
			continue
		}
		if _, seen := idx[canonical]; !seen {
			idx[canonical] = i
		}
	}

	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, &SchemaError{Sheet: sheet, Column: col}
		}
	}
	return idx, nil
}

func isRequired(name string) bool {
	for _, col := range requiredColumns {
		if col == name {
			return true
		}
	}
	return false
}

// cell returns the trimmed value of a canonical column, or "" when the row is
// shorter than the header.
func (c columnIndex) cell(row []string, column string) string {
	i := c[column]
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseInteger casts a raw cell value to an integer. Fractional numbers are
// truncated toward zero.
func parseInteger(raw string) (int64, error) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, strconv.ErrRange
	}
	return int64(math.Trunc(f)), nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
