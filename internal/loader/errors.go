package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn indicates a sheet lacks one of the required columns.
	ErrMissingColumn = errors.New("missing required column")

	// ErrInvalidNumber indicates a Target or Actual cell that is not an integer.
	ErrInvalidNumber = errors.New("invalid integer value")

	// ErrOpenWorkbook indicates the input could not be read as an xlsx workbook.
	ErrOpenWorkbook = errors.New("cannot open workbook")
)

// SchemaError reports a required column absent from a sheet header.
type SchemaError struct {
	Sheet  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sheet %q: %v %q", e.Sheet, ErrMissingColumn, e.Column)
}

func (e *SchemaError) Unwrap() error {
	return ErrMissingColumn
}

// CellError reports a value that could not be cast to an integer.
type CellError struct {
	Sheet  string
	Row    int // 1-based spreadsheet row
	Column string
	Value  string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("sheet %q row %d column %q: %v: %q", e.Sheet, e.Row, e.Column, ErrInvalidNumber, e.Value)
}

func (e *CellError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidNumber}
	}
	return []error{ErrInvalidNumber, e.Err}
}
