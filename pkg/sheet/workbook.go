package sheet

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Workbook is a Table backed by a local .xlsx file
type Workbook struct {
	file *excelize.File
	path string
}

// OpenWorkbook opens an existing workbook
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	return &Workbook{file: f, path: path}, nil
}

// Close releases the workbook
func (w *Workbook) Close() error {
	return w.file.Close()
}

// ReadValues implements Table
func (w *Workbook) ReadValues(_ context.Context, rng string) ([][]string, error) {
	r, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}
	rows, err := w.file.GetRows(r.Sheet)
	if err != nil {
		return nil, fmt.Errorf("reading rows of %s: %w", r.Sheet, err)
	}
	return window(rows, r)
}

// WriteValues implements Table. The workbook is saved after every write.
func (w *Workbook) WriteValues(_ context.Context, rng string, values [][]string) error {
	r, err := ParseRange(rng)
	if err != nil {
		return err
	}
	startCol, startRow := r.StartCol, r.StartRow
	if startCol == 0 {
		startCol = 1
	}
	if startRow == 0 {
		startRow = 1
	}
	for i, row := range values {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(startCol+j, startRow+i)
			if err != nil {
				return err
			}
			if err := w.file.SetCellValue(r.Sheet, cell, v); err != nil {
				return fmt.Errorf("writing %s!%s: %w", r.Sheet, cell, err)
			}
		}
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.path, err)
	}
	return nil
}

// window cuts a range out of a sheet grid, dropping trailing empty rows
func window(rows [][]string, r Range) ([][]string, error) {
	first, last := bounds(r.StartRow, r.EndRow, len(rows))
	var out [][]string
	for i := first; i < last; i++ {
		out = append(out, sliceColumns(rows[i], r.StartCol, r.EndCol))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return out, nil
}

// bounds turns 1-based inclusive limits into a slice window over n items
func bounds(start, end, n int) (int, int) {
	first := 0
	if start > 0 {
		first = start - 1
	}
	last := n
	if end > 0 && end < n {
		last = end
	}
	if first > last {
		first = last
	}
	return first, last
}

func sliceColumns(row []string, startCol, endCol int) []string {
	first, last := bounds(startCol, endCol, len(row))
	out := make([]string, last-first)
	copy(out, row[first:last])
	return out
}
