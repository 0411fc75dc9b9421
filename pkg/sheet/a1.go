package sheet

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// Range is a parsed A1 range. Zero bounds are open.
type Range struct {
	Sheet    string
	StartCol int // 1-based
	StartRow int // 1-based
	EndCol   int
	EndRow   int
}

// ColumnName converts a zero-based column index to its A1 letters
func ColumnName(index int) (string, error) {
	return excelize.ColumnNumberToName(index + 1)
}

// CellRef builds Sheet!<col><row> for a zero-based column index
func CellRef(sheet string, index, row int) (string, error) {
	col, err := ColumnName(index)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s!%s%d", quoteSheet(sheet), col, row), nil
}

func quoteSheet(sheet string) string {
	if strings.ContainsAny(sheet, " '!") {
		return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet
}

// ParseRange parses Sheet!A:AG, Sheet!A1:AG10 and Sheet!F7 style ranges
func ParseRange(rng string) (Range, error) {
	var r Range
	i := strings.LastIndex(rng, "!")
	if i < 0 {
		return r, fmt.Errorf("range %q has no sheet name", rng)
	}
	r.Sheet = rng[:i]
	if len(r.Sheet) >= 2 && strings.HasPrefix(r.Sheet, "'") && strings.HasSuffix(r.Sheet, "'") {
		r.Sheet = strings.ReplaceAll(r.Sheet[1:len(r.Sheet)-1], "''", "'")
	}
	if r.Sheet == "" {
		return r, fmt.Errorf("range %q has no sheet name", rng)
	}

	cells := strings.Split(rng[i+1:], ":")
	if len(cells) > 2 || cells[0] == "" {
		return r, fmt.Errorf("invalid range %q", rng)
	}
	var err error
	if r.StartCol, r.StartRow, err = parseCell(cells[0]); err != nil {
		return r, fmt.Errorf("invalid range %q: %w", rng, err)
	}
	if len(cells) == 1 {
		r.EndCol, r.EndRow = r.StartCol, r.StartRow
		return r, nil
	}
	if r.EndCol, r.EndRow, err = parseCell(cells[1]); err != nil {
		return r, fmt.Errorf("invalid range %q: %w", rng, err)
	}
	return r, nil
}

// parseCell splits "AG12", "AG" or "12" into column and row numbers
func parseCell(cell string) (col, row int, err error) {
	split := strings.IndexFunc(cell, unicode.IsDigit)
	letters, digits := cell, ""
	if split >= 0 {
		letters, digits = cell[:split], cell[split:]
	}
	if letters != "" {
		if col, err = excelize.ColumnNameToNumber(letters); err != nil {
			return 0, 0, err
		}
	}
	if digits != "" {
		if row, err = strconv.Atoi(digits); err != nil || row < 1 {
			return 0, 0, fmt.Errorf("invalid row %q", digits)
		}
	}
	return col, row, nil
}
