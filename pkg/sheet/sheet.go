// Package sheet reads source tables into datasets and writes fixes back.
package sheet

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

// ErrNoData is returned when a range holds no rows at all
var ErrNoData = errors.New("sheet data not found")

// MaxRows is the row count past which a source should be split
const MaxRows = 150000

// Table reads and writes rectangular ranges of cells in A1 notation
type Table interface {
	ReadValues(ctx context.Context, rng string) ([][]string, error)
	WriteValues(ctx context.Context, rng string, values [][]string) error
}

// Source is one input table contributing records
type Source struct {
	Name   string // Reporting name, used for error report file names
	Sheet  string // Tab inside the table
	BaseID string // Prefix of every record ID
	Table  Table
}

// Range qualifies a cell range with the source tab
func (s Source) Range(cells string) string {
	return quoteSheet(s.Sheet) + "!" + cells
}

// ReadDataset reads the source, normalizes its header and builds one record
// per data row. Short rows are padded with empty values.
func ReadDataset(ctx context.Context, src Source, cells string, logger *zap.Logger) (*model.Dataset, *model.Schema, error) {
	values, err := src.Table.ReadValues(ctx, src.Range(cells))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", src.Name, err)
	}
	if len(values) == 0 {
		return nil, nil, fmt.Errorf("failed to read %s: %w", src.Name, ErrNoData)
	}

	schema, err := NormalizeHeader(src.Name, values[0])
	if err != nil {
		return nil, nil, err
	}

	rows := values[1:]
	if len(rows) > MaxRows {
		logger.Warn("Source is approaching the sheet size limit, it should be split",
			zap.String("source", src.Name),
			zap.Int("rows", len(rows)),
			zap.Int("limit", MaxRows))
	}

	ds := &model.Dataset{
		Source:  src.Name,
		Columns: schema.Columns,
		Records: make([]*model.Record, 0, len(rows)),
	}
	for i, row := range rows {
		r := model.NewRecord(i + 2)
		for j, col := range schema.Columns {
			if col == model.FieldID {
				continue
			}
			value := ""
			if j < len(row) {
				value = row[j]
			}
			r.Set(col, value)
		}
		ds.Records = append(ds.Records, r)
	}

	logger.Info("Read source",
		zap.String("source", src.Name),
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(schema.Columns)))
	return ds, schema, nil
}
