package sheet

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

// ContinuityError reports a sheet row whose ID no longer matches the record
type ContinuityError struct {
	Row      int
	Expected string
	Found    string
}

func (e *ContinuityError) Error() string {
	return fmt.Sprintf("row %d holds ID %q, expected %q", e.Row, e.Found, e.Expected)
}

// WriteBackResult counts the outcome of pushing fixes to a source
type WriteBackResult struct {
	Written int
	Skipped []error
}

// WriteFixes pushes corrected values back to the source table. Before each
// write the ID cell of the target row is re-read and must match the fixed
// record; mismatching rows are skipped. Sources without an ID column are not
// written to.
func WriteFixes(ctx context.Context, src Source, schema *model.Schema, fixes []model.Fix, logger *zap.Logger) (*WriteBackResult, error) {
	result := &WriteBackResult{}
	if len(fixes) == 0 {
		return result, nil
	}
	idIndex := schema.Index(model.FieldID)
	if idIndex < 0 {
		logger.Warn("Source has no ID column, fixes are not written back",
			zap.String("source", src.Name),
			zap.Int("fixes", len(fixes)))
		return result, nil
	}

	for _, fix := range fixes {
		v := fix.Violation
		colIndex := schema.Index(v.Field)
		if colIndex < 0 {
			continue
		}

		if err := checkContinuity(ctx, src, idIndex, v.Row, v.ID); err != nil {
			var ce *ContinuityError
			if !errors.As(err, &ce) {
				return result, err
			}
			logger.Warn("Skipping fix write-back",
				zap.String("source", src.Name),
				zap.String("column", v.Field),
				zap.Error(err))
			result.Skipped = append(result.Skipped, err)
			continue
		}

		ref, err := CellRef(src.Sheet, colIndex, v.Row)
		if err != nil {
			return result, err
		}
		if err := src.Table.WriteValues(ctx, ref, [][]string{{fix.Corrected}}); err != nil {
			return result, fmt.Errorf("failed to write fix to %s: %w", ref, err)
		}
		result.Written++
	}

	logger.Info("Wrote fixes back to source",
		zap.String("source", src.Name),
		zap.Int("written", result.Written),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

func checkContinuity(ctx context.Context, src Source, idIndex, row int, expected string) error {
	ref, err := CellRef(src.Sheet, idIndex, row)
	if err != nil {
		return err
	}
	values, err := src.Table.ReadValues(ctx, ref)
	if errors.Is(err, ErrNoData) {
		return &ContinuityError{Row: row, Expected: expected}
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", ref, err)
	}
	found := ""
	if len(values) > 0 && len(values[0]) > 0 {
		found = values[0][0]
	}
	if found != expected {
		return &ContinuityError{Row: row, Expected: expected, Found: found}
	}
	return nil
}
