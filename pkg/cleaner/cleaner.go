// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/linelist-curation/pkg/model"
	"github.com/David-Botos/linelist-curation/pkg/validator"
)

// ErrRecordingFailed marks a failure of the audit store
var ErrRecordingFailed = errors.New("failed to record cleaning operations")

// CleanResult is the outcome of cleaning one source
type CleanResult struct {
	Clean      *model.Dataset    // Records without unresolved violations
	Rejected   []*model.Record   // Records kept back for manual review
	Fixes      []model.Fix       // Every correction applied, normalization included
	RuleFixes  []model.Fix       // Corrections of validation failures only
	Unresolved []model.Violation // Violations no rule could fix
}

// DataCleaner handles validation and auto-fixing of a source dataset
type DataCleaner struct {
	engine   *validator.Engine
	recorder FixRecorder
	runID    string
	logger   *zap.Logger
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(engine *validator.Engine, recorder FixRecorder, runID string, logger *zap.Logger) (*DataCleaner, error) {
	if engine == nil {
		return nil, errors.New("validation engine cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}

	return &DataCleaner{
		engine:   engine,
		recorder: recorder,
		runID:    runID,
		logger:   logger,
	}, nil
}

// Normalize trims every cell, canonicalizes NA spellings and expands sex
// shorthand in place. Changed cells are returned as fixes.
func (c *DataCleaner) Normalize(ds *model.Dataset) []model.Fix {
	var fixes []model.Fix
	for _, r := range ds.Records {
		for _, col := range ds.Columns {
			value, ok := r.Fields[col]
			if !ok || col == model.FieldID {
				continue
			}
			cleaned := normalizeValue(col, value)
			if cleaned == value {
				continue
			}
			kind := model.FieldTypeString
			if col == model.FieldSex {
				kind = model.FieldTypeSex
			}
			r.Set(col, cleaned)
			fixes = append(fixes, model.Fix{
				Violation: model.Violation{
					Source: ds.Source, Row: r.Row, ID: r.ID, Field: col, Value: value, Type: kind,
				},
				Corrected: cleaned,
			})
		}
	}
	return fixes
}

// Clean normalizes, validates and auto-fixes a dataset, then splits it into
// clean and rejected records. Every operation is recorded.
func (c *DataCleaner) Clean(ctx context.Context, ds *model.Dataset) (*CleanResult, error) {
	if ds == nil {
		return nil, errors.New("dataset cannot be nil")
	}

	result := &CleanResult{
		Clean: &model.Dataset{Source: ds.Source, Columns: ds.Columns},
	}
	result.Fixes = c.Normalize(ds)

	for _, r := range ds.Records {
		unresolved := false
		for _, v := range c.engine.ValidateRecord(ds, r) {
			corrected, ok := Fix(v)
			if !ok {
				result.Unresolved = append(result.Unresolved, v)
				unresolved = true
				continue
			}
			r.Set(v.Field, corrected)
			fix := model.Fix{Violation: v, Corrected: corrected}
			result.Fixes = append(result.Fixes, fix)
			result.RuleFixes = append(result.RuleFixes, fix)
		}

		if unresolved {
			result.Rejected = append(result.Rejected, r)
		} else {
			result.Clean.Records = append(result.Clean.Records, r)
		}
	}

	c.logger.Info("Cleaned source",
		zap.String("source", ds.Source),
		zap.Int("records", ds.Len()),
		zap.Int("fixes", len(result.Fixes)),
		zap.Int("unresolved", len(result.Unresolved)),
		zap.Int("rejectedRecords", len(result.Rejected)))

	if err := c.record(ctx, result); err != nil {
		return result, fmt.Errorf("%w: %w", ErrRecordingFailed, err)
	}
	return result, nil
}

func (c *DataCleaner) record(ctx context.Context, result *CleanResult) error {
	ops := make([]model.CleaningOperation, 0, len(result.Fixes)+len(result.Unresolved))
	for _, f := range result.Fixes {
		ops = append(ops, model.OperationFromFix(c.runID, f))
	}
	for _, v := range result.Unresolved {
		ops = append(ops, model.OperationFromViolation(c.runID, v))
	}
	return c.recorder.RecordCleaningOperations(ctx, ops)
}
