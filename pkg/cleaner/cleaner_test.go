package cleaner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/linelist-curation/pkg/model"
	"github.com/David-Botos/linelist-curation/pkg/validator"
)

type captureRecorder struct {
	ops []model.CleaningOperation
	err error
}

func (c *captureRecorder) RecordCleaningOperations(_ context.Context, ops []model.CleaningOperation) error {
	c.ops = append(c.ops, ops...)
	return c.err
}

func newDataset(rows ...map[string]string) *model.Dataset {
	ds := &model.Dataset{
		Source: "sheet1",
		Columns: []string{
			model.FieldID, model.FieldAge, model.FieldSex, model.FieldDateConfirmation,
			model.FieldLivesInWuhan, model.FieldSymptoms,
		},
	}
	for i, fields := range rows {
		r := model.NewRecord(i + 2)
		r.ID = "000-" + string(rune('1'+i))
		for k, v := range fields {
			r.Set(k, v)
		}
		ds.Records = append(ds.Records, r)
	}
	return ds
}

func TestDataCleaner_Clean(t *testing.T) {
	t.Run("Should normalize and fix records into the clean partition", func(t *testing.T) {
		recorder := &captureRecorder{}
		c, err := NewDataCleaner(validator.NewEngine(validator.DefaultSpecs), recorder, "run-1", zap.NewNop())
		require.NoError(t, err)
		ds := newDataset(map[string]string{
			"age": "1 5", "sex": " M", "date_confirmation": "21.01.2020",
			"lives_in_Wuhan": "1", "symptoms": "n/a",
		})

		result, err := c.Clean(context.Background(), ds)
		require.NoError(t, err)
		require.Len(t, result.Clean.Records, 1)
		assert.Empty(t, result.Rejected)
		assert.Empty(t, result.Unresolved)

		r := result.Clean.Records[0]
		assert.Equal(t, "15", r.Get("age"))
		assert.Equal(t, "male", r.Get("sex"))
		assert.Equal(t, "yes", r.Get("lives_in_Wuhan"))
		assert.Equal(t, "NA", r.Get("symptoms"))
		assert.Len(t, result.Fixes, 4)
		require.Len(t, result.RuleFixes, 2)
		assert.Equal(t, "age", result.RuleFixes[0].Violation.Field)
		assert.Equal(t, "lives_in_Wuhan", result.RuleFixes[1].Violation.Field)
		assert.Len(t, recorder.ops, 4)
		for _, op := range recorder.ops {
			assert.Equal(t, "run-1", op.RunID)
			assert.Equal(t, model.OperationFixed, op.CleaningOperation)
		}
	})

	t.Run("Should reject the whole record when one field is unresolved", func(t *testing.T) {
		recorder := &captureRecorder{}
		c, err := NewDataCleaner(validator.NewEngine(validator.DefaultSpecs), recorder, "run-2", zap.NewNop())
		require.NoError(t, err)
		ds := newDataset(
			map[string]string{"age": "30", "sex": "female", "date_confirmation": "2020-01-21"},
			map[string]string{"age": "41", "sex": "unknown", "date_confirmation": "22.01.2020"},
			map[string]string{"age": "52", "sex": "male", "date_confirmation": "23.01.2020"},
		)

		result, err := c.Clean(context.Background(), ds)
		require.NoError(t, err)
		require.Len(t, result.Clean.Records, 1)
		assert.Equal(t, "000-3", result.Clean.Records[0].ID)
		require.Len(t, result.Rejected, 2)
		require.Len(t, result.Unresolved, 2)
		assert.Equal(t, model.Violation{
			Source: "sheet1", Row: 2, ID: "000-1", Field: "date_confirmation",
			Value: "2020-01-21", Type: model.FieldTypeDate,
		}, result.Unresolved[0])
		assert.Equal(t, "sex", result.Unresolved[1].Field)
		require.Len(t, recorder.ops, 2)
		assert.Equal(t, model.OperationUnresolved, recorder.ops[0].CleaningOperation)
	})

	t.Run("Should surface recorder failures", func(t *testing.T) {
		recorder := &captureRecorder{err: errors.New("db down")}
		c, err := NewDataCleaner(validator.NewEngine(validator.DefaultSpecs), recorder, "run-3", zap.NewNop())
		require.NoError(t, err)

		_, err = c.Clean(context.Background(), newDataset(map[string]string{"age": " 3"}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
	})

	t.Run("Should default to a no-op recorder", func(t *testing.T) {
		c, err := NewDataCleaner(validator.NewEngine(validator.DefaultSpecs), nil, "", zap.NewNop())
		require.NoError(t, err)
		_, err = c.Clean(context.Background(), newDataset(map[string]string{"age": " 3"}))
		require.NoError(t, err)
	})
}
