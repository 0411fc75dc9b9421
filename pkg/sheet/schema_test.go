package sheet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

func fullHeader() []string {
	header := []string{model.FieldID}
	return append(header, model.RequiredColumns...)
}

func TestNormalizeHeader(t *testing.T) {
	t.Run("Should trim header names", func(t *testing.T) {
		header := fullHeader()
		header[1] = "  " + header[1] + " "
		schema, err := NormalizeHeader("sheet1", header)
		require.NoError(t, err)
		assert.Equal(t, model.RequiredColumns[0], schema.Columns[1])
		assert.Equal(t, 1, schema.Index(model.RequiredColumns[0]))
	})

	t.Run("Should restore a blank country header after province", func(t *testing.T) {
		header := fullHeader()
		for i, h := range header {
			if h == model.FieldCountry {
				header[i] = ""
			}
		}
		schema, err := NormalizeHeader("sheet1", header)
		require.NoError(t, err)
		assert.Equal(t, schema.Index(model.FieldProvince)+1, schema.Index(model.FieldCountry))
	})

	t.Run("Should report missing required columns", func(t *testing.T) {
		header := []string{model.FieldID, model.FieldAge, model.FieldSex}
		_, err := NormalizeHeader("sheet1", header)
		var schemaErr *SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, "sheet1", schemaErr.Source)
		assert.Contains(t, schemaErr.Missing, model.FieldCity)
		assert.NotContains(t, schemaErr.Missing, model.FieldAge)
	})

	t.Run("Should reject other blank and duplicate headers", func(t *testing.T) {
		header := append(fullHeader(), "", model.FieldAge)
		_, err := NormalizeHeader("sheet1", header)
		var schemaErr *SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, []int{len(header) - 2}, schemaErr.Unnamed)
		assert.Equal(t, []string{model.FieldAge}, schemaErr.Duplicate)
		assert.Empty(t, schemaErr.Missing)
		assert.Contains(t, schemaErr.Error(), "duplicate columns age")
	})
}
