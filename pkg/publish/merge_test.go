package publish

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

func rec(id string, fields map[string]string) *model.Record {
	r := model.NewRecord(2)
	r.ID = id
	for k, v := range fields {
		r.Set(k, v)
	}
	return r
}

func ids(ds *model.Dataset) []string {
	out := make([]string, 0, ds.Len())
	for _, r := range ds.Records {
		out = append(out, r.ID)
	}
	return out
}

func TestMerge(t *testing.T) {
	t.Run("Should concatenate sources ordered by ID", func(t *testing.T) {
		a := &model.Dataset{Source: "hubei", Records: []*model.Record{rec("001-2", nil), rec("001-1", nil)}}
		b := &model.Dataset{Source: "outside", Records: []*model.Record{rec("000-1", nil)}}

		merged, err := Merge([]*model.Dataset{a, b})
		require.NoError(t, err)
		assert.Equal(t, []string{"000-1", "001-1", "001-2"}, ids(merged))
		assert.Equal(t, model.CanonicalColumns, merged.Columns)
	})

	t.Run("Should order IDs lexicographically", func(t *testing.T) {
		ds := &model.Dataset{Records: []*model.Record{rec("001-10", nil), rec("001-9", nil)}}
		merged, err := Merge([]*model.Dataset{ds})
		require.NoError(t, err)
		assert.Equal(t, []string{"001-10", "001-9"}, ids(merged))
	})

	t.Run("Should reject duplicate IDs", func(t *testing.T) {
		a := &model.Dataset{Source: "a", Records: []*model.Record{rec("001-1", nil)}}
		b := &model.Dataset{Source: "b", Records: []*model.Record{rec("001-1", nil)}}

		_, err := Merge([]*model.Dataset{a, b})
		var dup *DuplicateIDError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "001-1", dup.ID)
		assert.Equal(t, []string{"a", "b"}, dup.Sources)
	})

	t.Run("Should merge nothing into an empty dataset", func(t *testing.T) {
		merged, err := Merge(nil)
		require.NoError(t, err)
		assert.Zero(t, merged.Len())
	})
}
