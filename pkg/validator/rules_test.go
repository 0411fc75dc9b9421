package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

func TestValid(t *testing.T) {
	t.Run("Should accept single ages and age ranges", func(t *testing.T) {
		for _, v := range []string{"0", "7", "15", "99", "100", "999", "20-29", "0-9", "", "NA"} {
			assert.True(t, Valid(model.FieldTypeAge, v), v)
		}
	})

	t.Run("Should reject malformed ages", func(t *testing.T) {
		for _, v := range []string{"15 ", "05", "1000", "-1", "20-", "twenty", "20 - 29", "1.5", "na"} {
			assert.False(t, Valid(model.FieldTypeAge, v), v)
		}
	})

	t.Run("Should only accept lowercase sex values", func(t *testing.T) {
		assert.True(t, Valid(model.FieldTypeSex, "male"))
		assert.True(t, Valid(model.FieldTypeSex, "female"))
		assert.True(t, Valid(model.FieldTypeSex, "NA"))
		assert.False(t, Valid(model.FieldTypeSex, "Male"))
		assert.False(t, Valid(model.FieldTypeSex, "m"))
		assert.False(t, Valid(model.FieldTypeSex, "unknown"))
	})

	t.Run("Should accept dates and open or closed date ranges", func(t *testing.T) {
		for _, v := range []string{
			"21.01.2020", "30.12.2019", "20.01.2020 - 25.01.2020", "20.01.2020-25.01.2020",
			"- 25.01.2020", "20.01.2020 -",
		} {
			assert.True(t, Valid(model.FieldTypeDate, v), v)
		}
	})

	t.Run("Should reject dates outside the expected format", func(t *testing.T) {
		for _, v := range []string{"2020-01-21", "21.01.2021", "1.1.2020", "21/01/2020", "early January"} {
			assert.False(t, Valid(model.FieldTypeDate, v), v)
		}
	})

	t.Run("Should reject legacy binary encodings", func(t *testing.T) {
		assert.True(t, Valid(model.FieldTypeBinary, "yes"))
		assert.True(t, Valid(model.FieldTypeBinary, "no"))
		assert.False(t, Valid(model.FieldTypeBinary, "1"))
		assert.False(t, Valid(model.FieldTypeBinary, "0"))
		assert.False(t, Valid(model.FieldTypeBinary, "Yes"))
	})

	t.Run("Should reject strings with surrounding whitespace", func(t *testing.T) {
		assert.True(t, Valid(model.FieldTypeString, "fever, cough"))
		assert.False(t, Valid(model.FieldTypeString, " fever"))
		assert.False(t, Valid(model.FieldTypeString, "fever\t"))
	})

	t.Run("Should require capitalized geography names", func(t *testing.T) {
		assert.True(t, Valid(model.FieldTypeGeography, "Hong Kong"))
		assert.True(t, Valid(model.FieldTypeGeography, "Wuhan"))
		assert.False(t, Valid(model.FieldTypeGeography, "wuhan"))
		assert.False(t, Valid(model.FieldTypeGeography, "Hong  Kong"))
	})

	t.Run("Should accept geo resolution levels", func(t *testing.T) {
		for _, v := range []string{"point", "admin", "admin0", "admin3"} {
			assert.True(t, Valid(model.FieldTypeGeoResolution, v), v)
		}
		assert.False(t, Valid(model.FieldTypeGeoResolution, "admin 1"))
		assert.False(t, Valid(model.FieldTypeGeoResolution, "admin4"))
	})
}

func TestCheck(t *testing.T) {
	t.Run("Should bound latitude and longitude separately", func(t *testing.T) {
		lat := model.FieldSpec{Field: model.FieldLatitude, Type: model.FieldTypeCoordinate}
		lng := model.FieldSpec{Field: model.FieldLongitude, Type: model.FieldTypeCoordinate}
		assert.True(t, Check(lat, "30.5928"))
		assert.True(t, Check(lng, "-114.3055"))
		assert.True(t, Check(lng, "179"))
		assert.False(t, Check(lat, "91"))
		assert.False(t, Check(lng, "181.5"))
		assert.False(t, Check(lat, "30,5"))
		assert.True(t, Check(lat, ""))
	})
}
