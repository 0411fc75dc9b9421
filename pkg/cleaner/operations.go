// pkg/cleaner/operations.go
package cleaner

import (
	"strings"
	"unicode"

	"github.com/David-Botos/linelist-curation/pkg/model"
	"github.com/David-Botos/linelist-curation/pkg/validator"
)

// FixSex expands single-letter and mixed-case spellings of the sex field.
// Any other value is returned unchanged.
func FixSex(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "m", "male":
		return "male"
	case "f", "female":
		return "female"
	default:
		return value
	}
}

// FixNA maps every spelling of N/A or NA to the canonical missing-value token
func FixNA(value string) string {
	s := strings.TrimSpace(value)
	if strings.EqualFold(s, "N/A") || strings.EqualFold(s, model.MissingValue) {
		return model.MissingValue
	}
	return value
}

// Fix computes the correction for a violation from its observed value alone.
// The second return is false when the violation cannot be fixed.
func Fix(v model.Violation) (string, bool) {
	switch v.Type {
	case model.FieldTypeSex:
		s := strings.ToLower(strings.TrimSpace(v.Value))
		if s == "male" || s == "female" || s == "" {
			return s, true
		}

	case model.FieldTypeAge:
		s := removeWhitespace(v.Value)
		if validator.Valid(model.FieldTypeAge, s) {
			return s, true
		}

	case model.FieldTypeBinary:
		s := strings.ToLower(strings.TrimSpace(v.Value))
		if validator.Valid(model.FieldTypeBinary, s) {
			return s, true
		}
		switch s {
		case "1":
			return "yes", true
		case "0":
			return "no", true
		}

	case model.FieldTypeGeoResolution:
		s := strings.ReplaceAll(v.Value, " ", "")
		if validator.Valid(model.FieldTypeGeoResolution, s) {
			return s, true
		}

	case model.FieldTypeString:
		return strings.TrimSpace(v.Value), true
	}

	// dates, geography and coordinates are never fixed automatically
	return "", false
}

// normalizeValue applies the unconditional fixes to one cell
func normalizeValue(field, value string) string {
	s := FixNA(strings.TrimSpace(value))
	if field == model.FieldSex {
		s = FixSex(s)
	}
	return s
}

func removeWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
