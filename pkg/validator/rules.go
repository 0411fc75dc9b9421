package validator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/golang/geo/s2"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

const (
	singleAge  = `(0|[1-9][0-9]{0,2})`
	singleDate = `[0-9]{2}\.[0-9]{2}\.20(19|20)`
)

var (
	ageRe           = regexp.MustCompile(`^` + singleAge + `(-` + singleAge + `)?$`)
	dateRe          = regexp.MustCompile(`^(` + singleDate + `|` + singleDate + ` ?- ?` + singleDate + `|- ?` + singleDate + `|` + singleDate + ` ?-)$`)
	geographyRe     = regexp.MustCompile(`^[A-Z][a-z]+( [A-Z][a-z]+)*$`)
	coordinateRe    = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
	geoResolutionRe = regexp.MustCompile(`^(point|admin[0-3]?)$`)
)

// Predicate reports whether a raw value satisfies a rule
type Predicate func(value string) bool

var predicates = map[model.FieldType]Predicate{
	model.FieldTypeAge:           ageRe.MatchString,
	model.FieldTypeSex:           validSex,
	model.FieldTypeDate:          dateRe.MatchString,
	model.FieldTypeBinary:        validBinary,
	model.FieldTypeString:        validString,
	model.FieldTypeGeography:     geographyRe.MatchString,
	model.FieldTypeCoordinate:    coordinateRe.MatchString,
	model.FieldTypeGeoResolution: geoResolutionRe.MatchString,
}

// Valid reports whether value passes the rule for t. Empty values and the
// missing-value token are valid for every type.
func Valid(t model.FieldType, value string) bool {
	if value == "" || value == model.MissingValue {
		return true
	}
	p, ok := predicates[t]
	if !ok {
		return true
	}
	return p(value)
}

func validSex(value string) bool {
	return value == "male" || value == "female"
}

func validBinary(value string) bool {
	return value == "yes" || value == "no"
}

func validString(value string) bool {
	return value == strings.TrimSpace(value)
}

// ValidLatLng reports whether a coordinate pair is on the sphere
func ValidLatLng(lat, lng float64) bool {
	return s2.LatLngFromDegrees(lat, lng).IsValid()
}

// validCoordinate checks a single latitude or longitude field value
func validCoordinate(field, value string) bool {
	if value == "" || value == model.MissingValue {
		return true
	}
	if !coordinateRe.MatchString(value) {
		return false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	if field == model.FieldLatitude {
		return ValidLatLng(f, 0)
	}
	return ValidLatLng(0, f)
}
