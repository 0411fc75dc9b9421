package validator

import (
	"github.com/David-Botos/linelist-curation/pkg/model"
)

// DefaultSpecs lists the rule of every typed column. Columns not listed here
// are checked as generic strings.
var DefaultSpecs = []model.FieldSpec{
	{Field: model.FieldAge, Type: model.FieldTypeAge},
	{Field: model.FieldSex, Type: model.FieldTypeSex},
	{Field: model.FieldCity, Type: model.FieldTypeGeography},
	{Field: model.FieldProvince, Type: model.FieldTypeGeography},
	{Field: model.FieldCountry, Type: model.FieldTypeGeography},
	{Field: model.FieldLatitude, Type: model.FieldTypeCoordinate},
	{Field: model.FieldLongitude, Type: model.FieldTypeCoordinate},
	{Field: model.FieldGeoResolution, Type: model.FieldTypeGeoResolution},
	{Field: model.FieldDateOnsetSymptoms, Type: model.FieldTypeDate},
	{Field: model.FieldDateAdmissionHospital, Type: model.FieldTypeDate},
	{Field: model.FieldDateConfirmation, Type: model.FieldTypeDate},
	{Field: model.FieldDateDeathOrDischarge, Type: model.FieldTypeDate},
	{Field: model.FieldTravelHistoryDates, Type: model.FieldTypeDate},
	{Field: model.FieldLivesInWuhan, Type: model.FieldTypeBinary},
	{Field: model.FieldTravelHistoryBinary, Type: model.FieldTypeBinary},
}

// Engine runs field specs over datasets
type Engine struct {
	specs []model.FieldSpec
}

// NewEngine creates an engine over the given specs
func NewEngine(specs []model.FieldSpec) *Engine {
	return &Engine{specs: specs}
}

// SpecsFor expands the engine specs to the columns of a dataset: typed
// columns keep their rule, every other column is a generic string.
func (e *Engine) SpecsFor(columns []string) []model.FieldSpec {
	typed := make(map[string]model.FieldType, len(e.specs))
	for _, s := range e.specs {
		typed[s.Field] = s.Type
	}
	out := make([]model.FieldSpec, 0, len(columns))
	for _, col := range columns {
		if col == model.FieldID {
			continue
		}
		t, ok := typed[col]
		if !ok {
			t = model.FieldTypeString
		}
		out = append(out, model.FieldSpec{Field: col, Type: t})
	}
	return out
}

// Validate returns every violation in record order, then column order
func (e *Engine) Validate(ds *model.Dataset) []model.Violation {
	specs := e.SpecsFor(ds.Columns)
	var violations []model.Violation
	for _, r := range ds.Records {
		violations = append(violations, e.validateRecord(ds.Source, specs, r)...)
	}
	return violations
}

// ValidateRecord checks a single record against the dataset columns
func (e *Engine) ValidateRecord(ds *model.Dataset, r *model.Record) []model.Violation {
	return e.validateRecord(ds.Source, e.SpecsFor(ds.Columns), r)
}

func (e *Engine) validateRecord(source string, specs []model.FieldSpec, r *model.Record) []model.Violation {
	var violations []model.Violation
	for _, spec := range specs {
		value, ok := r.Fields[spec.Field]
		if !ok || Check(spec, value) {
			continue
		}
		violations = append(violations, model.Violation{
			Source: source,
			Row:    r.Row,
			ID:     r.ID,
			Field:  spec.Field,
			Value:  value,
			Type:   spec.Type,
		})
	}
	return violations
}

// Check applies one spec to a value
func Check(spec model.FieldSpec, value string) bool {
	if spec.Type == model.FieldTypeCoordinate {
		return validCoordinate(spec.Field, value)
	}
	return Valid(spec.Type, value)
}
