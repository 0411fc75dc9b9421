// pkg/model/cleaning.go
package model

import (
	"time"
)

// FieldType is the semantic type a FieldSpec validates against
type FieldType string

const (
	FieldTypeAge           FieldType = "age"
	FieldTypeSex           FieldType = "sex"
	FieldTypeDate          FieldType = "date"
	FieldTypeBinary        FieldType = "binary"
	FieldTypeString        FieldType = "string"
	FieldTypeGeography     FieldType = "geography"
	FieldTypeCoordinate    FieldType = "coordinate"
	FieldTypeGeoResolution FieldType = "geo_resolution"
)

// FieldSpec associates a column with the rule its values must satisfy
type FieldSpec struct {
	Field string
	Type  FieldType
}

// Violation is a single record/field pair that failed its FieldSpec
type Violation struct {
	Source string    // Source (sheet) name
	Row    int       // Sheet row the record was read from
	ID     string    // Record ID
	Field  string    // Column that failed validation
	Value  string    // Observed value
	Type   FieldType // Rule that rejected the value
}

// Fix is a deterministic correction of a Violation
type Fix struct {
	Violation Violation
	Corrected string
}

// Cleaning operation kinds recorded in the audit table
const (
	OperationFixed      = "fixed"
	OperationUnresolved = "unresolved"
)

// CleaningOperation is one audited change (or refusal to change) to a cell
type CleaningOperation struct {
	RunID             string    // Run the operation belongs to
	SourceName        string    // Source (sheet) name
	RowNumber         int       // Sheet row
	RecordID          string    // ID that identifies the record
	ColumnName        string    // Column that was cleaned
	OriginalValue     string    // Observed value
	NewValue          string    // Value after cleaning, empty when unresolved
	CleaningOperation string    // OperationFixed or OperationUnresolved
	CleaningReason    string    // Rule that triggered it (e.g. "age")
	CleanedAt         time.Time // When the cleaning occurred (set by database)
}

// OperationFromFix builds the audit entry for an applied fix
func OperationFromFix(runID string, f Fix) CleaningOperation {
	return CleaningOperation{
		RunID:             runID,
		SourceName:        f.Violation.Source,
		RowNumber:         f.Violation.Row,
		RecordID:          f.Violation.ID,
		ColumnName:        f.Violation.Field,
		OriginalValue:     f.Violation.Value,
		NewValue:          f.Corrected,
		CleaningOperation: OperationFixed,
		CleaningReason:    string(f.Violation.Type),
	}
}

// OperationFromViolation builds the audit entry for an unresolved violation
func OperationFromViolation(runID string, v Violation) CleaningOperation {
	return CleaningOperation{
		RunID:             runID,
		SourceName:        v.Source,
		RowNumber:         v.Row,
		RecordID:          v.ID,
		ColumnName:        v.Field,
		OriginalValue:     v.Value,
		CleaningOperation: OperationUnresolved,
		CleaningReason:    string(v.Type),
	}
}
