package sheet

import (
	"fmt"
	"strings"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

// SchemaError reports header drift that cannot be repaired
type SchemaError struct {
	Source    string
	Missing   []string // Required columns not found
	Duplicate []string // Columns named more than once
	Unnamed   []int    // Zero-based positions of blank headers
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing columns "+strings.Join(e.Missing, ", "))
	}
	if len(e.Duplicate) > 0 {
		parts = append(parts, "duplicate columns "+strings.Join(e.Duplicate, ", "))
	}
	if len(e.Unnamed) > 0 {
		parts = append(parts, fmt.Sprintf("unnamed columns at %v", e.Unnamed))
	}
	return fmt.Sprintf("schema drift in %s: %s", e.Source, strings.Join(parts, "; "))
}

// NormalizeHeader trims header names and repairs the known blank "country"
// header following "province". Any other drift is a *SchemaError.
func NormalizeHeader(source string, header []string) (*model.Schema, error) {
	columns := make([]string, len(header))
	schemaErr := &SchemaError{Source: source}
	seen := make(map[string]bool, len(header))

	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" && i > 0 && columns[i-1] == model.FieldProvince {
			name = model.FieldCountry
		}
		if name == "" {
			schemaErr.Unnamed = append(schemaErr.Unnamed, i)
			continue
		}
		if seen[name] {
			schemaErr.Duplicate = append(schemaErr.Duplicate, name)
		}
		seen[name] = true
		columns[i] = name
	}

	for _, req := range model.RequiredColumns {
		if !seen[req] {
			schemaErr.Missing = append(schemaErr.Missing, req)
		}
	}

	if len(schemaErr.Missing) > 0 || len(schemaErr.Duplicate) > 0 || len(schemaErr.Unnamed) > 0 {
		return nil, schemaErr
	}
	return model.NewSchema(source, columns), nil
}
