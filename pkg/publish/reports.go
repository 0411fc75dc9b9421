package publish

import (
	"encoding/csv"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/afero"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

// ErrorReportDir is where per-source error reports are written
const ErrorReportDir = "error_reports"

// WriteErrorReport writes the unresolved violations of the rejected records
// of one source, ordered by record ID. Returns the report path.
func WriteErrorReport(fs afero.Fs, dir, source string, rejected []*model.Record, unresolved []model.Violation) (string, error) {
	rejectedIDs := make(map[string]struct{}, len(rejected))
	for _, rec := range rejected {
		rejectedIDs[rec.ID] = struct{}{}
	}

	rows := make([]model.Violation, 0, len(unresolved))
	for _, v := range unresolved {
		if _, ok := rejectedIDs[v.ID]; ok {
			rows = append(rows, v)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ID < rows[j].ID
	})

	reportDir := filepath.Join(dir, ErrorReportDir)
	if err := fs.MkdirAll(reportDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", reportDir, err)
	}
	path := filepath.Join(reportDir, source+".error-report.csv")
	f, err := fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating error report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"row", "ID", "column", "value"}); err != nil {
		return "", fmt.Errorf("writing error report header: %w", err)
	}
	for _, v := range rows {
		if err := w.Write([]string{strconv.Itoa(v.Row), v.ID, v.Field, v.Value}); err != nil {
			return "", fmt.Errorf("writing error report: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("writing error report: %w", err)
	}
	return path, nil
}
