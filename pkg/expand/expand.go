// Package expand turns aggregated rows into one record per case and numbers them.
package expand

import (
	"math"
	"strconv"
	"strings"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

// Expand emits every record once per case it stands for. A record whose
// count field holds n > 1 is followed by n-1 copies. The count field is
// cleared on every output record. The input slice and records are untouched.
func Expand(records []*model.Record, countField string) []*model.Record {
	out := make([]*model.Record, 0, len(records))
	for _, r := range records {
		n := caseCount(r.Get(countField))
		base := r.Clone()
		if base.Has(countField) {
			base.Set(countField, "")
		}
		out = append(out, base)
		for i := 1; i < n; i++ {
			out = append(out, base.Clone())
		}
	}
	return out
}

// caseCount parses the aggregated count, non-numeric values count as one
func caseCount(value string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 1 {
		return 1
	}
	return int(f)
}

// AssignIDs numbers records <baseID>-1, <baseID>-2, ... in order
func AssignIDs(records []*model.Record, baseID string) {
	for i, r := range records {
		r.ID = baseID + "-" + strconv.Itoa(i+1)
	}
}
