// Package publish merges the cleaned sources and writes the published dataset.
package publish

import (
	"fmt"
	"sort"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

// DuplicateIDError is returned when two merged records share an ID
type DuplicateIDError struct {
	ID      string
	Sources []string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate record ID %q in sources %v", e.ID, e.Sources)
}

// Merge concatenates the datasets and orders the result by ID. The result
// uses the canonical column layout.
func Merge(datasets []*model.Dataset) (*model.Dataset, error) {
	total := 0
	for _, ds := range datasets {
		total += ds.Len()
	}

	type sourced struct {
		rec    *model.Record
		source string
	}
	all := make([]sourced, 0, total)
	for _, ds := range datasets {
		for _, rec := range ds.Records {
			all = append(all, sourced{rec: rec, source: ds.Source})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].rec.ID < all[j].rec.ID
	})

	merged := &model.Dataset{
		Columns: append([]string(nil), model.CanonicalColumns...),
		Records: make([]*model.Record, 0, total),
	}
	for i, s := range all {
		if i > 0 && all[i-1].rec.ID == s.rec.ID {
			return nil, &DuplicateIDError{ID: s.rec.ID, Sources: []string{all[i-1].source, s.source}}
		}
		merged.Records = append(merged.Records, s.rec)
	}
	return merged, nil
}
