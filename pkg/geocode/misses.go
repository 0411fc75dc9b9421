package geocode

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/afero"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

// Miss is a location that failed to resolve and how often it did
type Miss struct {
	Triple model.Triple
	Count  int
}

// MissCounter counts unresolved locations by key
type MissCounter struct {
	counts map[string]*Miss
}

// NewMissCounter creates an empty counter
func NewMissCounter() *MissCounter {
	return &MissCounter{counts: make(map[string]*Miss)}
}

// Add records one miss
func (m *MissCounter) Add(t model.Triple) {
	key := t.Key()
	if miss, ok := m.counts[key]; ok {
		miss.Count++
		return
	}
	m.counts[key] = &Miss{Triple: t, Count: 1}
}

// Count returns the misses recorded for a triple
func (m *MissCounter) Count(t model.Triple) int {
	if miss, ok := m.counts[t.Key()]; ok {
		return miss.Count
	}
	return 0
}

// Len returns the number of distinct missed locations
func (m *MissCounter) Len() int {
	return len(m.counts)
}

// Top returns the n most frequent misses, ties broken by key. n <= 0 returns all.
func (m *MissCounter) Top(n int) []Miss {
	out := make([]Miss, 0, len(m.counts))
	for _, miss := range m.counts {
		out = append(out, *miss)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Triple.Key() < out[j].Triple.Key()
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// WriteCSV writes every miss to path
func (m *MissCounter) WriteCSV(fs afero.Fs, path string) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("creating miss report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"city", "province", "country", "count"}); err != nil {
		return fmt.Errorf("writing miss report header: %w", err)
	}
	for _, miss := range m.Top(0) {
		row := []string{miss.Triple.City, miss.Triple.Province, miss.Triple.Country, strconv.Itoa(miss.Count)}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing miss report: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
