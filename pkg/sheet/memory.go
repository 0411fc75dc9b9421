package sheet

import (
	"context"
	"fmt"
	"sync"
)

// MemoryTable is an in-memory Table keyed by tab name
type MemoryTable struct {
	mu     sync.Mutex
	sheets map[string][][]string
	Writes int
}

// NewMemoryTable creates a table holding a single tab
func NewMemoryTable(sheet string, rows [][]string) *MemoryTable {
	return &MemoryTable{sheets: map[string][][]string{sheet: rows}}
}

// Rows returns the current grid of a tab
func (m *MemoryTable) Rows(sheet string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sheets[sheet]
}

// ReadValues implements Table
func (m *MemoryTable) ReadValues(_ context.Context, rng string) ([][]string, error) {
	r, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.sheets[r.Sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %s does not exist", r.Sheet)
	}
	return window(rows, r)
}

// WriteValues implements Table
func (m *MemoryTable) WriteValues(_ context.Context, rng string, values [][]string) error {
	r, err := ParseRange(rng)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.sheets[r.Sheet]
	if !ok {
		return fmt.Errorf("sheet %s does not exist", r.Sheet)
	}
	startRow, startCol := max(r.StartRow, 1), max(r.StartCol, 1)
	for i, vals := range values {
		ri := startRow - 1 + i
		for len(rows) <= ri {
			rows = append(rows, nil)
		}
		for j, v := range vals {
			ci := startCol - 1 + j
			for len(rows[ri]) <= ci {
				rows[ri] = append(rows[ri], "")
			}
			rows[ri][ci] = v
		}
	}
	m.sheets[r.Sheet] = rows
	m.Writes++
	return nil
}
