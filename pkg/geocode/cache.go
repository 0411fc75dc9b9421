package geocode

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

// Master table columns
const (
	colKey = iota
	colLatitude
	colLongitude
	colResolution
	colLocation
	colAdmin3
	colAdmin2
	colAdmin1
	colCountry
	colAdminID
	masterColumns
)

// Entry is a geocode stored under its lookup key
type Entry struct {
	Key     string
	Geocode model.Geocode
}

// Cache maps lookup keys to geocodes for the lifetime of one run
type Cache struct {
	entries    map[string]model.Geocode
	added      []Entry
	maxAdminID int
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string]model.Geocode)}
}

// LoadCache reads the tab-separated master table. A missing or non-integer
// admin_id loads as 0; a malformed coordinate fails the load.
func LoadCache(fs afero.Fs, path string) (*Cache, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening geocode table: %w", err)
	}
	defer f.Close()

	c := NewCache()
	reader := csv.NewReader(f)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading geocode table line %d: %w", line, err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		entry, err := parseEntry(row)
		if err != nil {
			return nil, fmt.Errorf("geocode table line %d: %w", line, err)
		}
		c.put(entry.Key, entry.Geocode)
	}
	return c, nil
}

func parseEntry(row []string) (Entry, error) {
	if len(row) < colCountry+1 {
		return Entry{}, fmt.Errorf("expected at least %d columns, got %d", colCountry+1, len(row))
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(row[colLatitude]), 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid latitude %q", row[colLatitude])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(row[colLongitude]), 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid longitude %q", row[colLongitude])
	}
	adminID := 0
	if len(row) > colAdminID {
		if id, err := strconv.Atoi(strings.TrimSpace(row[colAdminID])); err == nil {
			adminID = id
		}
	}
	return Entry{
		Key: strings.ToLower(row[colKey]),
		Geocode: model.Geocode{
			Latitude:   lat,
			Longitude:  lng,
			Resolution: row[colResolution],
			Location:   row[colLocation],
			Admin3:     row[colAdmin3],
			Admin2:     row[colAdmin2],
			Admin1:     row[colAdmin1],
			Country:    row[colCountry],
			AdminID:    adminID,
		},
	}, nil
}

func (c *Cache) put(key string, g model.Geocode) {
	c.entries[key] = g
	if g.AdminID > c.maxAdminID {
		c.maxAdminID = g.AdminID
	}
}

// Get looks a key up
func (c *Cache) Get(key string) (model.Geocode, bool) {
	g, ok := c.entries[key]
	return g, ok
}

// Insert adds a geocode found during this run. Existing keys are kept and
// false is returned.
func (c *Cache) Insert(key string, g model.Geocode) bool {
	if _, ok := c.entries[key]; ok {
		return false
	}
	c.put(key, g)
	c.added = append(c.added, Entry{Key: key, Geocode: g})
	return true
}

// NextAdminID returns an admin_id not used by any cached geocode
func (c *Cache) NextAdminID() int {
	return max(c.maxAdminID, len(c.entries)) + 1
}

// Len returns the number of cached keys
func (c *Cache) Len() int {
	return len(c.entries)
}

// NewEntries returns the geocodes inserted during this run in insertion order
func (c *Cache) NewEntries() []Entry {
	out := make([]Entry, len(c.added))
	copy(out, c.added)
	return out
}

// Append writes the entries inserted during this run to the end of the master table
func (c *Cache) Append(fs afero.Fs, path string) (int, error) {
	if len(c.added) == 0 {
		return 0, nil
	}
	f, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("opening geocode table for append: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	for _, e := range c.added {
		if err := w.Write(formatEntry(e)); err != nil {
			return 0, fmt.Errorf("appending geocode %q: %w", e.Key, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("appending geocodes: %w", err)
	}
	return len(c.added), nil
}

func formatEntry(e Entry) []string {
	row := make([]string, masterColumns)
	row[colKey] = e.Key
	row[colLatitude] = strconv.FormatFloat(e.Geocode.Latitude, 'f', -1, 64)
	row[colLongitude] = strconv.FormatFloat(e.Geocode.Longitude, 'f', -1, 64)
	row[colResolution] = e.Geocode.Resolution
	row[colLocation] = e.Geocode.Location
	row[colAdmin3] = e.Geocode.Admin3
	row[colAdmin2] = e.Geocode.Admin2
	row[colAdmin1] = e.Geocode.Admin1
	row[colCountry] = e.Geocode.Country
	row[colAdminID] = strconv.Itoa(e.Geocode.AdminID)
	return row
}
