package model

import "strings"

// Resolution levels of a geocode
const (
	ResolutionPoint  = "point"
	ResolutionAdmin0 = "admin0"
	ResolutionAdmin1 = "admin1"
	ResolutionAdmin2 = "admin2"
	ResolutionAdmin3 = "admin3"
)

// Geocode is a resolved location with its administrative hierarchy
type Geocode struct {
	Latitude   float64
	Longitude  float64
	Resolution string
	Country    string // Canonical country name, published as country_new
	AdminID    int
	Location   string
	Admin3     string
	Admin2     string
	Admin1     string
}

// Triple is the free-text location of a record
type Triple struct {
	City     string
	Province string
	Country  string
}

// Key is the lowercase city;province;country lookup key
func (t Triple) Key() string {
	return strings.ToLower(strings.Join([]string{
		strings.TrimSpace(t.City),
		strings.TrimSpace(t.Province),
		strings.TrimSpace(t.Country),
	}, ";"))
}

// Query joins the non-empty components for a free-text geocoder
func (t Triple) Query() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.City, t.Province, t.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// TripleOf extracts the location triple of a record
func TripleOf(r *Record) Triple {
	return Triple{
		City:     r.Get(FieldCity),
		Province: r.Get(FieldProvince),
		Country:  r.Get(FieldCountry),
	}
}
