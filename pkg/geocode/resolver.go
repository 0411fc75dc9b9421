// Package geocode resolves free-text locations through the master table
// cache with a network fallback.
package geocode

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

// ErrNoMatch is returned by a fallback that found no candidate
var ErrNoMatch = errors.New("geocoder found no match")

// Point is a coordinate returned by a fallback geocoder
type Point struct {
	Latitude  float64
	Longitude float64
}

// Fallback geocodes a free-text query
type Fallback interface {
	Geocode(ctx context.Context, query string) (Point, error)
}

// Resolver owns the cache and miss counter for one run
type Resolver struct {
	cache    *Cache
	misses   *MissCounter
	fallback Fallback
	failed   map[string]struct{}
	logger   *zap.Logger

	fallbackCalls int
}

// NewResolver creates a resolver. A nil fallback turns every cache miss
// into a recorded miss.
func NewResolver(cache *Cache, fallback Fallback, logger *zap.Logger) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	return &Resolver{
		cache:    cache,
		misses:   NewMissCounter(),
		fallback: fallback,
		failed:   make(map[string]struct{}),
		logger:   logger.Named("geocode"),
	}
}

// Cache returns the underlying cache
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Misses returns the miss counter
func (r *Resolver) Misses() *MissCounter {
	return r.misses
}

// FallbackCalls returns how many times the fallback was invoked
func (r *Resolver) FallbackCalls() int {
	return r.fallbackCalls
}

// Resolve looks a location up
func (r *Resolver) Resolve(ctx context.Context, city, province, country string) (model.Geocode, bool) {
	triple := model.Triple{City: city, Province: province, Country: country}
	key := triple.Key()

	if g, ok := r.cache.Get(key); ok {
		return g, true
	}
	if _, ok := r.failed[key]; ok {
		r.misses.Add(triple)
		return model.Geocode{}, false
	}

	query := triple.Query()
	if r.fallback == nil || query == "" {
		r.miss(key, triple)
		return model.Geocode{}, false
	}

	r.fallbackCalls++
	point, err := r.fallback.Geocode(ctx, query)
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			r.logger.Debug("No geocode candidate", zap.String("query", query))
		} else {
			r.logger.Warn("Fallback geocoding failed", zap.String("query", query), zap.Error(err))
		}
		r.miss(key, triple)
		return model.Geocode{}, false
	}

	g := model.Geocode{
		Latitude:   point.Latitude,
		Longitude:  point.Longitude,
		Resolution: model.ResolutionPoint,
		Country:    country,
		AdminID:    r.cache.NextAdminID(),
	}
	r.cache.Insert(key, g)
	r.logger.Debug("Geocoded by fallback",
		zap.String("key", key),
		zap.Float64("latitude", g.Latitude),
		zap.Float64("longitude", g.Longitude))
	return g, true
}

func (r *Resolver) miss(key string, triple model.Triple) {
	r.failed[key] = struct{}{}
	r.misses.Add(triple)
}

// Enrich fills the geo columns of every record. Records that cannot be
// resolved get empty geo columns. Returns the number resolved.
func (r *Resolver) Enrich(ctx context.Context, ds *model.Dataset) int {
	resolved := 0
	for _, rec := range ds.Records {
		t := model.TripleOf(rec)
		g, ok := r.Resolve(ctx, t.City, t.Province, t.Country)
		if !ok {
			for _, col := range model.GeoColumns {
				rec.Set(col, "")
			}
			continue
		}
		resolved++
		rec.Set(model.FieldLatitude, strconv.FormatFloat(g.Latitude, 'f', -1, 64))
		rec.Set(model.FieldLongitude, strconv.FormatFloat(g.Longitude, 'f', -1, 64))
		rec.Set(model.FieldGeoResolution, g.Resolution)
		rec.Set(model.FieldLocation, g.Location)
		rec.Set(model.FieldAdmin3, g.Admin3)
		rec.Set(model.FieldAdmin2, g.Admin2)
		rec.Set(model.FieldAdmin1, g.Admin1)
		rec.Set(model.FieldCountryNew, g.Country)
		rec.Set(model.FieldAdminID, strconv.Itoa(g.AdminID))
	}
	return resolved
}

// LogTopMisses logs the n most frequent unresolved locations
func (r *Resolver) LogTopMisses(n int) {
	for _, m := range r.misses.Top(n) {
		r.logger.Info("Unresolved location",
			zap.String("city", m.Triple.City),
			zap.String("province", m.Triple.Province),
			zap.String("country", m.Triple.Country),
			zap.Int("count", m.Count))
	}
}
