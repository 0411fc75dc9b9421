package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/linelist-curation/pkg/geocode"
	"github.com/David-Botos/linelist-curation/pkg/model"
)

type fixedFallback struct {
	point   geocode.Point
	err     error
	queries []string
}

func (f *fixedFallback) Geocode(_ context.Context, query string) (geocode.Point, error) {
	f.queries = append(f.queries, query)
	return f.point, f.err
}

func TestBuildManualGeocode(t *testing.T) {
	t.Run("Should keep given coordinates and take the finest admin level", func(t *testing.T) {
		fb := &fixedFallback{}
		g, err := buildManualGeocode(context.Background(), manualGeocode{
			Country:  "China",
			Province: "Hubei",
			Admin1:   "Hubei",
			Admin2:   "Wuhan",
			Lat:      30.5,
			Lng:      114.3,
			HasPoint: true,
		}, fb)
		require.NoError(t, err)
		assert.Equal(t, model.ResolutionAdmin2, g.Resolution)
		assert.Equal(t, 30.5, g.Latitude)
		assert.Equal(t, "China", g.Country)
		assert.Empty(t, fb.queries)
	})

	t.Run("Should default to admin0 without admin areas", func(t *testing.T) {
		g, err := buildManualGeocode(context.Background(), manualGeocode{
			Country: "Italy", Lat: 41.9, Lng: 12.5, HasPoint: true,
		}, &fixedFallback{})
		require.NoError(t, err)
		assert.Equal(t, model.ResolutionAdmin0, g.Resolution)
	})

	t.Run("Should look the location up when no coordinates are given", func(t *testing.T) {
		fb := &fixedFallback{point: geocode.Point{Latitude: 45.46, Longitude: 9.19}}
		g, err := buildManualGeocode(context.Background(), manualGeocode{
			City: "Milan", Country: "Italy",
		}, fb)
		require.NoError(t, err)
		assert.Equal(t, model.ResolutionPoint, g.Resolution)
		assert.Equal(t, 45.46, g.Latitude)
		require.Len(t, fb.queries, 1)
	})

	t.Run("Should fail when the lookup finds nothing", func(t *testing.T) {
		fb := &fixedFallback{err: geocode.ErrNoMatch}
		_, err := buildManualGeocode(context.Background(), manualGeocode{Country: "Atlantis"}, fb)
		assert.ErrorIs(t, err, geocode.ErrNoMatch)
	})

	t.Run("Should reject out of range coordinates", func(t *testing.T) {
		_, err := buildManualGeocode(context.Background(), manualGeocode{
			Country: "Italy", Lat: 95, Lng: 12, HasPoint: true,
		}, &fixedFallback{})
		assert.ErrorContains(t, err, "invalid coordinates")
	})

	t.Run("Should require a country", func(t *testing.T) {
		_, err := buildManualGeocode(context.Background(), manualGeocode{Lat: 1, Lng: 1, HasPoint: true}, &fixedFallback{})
		assert.ErrorContains(t, err, "country is required")
	})
}
