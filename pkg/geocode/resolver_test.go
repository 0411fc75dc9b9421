package geocode

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

type stubFallback struct {
	point   Point
	err     error
	queries []string
}

func (s *stubFallback) Geocode(_ context.Context, query string) (Point, error) {
	s.queries = append(s.queries, query)
	return s.point, s.err
}

type forbiddenFallback struct {
	t *testing.T
}

func (f forbiddenFallback) Geocode(context.Context, string) (Point, error) {
	f.t.Fatal("fallback must not be called")
	return Point{}, nil
}

func TestResolverResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return cached geocodes without calling the fallback", func(t *testing.T) {
		cache := NewCache()
		cache.Insert("wuhan;hubei;china", model.Geocode{Latitude: 30.59, Longitude: 114.31, Resolution: model.ResolutionAdmin2})
		r := NewResolver(cache, forbiddenFallback{t: t}, zap.NewNop())

		g, ok := r.Resolve(ctx, " Wuhan ", "Hubei", "CHINA")
		require.True(t, ok)
		assert.Equal(t, 30.59, g.Latitude)
		assert.Zero(t, r.Misses().Len())
	})

	t.Run("Should count repeated misses without a fallback", func(t *testing.T) {
		r := NewResolver(NewCache(), nil, zap.NewNop())

		_, ok := r.Resolve(ctx, "foo", "bar", "baz")
		assert.False(t, ok)
		_, ok = r.Resolve(ctx, "foo", "bar", "baz")
		assert.False(t, ok)

		assert.Equal(t, 2, r.Misses().Count(model.Triple{City: "foo", Province: "bar", Country: "baz"}))
		_, cached := r.Cache().Get("foo;bar;baz")
		assert.False(t, cached)
	})

	t.Run("Should cache a fallback point", func(t *testing.T) {
		cache := NewCache()
		cache.Insert("wuhan;hubei;china", model.Geocode{AdminID: 7})
		fb := &stubFallback{point: Point{Latitude: 42.42, Longitude: 43.43}}
		r := NewResolver(cache, fb, zap.NewNop())

		g, ok := r.Resolve(ctx, "foo", "bar", "baz")
		require.True(t, ok)
		assert.Equal(t, 42.42, g.Latitude)
		assert.Equal(t, 43.43, g.Longitude)
		assert.Equal(t, model.ResolutionPoint, g.Resolution)
		assert.Equal(t, "baz", g.Country)
		assert.Empty(t, g.Location)
		assert.Empty(t, g.Admin1)
		assert.Equal(t, 8, g.AdminID)
		assert.Equal(t, []string{"foo, bar, baz"}, fb.queries)

		again, ok := r.Resolve(ctx, "foo", "bar", "baz")
		require.True(t, ok)
		assert.Equal(t, g, again)
		assert.Equal(t, 1, r.FallbackCalls())
		require.Len(t, cache.NewEntries(), 2)
		assert.Equal(t, "foo;bar;baz", cache.NewEntries()[1].Key)
	})

	t.Run("Should not call the fallback again for a failed key", func(t *testing.T) {
		fb := &stubFallback{err: ErrNoMatch}
		r := NewResolver(NewCache(), fb, zap.NewNop())

		for i := 0; i < 3; i++ {
			_, ok := r.Resolve(ctx, "Atlantis", "", "")
			assert.False(t, ok)
		}
		assert.Len(t, fb.queries, 1)
		assert.Equal(t, 3, r.Misses().Count(model.Triple{City: "Atlantis"}))
	})

	t.Run("Should treat an empty location as a miss", func(t *testing.T) {
		r := NewResolver(NewCache(), forbiddenFallback{t: t}, zap.NewNop())
		_, ok := r.Resolve(ctx, " ", "", "")
		assert.False(t, ok)
		assert.Equal(t, 1, r.Misses().Len())
	})

	t.Run("Should treat a fallback error as a miss", func(t *testing.T) {
		r := NewResolver(NewCache(), &stubFallback{err: errors.New("boom")}, zap.NewNop())
		_, ok := r.Resolve(ctx, "foo", "", "baz")
		assert.False(t, ok)
		assert.Equal(t, 1, r.Misses().Count(model.Triple{City: "foo", Country: "baz"}))
	})
}

func TestResolverEnrich(t *testing.T) {
	t.Run("Should fill resolved records and clear unresolved ones", func(t *testing.T) {
		cache := NewCache()
		cache.Insert("wuhan;hubei;china", model.Geocode{
			Latitude: 30.5, Longitude: 114.25, Resolution: model.ResolutionAdmin2,
			Country: "China", AdminID: 3, Location: "Wuhan", Admin2: "Wuhan", Admin1: "Hubei",
		})
		r := NewResolver(cache, nil, zap.NewNop())

		hit := model.NewRecord(2)
		hit.Set(model.FieldCity, "Wuhan")
		hit.Set(model.FieldProvince, "Hubei")
		hit.Set(model.FieldCountry, "China")
		miss := model.NewRecord(3)
		miss.Set(model.FieldCity, "Nowhere")
		miss.Set(model.FieldLatitude, "1.0")

		resolved := r.Enrich(context.Background(), &model.Dataset{Records: []*model.Record{hit, miss}})
		assert.Equal(t, 1, resolved)
		assert.Equal(t, "30.5", hit.Get(model.FieldLatitude))
		assert.Equal(t, "114.25", hit.Get(model.FieldLongitude))
		assert.Equal(t, "admin2", hit.Get(model.FieldGeoResolution))
		assert.Equal(t, "China", hit.Get(model.FieldCountryNew))
		assert.Equal(t, "3", hit.Get(model.FieldAdminID))
		for _, col := range model.GeoColumns {
			assert.Equal(t, "", miss.Get(col), col)
		}
	})
}

func TestMissCounter(t *testing.T) {
	t.Run("Should order by count then key", func(t *testing.T) {
		m := NewMissCounter()
		m.Add(model.Triple{City: "b"})
		m.Add(model.Triple{City: "a"})
		m.Add(model.Triple{City: "c"})
		m.Add(model.Triple{City: "c"})

		top := m.Top(2)
		require.Len(t, top, 2)
		assert.Equal(t, "c", top[0].Triple.City)
		assert.Equal(t, 2, top[0].Count)
		assert.Equal(t, "a", top[1].Triple.City)
		assert.Len(t, m.Top(0), 3)
	})

	t.Run("Should write the miss report with a header", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		m := NewMissCounter()
		m.Add(model.Triple{City: "foo", Province: "bar", Country: "baz"})
		m.Add(model.Triple{City: "foo", Province: "bar", Country: "baz"})
		m.Add(model.Triple{City: "x"})

		require.NoError(t, m.WriteCSV(fs, "geocode_misses.csv"))
		data, err := afero.ReadFile(fs, "geocode_misses.csv")
		require.NoError(t, err)
		assert.Equal(t, "city,province,country,count\nfoo,bar,baz,2\nx,,,1\n", string(data))
	})
}
