package geocode

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

const masterTable = "wuhan;hubei;china\t30.5928\t114.3055\tadmin2\tWuhan, Hubei, China\t\tWuhan\tHubei\tChina\t12\n" +
	"\n" +
	"shenzhen;guangdong;china\t22.5431\t114.0579\tadmin2\tShenzhen, Guangdong, China\t\tShenzhen\tGuangdong\tChina\tx\n"

func TestLoadCache(t *testing.T) {
	t.Run("Should load entries and skip blank lines", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "geo.tsv", []byte(masterTable), 0o644))

		cache, err := LoadCache(fs, "geo.tsv")
		require.NoError(t, err)
		assert.Equal(t, 2, cache.Len())

		g, ok := cache.Get("wuhan;hubei;china")
		require.True(t, ok)
		assert.Equal(t, 30.5928, g.Latitude)
		assert.Equal(t, 114.3055, g.Longitude)
		assert.Equal(t, "admin2", g.Resolution)
		assert.Equal(t, "Hubei", g.Admin1)
		assert.Equal(t, "China", g.Country)
		assert.Equal(t, 12, g.AdminID)
	})

	t.Run("Should load a non-integer admin_id as 0", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "geo.tsv", []byte(masterTable), 0o644))

		cache, err := LoadCache(fs, "geo.tsv")
		require.NoError(t, err)
		g, ok := cache.Get("shenzhen;guangdong;china")
		require.True(t, ok)
		assert.Equal(t, 0, g.AdminID)
	})

	t.Run("Should name the line of a malformed latitude", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "geo.tsv",
			[]byte("a;b;c\tnorth\t1\tpoint\t\t\t\t\tC\t1\n"), 0o644))

		_, err := LoadCache(fs, "geo.tsv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 1")
		assert.Contains(t, err.Error(), "latitude")
	})

	t.Run("Should fail when the file is missing", func(t *testing.T) {
		_, err := LoadCache(afero.NewMemMapFs(), "missing.tsv")
		assert.Error(t, err)
	})
}

func TestCacheAppend(t *testing.T) {
	t.Run("Should round-trip new entries through the master table", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "geo.tsv", []byte(masterTable), 0o644))
		cache, err := LoadCache(fs, "geo.tsv")
		require.NoError(t, err)

		inserted := cache.Insert("foo;bar;baz", model.Geocode{
			Latitude: 42.42, Longitude: 43.43, Resolution: model.ResolutionPoint,
			Country: "baz", AdminID: cache.NextAdminID(), Location: "foo, bar, baz",
		})
		require.True(t, inserted)
		assert.False(t, cache.Insert("foo;bar;baz", model.Geocode{}))

		n, err := cache.Append(fs, "geo.tsv")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		reloaded, err := LoadCache(fs, "geo.tsv")
		require.NoError(t, err)
		assert.Equal(t, 3, reloaded.Len())
		g, ok := reloaded.Get("foo;bar;baz")
		require.True(t, ok)
		assert.Equal(t, 42.42, g.Latitude)
		assert.Equal(t, 43.43, g.Longitude)
		assert.Equal(t, "foo, bar, baz", g.Location)
		assert.Equal(t, 13, g.AdminID)
	})

	t.Run("Should not touch the file without new entries", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		n, err := NewCache().Append(fs, "geo.tsv")
		require.NoError(t, err)
		assert.Zero(t, n)
		exists, err := afero.Exists(fs, "geo.tsv")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
