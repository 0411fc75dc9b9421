package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Should apply defaults without a database", func(t *testing.T) {
		t.Setenv("POSTGRES_DB", "")
		t.Setenv("OUTPUT_DIR", "")

		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Nil(t, cfg.Postgres)
		assert.Equal(t, "output", cfg.OutDir)
		assert.Equal(t, 4, cfg.RetryAttempts)
		assert.Equal(t, 10*time.Second, cfg.RetryDelay)
		assert.True(t, cfg.FallbackEnabled)
		assert.False(t, cfg.Git.Enabled)
	})

	t.Run("Should read values from an env file", func(t *testing.T) {
		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("OUTPUT_DIR=published\nRETRY_DELAY=250ms\nWRITE_BACK=true\n"), 0o644))
		t.Setenv("OUTPUT_DIR", "")
		t.Setenv("RETRY_DELAY", "")
		t.Setenv("WRITE_BACK", "")
		// godotenv does not override variables that exist, even empty ones
		os.Unsetenv("OUTPUT_DIR")
		os.Unsetenv("RETRY_DELAY")
		os.Unsetenv("WRITE_BACK")

		cfg, err := LoadConfig(envFile)
		require.NoError(t, err)
		assert.Equal(t, "published", cfg.OutDir)
		assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
		assert.True(t, cfg.WriteBack)
	})

	t.Run("Should ignore a missing env file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
		assert.NoError(t, err)
	})

	t.Run("Should require credentials when a database is named", func(t *testing.T) {
		t.Setenv("POSTGRES_DB", "audit")
		t.Setenv("POSTGRES_USER", "")
		_, err := LoadConfig("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "POSTGRES_USER")
	})

	t.Run("Should build the audit store connection string", func(t *testing.T) {
		t.Setenv("POSTGRES_DB", "audit")
		t.Setenv("POSTGRES_USER", "curator")
		t.Setenv("POSTGRES_PASSWORD", "secret")
		t.Setenv("POSTGRES_STATEMENT_TIMEOUT", "30")

		cfg, err := LoadConfig("")
		require.NoError(t, err)
		require.NotNil(t, cfg.Postgres)
		assert.Equal(t,
			"host=localhost port=5432 user=curator password=secret dbname=audit sslmode=disable statement_timeout=30000",
			cfg.Postgres.ConnectionString())
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{SourcesFile: "s.yaml", OutDir: "out", RetryDelay: time.Second, GeocodeTimeout: time.Second, LogFormat: "json"}
	}

	t.Run("Should accept a complete config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("Should reject a negative retry count", func(t *testing.T) {
		cfg := valid()
		cfg.RetryAttempts = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("Should reject an unknown log format", func(t *testing.T) {
		cfg := valid()
		cfg.LogFormat = "xml"
		assert.Error(t, cfg.Validate())
	})

	t.Run("Should require a branch when pushing", func(t *testing.T) {
		cfg := valid()
		cfg.Git.Enabled = true
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadSources(t *testing.T) {
	write := func(t *testing.T, content string) afero.Fs {
		t.Helper()
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "conf/sources.yaml", []byte(content), 0o644))
		return fs
	}

	t.Run("Should resolve workbook paths against the file", func(t *testing.T) {
		fs := write(t, `
sources:
  - name: hubei
    workbook: sheets/hubei.xlsx
    sheet: Hubei
    base_id: "001"
  - name: outside
    workbook: /data/outside.xlsx
    sheet: outside_Hubei
    base_id: "002"
`)
		sources, err := LoadSources(fs, "conf/sources.yaml")
		require.NoError(t, err)
		require.Len(t, sources, 2)
		assert.Equal(t, SourceConfig{Name: "hubei", Workbook: filepath.Join("conf", "sheets", "hubei.xlsx"), Sheet: "Hubei", BaseID: "001"}, sources[0])
		assert.Equal(t, "/data/outside.xlsx", sources[1].Workbook)
	})

	t.Run("Should reject shared base IDs", func(t *testing.T) {
		fs := write(t, `
sources:
  - {name: a, workbook: a.xlsx, sheet: A, base_id: "001"}
  - {name: b, workbook: b.xlsx, sheet: B, base_id: "001"}
`)
		_, err := LoadSources(fs, "conf/sources.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "share base_id 001")
	})

	t.Run("Should reject incomplete entries", func(t *testing.T) {
		fs := write(t, "sources:\n  - {name: a, workbook: a.xlsx, base_id: \"001\"}\n")
		_, err := LoadSources(fs, "conf/sources.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sheet is required")
	})

	t.Run("Should reject unknown keys", func(t *testing.T) {
		fs := write(t, "sources:\n  - {name: a, workbook: a.xlsx, sheet: A, base_id: \"1\", tab: x}\n")
		_, err := LoadSources(fs, "conf/sources.yaml")
		assert.Error(t, err)
	})
}
