package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDSNAndURL(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "p@ss word", Name: "routeweather"}
	assert.Equal(t, "user=bot password=p@ss word host=db port=5432 dbname=routeweather sslmode=disable", cfg.DSN())
	assert.Equal(t, "postgres://bot:p%40ss%20word@db:5432/routeweather?sslmode=disable", cfg.URL())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.URL(), "sslmode=require")
}

func TestListAndSelectMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_second.up.sql", "000001_city_locations.up.sql",
		"000001_city_locations.down.sql", "notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o700))

	files := listMigrationFiles(dir)
	assert.Equal(t, []string{"000001_city_locations.up.sql", "000002_second.up.sql"}, files)
	assert.Equal(t, []string{"000002_second.up.sql"}, selectApplied(files, 1, 2))
	assert.Empty(t, selectApplied(files, 2, 2))
	assert.Nil(t, listMigrationFiles(filepath.Join(dir, "missing")))
}

func TestResolveDir(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "m")
	got, err := resolveDir(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	got, err = resolveDir("")
	require.NoError(t, err)
	assert.Equal(t, "migrations", filepath.Base(got))
	assert.True(t, filepath.IsAbs(got))
}
