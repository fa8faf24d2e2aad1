package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yard-planner/backend/internal/yard"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "DATA_DIR", "YARD_SEED_FILE", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_CreatesDefault(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.xml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<YardPlanner>")

	assert.Equal(t, 8089, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.GetDataDir())
	assert.Equal(t, filepath.Join(dir, "data", "seeds"), cfg.GetSeedsDir())
	assert.Equal(t, 2*time.Second, cfg.ToastDuration())
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout())
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval())
	assert.Equal(t, 4096, cfg.Storage.MaxSeedSizeKB)
}

func TestLoadConfig_ParsesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.xml")
	xmlDoc := `<?xml version="1.0" encoding="UTF-8"?>
<YardPlanner>
  <Server><Port>9000</Port><BindAddress>127.0.0.1</BindAddress></Server>
  <Storage><DataDirectory>/srv/yard</DataDirectory></Storage>
  <Yard>
    <Rows>A,B</Rows>
    <Columns>4</Columns>
    <Capacity>3</Capacity>
    <Adjacency>row</Adjacency>
    <RestrictedLongSlots>a4, b2</RestrictedLongSlots>
  </Yard>
</YardPlanner>`
	require.NoError(t, os.WriteFile(path, []byte(xmlDoc), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.GetServerAddr())
	assert.Equal(t, "/srv/yard", cfg.GetDataDir())

	layout := cfg.YardLayout()
	assert.Equal(t, []string{"A", "B"}, layout.Rows)
	assert.Equal(t, 4, layout.Columns)
	assert.Equal(t, 3, layout.Capacity)
	assert.Equal(t, yard.AdjacencyRow, layout.Adjacency)
	assert.Equal(t, []string{"A4", "B2"}, layout.RestrictedLongSlots)

	// Sections absent from the file keep their defaults.
	assert.Equal(t, 100, cfg.Yard.MaxSessions)
	assert.Equal(t, "info", cfg.Advanced.LogLevel)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7070")
	t.Setenv("DATA_DIR", "/tmp/yard-data")
	t.Setenv("YARD_SEED_FILE", "/tmp/seed.yaml")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.xml"))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/tmp/yard-data", cfg.GetDataDir())
	assert.Equal(t, "/tmp/seed.yaml", cfg.Yard.SeedFile)
	assert.Equal(t, "debug", cfg.Advanced.LogLevel)
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)
	tests := map[string]string{
		"bad xml":       `<YardPlanner><Server>`,
		"zero capacity": `<YardPlanner><Yard><Capacity>0</Capacity></Yard></YardPlanner>`,
		"bad adjacency": `<YardPlanner><Yard><Adjacency>diagonal</Adjacency></Yard></YardPlanner>`,
		"bad port":      `<YardPlanner><Server><Port>70000</Port></Server></YardPlanner>`,
		"negative seed": `<YardPlanner><Storage><MaxSeedSizeKB>-1</MaxSeedSizeKB></Storage></YardPlanner>`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.xml")
			require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestYardLayout_RestrictedModes(t *testing.T) {
	cfg := DefaultConfig()

	layout := cfg.YardLayout()
	assert.Equal(t, yard.DefaultLayout(), layout)

	cfg.Yard.RestrictedLongSlots = "none"
	assert.Empty(t, cfg.YardLayout().RestrictedLongSlots)

	cfg.Yard.RestrictedLongSlots = "legacy"
	assert.Equal(t, yard.LegacyRestrictedSlots(), cfg.YardLayout().RestrictedLongSlots)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.resolvePaths(dir)

	require.NoError(t, cfg.EnsureDirectories())
	for _, d := range []string{cfg.GetDataDir(), cfg.GetSeedsDir()} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	assert.True(t, strings.HasPrefix(cfg.Storage.PreferencesDB, dir))
}
