package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(`
db:
  host: localhost
  port: 5432
jwt:
  secret: ${JWT_SECRET}
engine:
  timezone: UTC
`), 0o644))
	t.Setenv("JWT_SECRET", "k")
	t.Setenv("RUNNER_INTERVAL", "15m")

	cfg, err := LoadFrom("test", dir)
	require.NoError(t, err)

	assert.Equal(t, "k", cfg.JWT.Secret)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 365, cfg.Engine.MaxOccurrences)
	assert.Equal(t, 15*time.Minute, cfg.Runner.Interval)
	assert.Equal(t, 48*time.Hour, cfg.Redis.DedupTTL)
	loc, err := cfg.Engine.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadFromRejectsUnknownTimezone(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(`
engine:
  timezone: Mars/Olympus_Mons
`), 0o644))

	_, err := LoadFrom("test", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mars/Olympus_Mons")
}

func TestLoadFromMissingDir(t *testing.T) {
	_, err := LoadFrom("local", filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
