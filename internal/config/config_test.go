package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://adresse.data.gouv.fr/data/ban/adresses/latest/csv/adresses-<codeDepartement>.csv.gz", cfg.Sources.BANURLPattern)
	assert.Equal(t, "https://adresse.data.gouv.fr/data/sbg-recovery/<codeCommune>.csv", cfg.Sources.RecoveryURLPattern)
	assert.Equal(t, 120, cfg.HTTP.TimeoutSecs)
	assert.Equal(t, 2*time.Minute, cfg.HTTP.Timeout())
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Equal(t, 4, cfg.Extract.MaxConcurrentCommunes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
sources:
  ban_url_pattern: http://mirror.local/adresses-<codeDepartement>.csv.gz
http:
  timeout_secs: 30
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://mirror.local/adresses-<codeDepartement>.csv.gz", cfg.Sources.BANURLPattern)
	assert.Equal(t, 30, cfg.HTTP.TimeoutSecs)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	// Untouched keys keep their defaults.
	assert.Equal(t, "https://adresse.data.gouv.fr/data/sbg-recovery/<codeCommune>.csv", cfg.Sources.RecoveryURLPattern)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}
