package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DEVBOX10/microsoft-scalar/pkg/config"
	"github.com/DEVBOX10/microsoft-scalar/pkg/errclass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, root, content string) {
	t.Helper()
	path := config.Path(root)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "git", cfg.Git.Path)
	assert.Equal(t, "auto", cfg.Git.MaintenanceBuiltin)
	assert.Equal(t, []string{"commit-graph", "loose-objects", "incremental-repack"}, cfg.Maintenance.Steps)
	assert.Equal(t, time.Hour, cfg.Maintenance.Interval)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NotExists(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
git:
  maintenance_builtin: "false"
  objects_root: /srv/cache/objects
maintenance:
  steps: [commit-graph]
  interval: 15m
  lock_timeout: 5s
logging:
  level: debug
  format: json
`)

	cfg, err := config.Load(root)
	require.NoError(t, err)
	assert.Equal(t, "false", cfg.Git.MaintenanceBuiltin)
	assert.Equal(t, "/srv/cache/objects", cfg.Git.ObjectsRoot)
	assert.Equal(t, []string{"commit-graph"}, cfg.Maintenance.Steps)
	assert.Equal(t, 15*time.Minute, cfg.Maintenance.Interval)
	assert.Equal(t, 5*time.Second, cfg.Maintenance.LockTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, "git", cfg.Git.Path)
	assert.Equal(t, ":2112", cfg.Metrics.Addr)
}

func TestLoad_EnvOverlay(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "logging:\n  level: info\n")
	t.Setenv("SCALAR_LOGGING_LEVEL", "error")
	t.Setenv("SCALAR_MAINTENANCE_INTERVAL", "2m")

	cfg, err := config.Load(root)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 2*time.Minute, cfg.Maintenance.Interval)
}

func TestLoadFile_IgnoresEnv(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "logging:\n  level: warn\n")
	t.Setenv("SCALAR_LOGGING_LEVEL", "error")

	cfg, err := config.LoadFile(root)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_InvalidYAML(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "git: [this is invalid yaml\n")

	_, err := config.Load(root)
	require.ErrorIs(t, err, errclass.ErrConfigInvalid)
}

func TestLoad_InvalidValue(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "git:\n  maintenance_builtin: sometimes\n")

	_, err := config.Load(root)
	require.ErrorIs(t, err, errclass.ErrConfigInvalid)
}

func TestSaveAndLoad(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Maintenance.Steps = []string{"loose-objects"}
	cfg.Maintenance.Interval = 45 * time.Minute
	cfg.Telemetry.Enabled = true

	require.NoError(t, config.Save(root, cfg))
	_, err := os.Stat(config.Path(root))
	require.NoError(t, err)

	loaded, err := config.Load(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"loose-objects"}, loaded.Maintenance.Steps)
	assert.Equal(t, 45*time.Minute, loaded.Maintenance.Interval)
	assert.True(t, loaded.Telemetry.Enabled)
}

func TestGetSet(t *testing.T) {
	cfg := config.Default()

	require.NoError(t, cfg.Set("maintenance.steps", "commit-graph, loose-objects"))
	v, err := cfg.Get("maintenance.steps")
	require.NoError(t, err)
	assert.Equal(t, "commit-graph,loose-objects", v)

	require.NoError(t, cfg.Set("telemetry.stdout", "true"))
	v, _ = cfg.Get("telemetry.stdout")
	assert.Equal(t, "true", v)

	require.NoError(t, cfg.Set("maintenance.lock_timeout", "1m"))
	v, _ = cfg.Get("maintenance.lock_timeout")
	assert.Equal(t, "1m0s", v)
}

func TestSet_Rejects(t *testing.T) {
	cfg := config.Default()
	assert.ErrorIs(t, cfg.Set("nope", "x"), errclass.ErrConfigInvalid)
	assert.ErrorIs(t, cfg.Set("maintenance.interval", "soon"), errclass.ErrConfigInvalid)
	assert.ErrorIs(t, cfg.Set("logging.format", "xml"), errclass.ErrConfigInvalid)
	_, err := cfg.Get("nope")
	assert.ErrorIs(t, err, errclass.ErrConfigInvalid)
}

func TestKeysAreGettable(t *testing.T) {
	cfg := config.Default()
	for _, key := range config.Keys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}
