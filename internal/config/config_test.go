package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every lookup at a fresh directory so the developer's real
// ~/.tada and TADA_* variables never leak into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, k := range []string{
		"TADA_CONFIG", "TADA_DATA_DIR", "TADA_BACKEND", "TADA_LOGIN_DELAY",
		"TADA_SAVE_RETRIES", "TADA_LOG_LEVEL", "TADA_LOG_FILE", "TADA_THEME", "TADA_TOKEN_SECRET",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".tada"), cfg.DataDir)
	assert.Equal(t, BackendJSON, cfg.Backend)
	assert.Equal(t, time.Second, cfg.LoginDelay)
	assert.Equal(t, 0, cfg.SaveRetries)
	assert.Equal(t, "classic", cfg.Theme)
}

func TestLoadFileThenEnv(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "tada.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: ~/state
backend: bolt
login_delay: 250ms
save_retries: 3
theme: neon
`), 0o600))
	t.Setenv("TADA_BACKEND", "sqlite")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "state"), cfg.DataDir)
	assert.Equal(t, BackendSQLite, cfg.Backend, "env wins over file")
	assert.Equal(t, 250*time.Millisecond, cfg.LoginDelay)
	assert.Equal(t, 3, cfg.SaveRetries)
	assert.Equal(t, "neon", cfg.Theme)
}

func TestLoadPicksUpConfigInDataDir(t *testing.T) {
	home := isolate(t)
	dataDir := filepath.Join(home, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "config.yaml"), []byte("backend: badger\n"), 0o600))
	t.Setenv("TADA_DATA_DIR", dataDir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, cfg.Backend)
	assert.Equal(t, dataDir, cfg.DataDir)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	home := isolate(t)
	_, err := Load(filepath.Join(home, "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "tada.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backnd: json\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestEmptyFileKeepsDefaults(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "tada.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendJSON, cfg.Backend)
}

func TestLoadDefersValidation(t *testing.T) {
	isolate(t)
	t.Setenv("TADA_BACKEND", "bogus")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "bogus", cfg.Backend)
	assert.Error(t, cfg.Validate())

	cfg.Backend = BackendJSON
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"backend", func(c *Config) { c.Backend = "redis" }},
		{"theme", func(c *Config) { c.Theme = "pink" }},
		{"delay", func(c *Config) { c.LoginDelay = -time.Second }},
		{"retries", func(c *Config) { c.SaveRetries = -1 }},
		{"log level", func(c *Config) { c.LogLevel = "chatty" }},
		{"data dir", func(c *Config) { c.DataDir = "" }},
		{"secret", func(c *Config) { c.TokenSecret = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	mem := Default()
	mem.DataDir = ""
	mem.Backend = BackendMemory
	assert.NoError(t, mem.Validate(), "memory backend needs no directory")
}
