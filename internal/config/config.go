// Package config resolves tada's settings from defaults, an optional YAML
// file and TADA_* environment variables, in that order of precedence
// (later wins). Command-line flags are applied on top by the cli package.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/Makepad-fr/tada/internal/logging"
)

// Storage backends.
const (
	BackendJSON   = "json"
	BackendBolt   = "bolt"
	BackendBadger = "badger"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

var backends = []string{BackendJSON, BackendBolt, BackendBadger, BackendMemory, BackendSQLite}

var themes = []string{"classic", "neon", "mono"}

// Config is the fully resolved configuration.
type Config struct {
	DataDir     string        `yaml:"data_dir"     env:"TADA_DATA_DIR"`
	Backend     string        `yaml:"backend"      env:"TADA_BACKEND"`
	LoginDelay  time.Duration `yaml:"login_delay"  env:"TADA_LOGIN_DELAY"`
	SaveRetries int           `yaml:"save_retries" env:"TADA_SAVE_RETRIES"`
	LogLevel    string        `yaml:"log_level"    env:"TADA_LOG_LEVEL"`
	LogFile     string        `yaml:"log_file"     env:"TADA_LOG_FILE"`
	Theme       string        `yaml:"theme"        env:"TADA_THEME"`
	TokenSecret string        `yaml:"token_secret" env:"TADA_TOKEN_SECRET"`
}

// Default returns the built-in settings. State lives in ~/.tada.
func Default() Config {
	dir := ".tada"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".tada")
	}
	return Config{
		DataDir:     dir,
		Backend:     BackendJSON,
		LoginDelay:  time.Second,
		SaveRetries: 0,
		LogLevel:    "warn",
		Theme:       "classic",
		TokenSecret: "tada-local-demo-secret",
	}
}

// Load resolves the configuration. path is the --config flag; when empty
// TADA_CONFIG is consulted, then <data-dir>/config.yaml if it exists.
// The result is not validated: callers apply their own overrides first and
// then call Validate.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = strings.TrimSpace(os.Getenv("TADA_CONFIG"))
		explicit = path != ""
	}
	if path == "" {
		dir := cfg.DataDir
		if v := strings.TrimSpace(os.Getenv("TADA_DATA_DIR")); v != "" {
			dir = v
		}
		path = filepath.Join(expandHome(dir), "config.yaml")
	}

	if err := readFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.LogFile = expandHome(cfg.LogFile)
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(strings.NewReader(string(b)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate rejects values no component can work with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DataDir) == "" && c.Backend != BackendMemory {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if !contains(backends, c.Backend) {
		errs = append(errs, fmt.Errorf("unknown backend %q (want one of %s)", c.Backend, strings.Join(backends, ", ")))
	}
	if !contains(themes, strings.ToLower(c.Theme)) {
		errs = append(errs, fmt.Errorf("unknown theme %q (want one of %s)", c.Theme, strings.Join(themes, ", ")))
	}
	if c.LoginDelay < 0 {
		errs = append(errs, errors.New("login_delay must not be negative"))
	}
	if c.SaveRetries < 0 {
		errs = append(errs, errors.New("save_retries must not be negative"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.TokenSecret == "" {
		errs = append(errs, errors.New("token_secret is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
