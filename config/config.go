// Package config loads voxbridge settings from ~/.voxbridge/config.yaml,
// applying environment overrides on top of the file and defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/habedi/voxbridge/auth"
	"github.com/habedi/voxbridge/pkg/validation"
	"gopkg.in/yaml.v3"
)

const (
	EnvAPIBaseURL = "VOXBRIDGE_API_BASE_URL"
	EnvDBPath     = "VOXBRIDGE_DB_PATH"
	EnvConfigPath = "VOXBRIDGE_CONFIG"

	DefaultAPIBaseURL = "http://localhost:8080"
	DefaultMaxSeconds = 60
	DefaultWorkers    = 4
)

// Config holds the user settings.
type Config struct {
	APIBaseURL    string           `yaml:"api_base_url"`
	DBPath        string           `yaml:"db_path"`
	Language      string           `yaml:"language"`
	MaxSeconds    int              `yaml:"max_seconds"`
	Workers       int              `yaml:"workers"`
	RecordingsDir string           `yaml:"recordings_dir"`
	Kakao         auth.KakaoConfig `yaml:"kakao"`
}

// Dir is the voxbridge data directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".voxbridge"
	}
	return filepath.Join(home, ".voxbridge")
}

// DefaultPath returns the config file location, honoring VOXBRIDGE_CONFIG.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		APIBaseURL:    DefaultAPIBaseURL,
		DBPath:        filepath.Join(Dir(), "voxbridge.db"),
		Language:      "en-US",
		MaxSeconds:    DefaultMaxSeconds,
		Workers:       DefaultWorkers,
		RecordingsDir: filepath.Join(Dir(), "recordings"),
		Kakao:         auth.KakaoConfig{Issuer: auth.KakaoIssuer},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIBaseURL)); v != "" {
		c.APIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDBPath)); v != "" {
		c.DBPath = v
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
}

// Validate checks the settings.
func (c Config) Validate() error {
	if err := validation.ValidateNonEmptyString("api_base_url", c.APIBaseURL); err != nil {
		return err
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("api_base_url must start with http:// or https://, got %q", c.APIBaseURL)
	}
	if err := validation.ValidateNonEmptyString("db_path", c.DBPath); err != nil {
		return err
	}
	if err := validation.ValidateLanguageCode(c.Language, validation.Languages); err != nil {
		return err
	}
	if err := validation.ValidateMaxSeconds(c.MaxSeconds); err != nil {
		return err
	}
	return validation.ValidateWorkerCount(c.Workers)
}

// Save writes c to path as YAML, creating the directory.
func Save(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
