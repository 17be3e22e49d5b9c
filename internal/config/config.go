package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"recmatch/internal/reconcile"
	"recmatch/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file location configuration.
type Paths struct {
	LogDir      string `toml:"log_dir"`
	CatalogPath string `toml:"catalog_path"`
}

// Matching contains the similarity thresholds for candidate classification.
type Matching struct {
	VerifyThreshold     float64 `toml:"verify_threshold"`
	IDConfidenceFloor   float64 `toml:"id_confidence_floor"`
	MaxPotentialMatches int     `toml:"max_potential_matches"`
	DetailFetchLimit    int     `toml:"detail_fetch_limit"`
}

// Batch contains chunking and pacing for batch reconciliation.
type Batch struct {
	Size    int `toml:"size"`
	DelayMS int `toml:"delay_ms"`
}

// Retry contains bounds for retrying transient lookup failures.
type Retry struct {
	MaxRetries            int `toml:"max_retries"`
	AttemptTimeoutSeconds int `toml:"attempt_timeout_seconds"`
}

// Cache contains configuration for the durable outcome cache.
type Cache struct {
	Enabled            bool   `toml:"enabled"`
	Path               string `toml:"path"`
	MaxEntries         int    `toml:"max_entries"`
	VerifiedTTLHours   int    `toml:"verified_ttl_hours"`
	UnverifiedTTLHours int    `toml:"unverified_ttl_hours"`
}

// Suggestions contains connection settings for the suggestion collaborator.
type Suggestions struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for recmatch.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Matching    Matching    `toml:"matching"`
	Batch       Batch       `toml:"batch"`
	Retry       Retry       `toml:"retry"`
	Cache       Cache       `toml:"cache"`
	Suggestions Suggestions `toml:"suggestions"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/recmatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file was actually found; defaults apply either way.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("recmatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the program writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) != "" {
		dirs = append(dirs, filepath.Dir(c.Cache.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Policy converts the matching, batch, and cache sections into an engine
// policy.
func (c *Config) Policy() reconcile.Policy {
	return reconcile.Policy{
		VerifyThreshold:     c.Matching.VerifyThreshold,
		IDConfidenceFloor:   c.Matching.IDConfidenceFloor,
		MaxPotentialMatches: c.Matching.MaxPotentialMatches,
		DetailFetchLimit:    c.Matching.DetailFetchLimit,
		BatchSize:           c.Batch.Size,
		BatchDelay:          time.Duration(c.Batch.DelayMS) * time.Millisecond,
		VerifiedTTL:         time.Duration(c.Cache.VerifiedTTLHours) * time.Hour,
		UnverifiedTTL:       time.Duration(c.Cache.UnverifiedTTLHours) * time.Hour,
	}
}

// RetryConfig converts the retry section into engine retry settings.
func (c *Config) RetryConfig() services.RetryConfig {
	return services.RetryConfig{
		MaxRetries:     c.Retry.MaxRetries,
		AttemptTimeout: time.Duration(c.Retry.AttemptTimeoutSeconds) * time.Second,
	}
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
