package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that the configuration is internally coherent. It is
// called by Load after normalization; callers constructing a Config by hand
// should call it themselves.
func (c *Config) Validate() error {
	var problems []string

	if c.Matching.VerifyThreshold <= 0 || c.Matching.VerifyThreshold >= 1 {
		problems = append(problems, fmt.Sprintf("matching.verify_threshold must be in (0, 1), got %v", c.Matching.VerifyThreshold))
	}
	if c.Matching.IDConfidenceFloor <= 0 || c.Matching.IDConfidenceFloor > 1 {
		problems = append(problems, fmt.Sprintf("matching.id_confidence_floor must be in (0, 1], got %v", c.Matching.IDConfidenceFloor))
	}
	if c.Matching.MaxPotentialMatches < 1 {
		problems = append(problems, "matching.max_potential_matches must be at least 1")
	}
	if c.Matching.DetailFetchLimit < 1 {
		problems = append(problems, "matching.detail_fetch_limit must be at least 1")
	}
	if c.Batch.Size < 1 {
		problems = append(problems, "batch.size must be at least 1")
	}
	if c.Retry.MaxRetries < 0 {
		problems = append(problems, "retry.max_retries must not be negative")
	}
	if c.Retry.AttemptTimeoutSeconds < 1 {
		problems = append(problems, "retry.attempt_timeout_seconds must be at least 1")
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) == "" {
		problems = append(problems, "cache.path required when cache.enabled")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format must be console or json, got %q", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
