package config

import "strings"

// normalize trims string fields, expands paths, and backfills zero values
// with their defaults so partial config files behave predictably.
func (c *Config) normalize() error {
	d := Default()

	c.Paths.LogDir = strings.TrimSpace(c.Paths.LogDir)
	if c.Paths.LogDir == "" {
		c.Paths.LogDir = d.Paths.LogDir
	}
	c.Paths.CatalogPath = strings.TrimSpace(c.Paths.CatalogPath)

	if c.Matching.VerifyThreshold == 0 {
		c.Matching.VerifyThreshold = d.Matching.VerifyThreshold
	}
	if c.Matching.IDConfidenceFloor == 0 {
		c.Matching.IDConfidenceFloor = d.Matching.IDConfidenceFloor
	}
	if c.Matching.MaxPotentialMatches == 0 {
		c.Matching.MaxPotentialMatches = d.Matching.MaxPotentialMatches
	}
	if c.Matching.DetailFetchLimit == 0 {
		c.Matching.DetailFetchLimit = d.Matching.DetailFetchLimit
	}

	if c.Batch.Size == 0 {
		c.Batch.Size = d.Batch.Size
	}
	if c.Batch.DelayMS < 0 {
		c.Batch.DelayMS = d.Batch.DelayMS
	}

	if c.Retry.AttemptTimeoutSeconds == 0 {
		c.Retry.AttemptTimeoutSeconds = d.Retry.AttemptTimeoutSeconds
	}

	c.Cache.Path = strings.TrimSpace(c.Cache.Path)
	if c.Cache.Path == "" {
		c.Cache.Path = d.Cache.Path
	}
	if c.Cache.MaxEntries < 0 {
		c.Cache.MaxEntries = 0
	}
	if c.Cache.VerifiedTTLHours == 0 {
		c.Cache.VerifiedTTLHours = d.Cache.VerifiedTTLHours
	}
	if c.Cache.UnverifiedTTLHours == 0 {
		c.Cache.UnverifiedTTLHours = d.Cache.UnverifiedTTLHours
	}

	c.Suggestions.APIKey = strings.TrimSpace(c.Suggestions.APIKey)
	c.Suggestions.BaseURL = strings.TrimSpace(c.Suggestions.BaseURL)
	if c.Suggestions.BaseURL == "" {
		c.Suggestions.BaseURL = d.Suggestions.BaseURL
	}
	c.Suggestions.Model = strings.TrimSpace(c.Suggestions.Model)
	if c.Suggestions.Model == "" {
		c.Suggestions.Model = d.Suggestions.Model
	}
	if c.Suggestions.TimeoutSeconds == 0 {
		c.Suggestions.TimeoutSeconds = d.Suggestions.TimeoutSeconds
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}

	for _, field := range []*string{&c.Paths.LogDir, &c.Paths.CatalogPath, &c.Cache.Path} {
		if *field == "" {
			continue
		}
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}
	return nil
}
