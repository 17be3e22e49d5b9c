package config

const (
	defaultLogDir                = "~/.local/share/recmatch/logs"
	defaultCachePath             = "~/.cache/recmatch/outcomes.db"
	defaultCacheMaxEntries       = 10000
	defaultVerifiedTTLHours      = 48
	defaultUnverifiedTTLHours    = 6
	defaultVerifyThreshold       = 0.8
	defaultIDConfidenceFloor     = 0.8
	defaultMaxPotentialMatches   = 5
	defaultDetailFetchLimit      = 5
	defaultBatchSize             = 5
	defaultBatchDelayMS          = 1000
	defaultMaxRetries            = 2
	defaultAttemptTimeoutSeconds = 15
	defaultSuggestBaseURL        = "https://api.openai.com/v1"
	defaultSuggestModel          = "gpt-4o-mini"
	defaultSuggestTimeoutSeconds = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Matching: Matching{
			VerifyThreshold:     defaultVerifyThreshold,
			IDConfidenceFloor:   defaultIDConfidenceFloor,
			MaxPotentialMatches: defaultMaxPotentialMatches,
			DetailFetchLimit:    defaultDetailFetchLimit,
		},
		Batch: Batch{
			Size:    defaultBatchSize,
			DelayMS: defaultBatchDelayMS,
		},
		Retry: Retry{
			MaxRetries:            defaultMaxRetries,
			AttemptTimeoutSeconds: defaultAttemptTimeoutSeconds,
		},
		Cache: Cache{
			Enabled:            true,
			Path:               defaultCachePath,
			MaxEntries:         defaultCacheMaxEntries,
			VerifiedTTLHours:   defaultVerifiedTTLHours,
			UnverifiedTTLHours: defaultUnverifiedTTLHours,
		},
		Suggestions: Suggestions{
			BaseURL:        defaultSuggestBaseURL,
			Model:          defaultSuggestModel,
			TimeoutSeconds: defaultSuggestTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
