package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaultsForMissingFile(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("exists = true for a missing file")
	}
	if cfg.Matching.VerifyThreshold != defaultVerifyThreshold {
		t.Fatalf("verify threshold = %v, want default", cfg.Matching.VerifyThreshold)
	}
	if cfg.Batch.Size != defaultBatchSize {
		t.Fatalf("batch size = %d, want default", cfg.Batch.Size)
	}
}

func TestLoadMergesPartialFile(t *testing.T) {
	path := writeConfig(t, `
[matching]
verify_threshold = 0.9

[batch]
size = 2
delay_ms = 50

[logging]
format = "json"
`)
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatal("expected resolved existing path")
	}
	if cfg.Matching.VerifyThreshold != 0.9 {
		t.Fatalf("verify threshold = %v, want 0.9", cfg.Matching.VerifyThreshold)
	}
	if cfg.Matching.IDConfidenceFloor != defaultIDConfidenceFloor {
		t.Fatalf("id floor = %v, want default preserved", cfg.Matching.IDConfidenceFloor)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("format = %q, want json", cfg.Logging.Format)
	}

	policy := cfg.Policy()
	if policy.BatchSize != 2 || policy.BatchDelay != 50*time.Millisecond {
		t.Fatalf("policy batch = %d/%v, want 2/50ms", policy.BatchSize, policy.BatchDelay)
	}
	if policy.VerifiedTTL != 48*time.Hour {
		t.Fatalf("verified TTL = %v, want 48h", policy.VerifiedTTL)
	}
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	path := writeConfig(t, `
[matching]
verify_threshold = 1.5
`)
	_, _, _, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "verify_threshold") {
		t.Fatalf("err = %v, want verify_threshold complaint", err)
	}
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	path := writeConfig(t, `
[logging]
format = "xml"
`)
	_, _, _, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("err = %v, want logging.format complaint", err)
	}
}

func TestNormalizeExpandsHomePaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.LogDir = "~/logs"
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if strings.HasPrefix(cfg.Paths.LogDir, "~") {
		t.Fatalf("log dir not expanded: %q", cfg.Paths.LogDir)
	}
	if !filepath.IsAbs(cfg.Paths.LogDir) {
		t.Fatalf("log dir not absolute: %q", cfg.Paths.LogDir)
	}
}

func TestRetryConfigConversion(t *testing.T) {
	cfg := Default()
	cfg.Retry.MaxRetries = 4
	cfg.Retry.AttemptTimeoutSeconds = 7
	rc := cfg.RetryConfig()
	if rc.MaxRetries != 4 || rc.AttemptTimeout != 7*time.Second {
		t.Fatalf("retry config = %+v", rc)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Cache.Path = filepath.Join(base, "cache", "outcomes.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, filepath.Dir(cfg.Cache.Path)} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %q missing", dir)
		}
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample file not found by Load")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config invalid: %v", err)
	}
}
