package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Scoring.GoScore != 70 {
		t.Errorf("Expected GoScore to be 70, got %v", cfg.Scoring.GoScore)
	}
	if cfg.Scoring.ReviewScore != 40 {
		t.Errorf("Expected ReviewScore to be 40, got %v", cfg.Scoring.ReviewScore)
	}
	if cfg.Scan.Interval != 6*time.Hour {
		t.Errorf("Expected SCAN_INTERVAL to be 6h, got %v", cfg.Scan.Interval)
	}
	if cfg.Scan.EnrichParallelism != 8 {
		t.Errorf("Expected ENRICH_PARALLELISM to be 8, got %d", cfg.Scan.EnrichParallelism)
	}
	if cfg.Scan.MaxAlertsPerCycle != 5 {
		t.Errorf("Expected MAX_ALERTS_PER_CYCLE to be 5, got %d", cfg.Scan.MaxAlertsPerCycle)
	}
	if cfg.Fetcher.MaxRetries != 5 || cfg.Fetcher.BackoffBase != 1.5 || cfg.Fetcher.RequestTimeout != 15*time.Second {
		t.Errorf("Unexpected fetcher defaults: %+v", cfg.Fetcher)
	}
	if cfg.DBPath != "./quantum.db" {
		t.Errorf("Expected DB_PATH ./quantum.db, got %s", cfg.DBPath)
	}
	if cfg.Notifier.Interval != time.Second {
		t.Errorf("Expected NOTIFY_INTERVAL 1s, got %v", cfg.Notifier.Interval)
	}
	if len(cfg.Fetcher.UserAgents) != len(DefaultUserAgents) {
		t.Errorf("Expected default UA pool, got %d entries", len(cfg.Fetcher.UserAgents))
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("GO_SCORE", "75")
	t.Setenv("REVIEW_SCORE", "45")
	t.Setenv("SCAN_INTERVAL", "30m")
	t.Setenv("ENRICH_PARALLELISM", "3")
	t.Setenv("DEX_CHAINS", "ethereum, base ,")
	t.Setenv("USER_AGENTS", "ua-one|ua-two")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}
	if cfg.Scoring.GoScore != 75 || cfg.Scoring.ReviewScore != 45 {
		t.Errorf("Unexpected scoring: %+v", cfg.Scoring)
	}
	if cfg.Scan.Interval != 30*time.Minute {
		t.Errorf("Expected 30m interval, got %v", cfg.Scan.Interval)
	}
	if cfg.Scan.EnrichParallelism != 3 {
		t.Errorf("Expected parallelism 3, got %d", cfg.Scan.EnrichParallelism)
	}
	if len(cfg.Sources.DexChains) != 2 || cfg.Sources.DexChains[1] != "base" {
		t.Errorf("Unexpected chains: %v", cfg.Sources.DexChains)
	}
	if len(cfg.Fetcher.UserAgents) != 2 {
		t.Errorf("Unexpected user agents: %v", cfg.Fetcher.UserAgents)
	}
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	t.Setenv("GO_SCORE", "30")
	t.Setenv("REVIEW_SCORE", "60")

	if _, err := Load(); err == nil {
		t.Error("Expected error when REVIEW_SCORE exceeds GO_SCORE, got nil")
	}
}

func TestValidateRejectsZeroParallelism(t *testing.T) {
	t.Setenv("ENRICH_PARALLELISM", "0")

	if _, err := Load(); err == nil {
		t.Error("Expected error for ENRICH_PARALLELISM=0, got nil")
	}
}

func TestValidateMaxRetries(t *testing.T) {
	t.Setenv("MAX_RETRIES", "0")
	if _, err := Load(); err != nil {
		t.Errorf("Expected MAX_RETRIES=0 (single attempt) to be valid, got %v", err)
	}

	t.Setenv("MAX_RETRIES", "-1")
	if _, err := Load(); err == nil {
		t.Error("Expected error for MAX_RETRIES=-1, got nil")
	}
}
