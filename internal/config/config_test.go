package config

import (
	"geo-jigsaw/internal/domain"
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.ServerPort != "8080" || cfg.DBPath != "geojigsaw.db" || cfg.LogLevel != "info" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.DefaultDifficulty != domain.DifficultyEasy {
		t.Errorf("DefaultDifficulty = %s, want easy", cfg.DefaultDifficulty)
	}
	if cfg.PuzzleTimeLimit != 10*time.Minute || cfg.SessionIdleTTL != 30*time.Minute {
		t.Errorf("durations = %v / %v", cfg.PuzzleTimeLimit, cfg.SessionIdleTTL)
	}
	if cfg.MaxHints != 3 || cfg.CatalogTimeout != 5*time.Second || cfg.CatalogBaseURL != "" {
		t.Errorf("catalog/hints = %+v", cfg)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("DEFAULT_DIFFICULTY", "Very Hard")
	t.Setenv("PUZZLE_TIME_LIMIT", "0s")
	t.Setenv("CATALOG_BASE_URL", "http://catalog.local")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.DefaultDifficulty != domain.DifficultyVeryHard {
		t.Errorf("DefaultDifficulty = %s", cfg.DefaultDifficulty)
	}
	if cfg.PuzzleTimeLimit != 0 {
		t.Errorf("PuzzleTimeLimit = %v, want disabled", cfg.PuzzleTimeLimit)
	}
	if cfg.CatalogBaseURL != "http://catalog.local" {
		t.Errorf("CatalogBaseURL = %q", cfg.CatalogBaseURL)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DEFAULT_DIFFICULTY", "impossible"},
		{"DEFAULT_DIFFICULTY", "unset"},
		{"MAX_HINTS", "many"},
		{"MAX_HINTS", "-1"},
		{"SESSION_IDLE_TTL", "0s"},
		{"PUZZLE_TIME_LIMIT", "-1m"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Parse(); err == nil {
				t.Fatal("expected error")
			} else if tt.value == "many" && !strings.Contains(err.Error(), "parse env:") {
				t.Errorf("expected parse env prefix, got %v", err)
			}
		})
	}
}
