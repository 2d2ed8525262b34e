package config

import (
	"testing"
	"time"
)

func TestLoadRequiresBaseURL(t *testing.T) {
	t.Setenv("DUEL_API_BASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without DUEL_API_BASE_URL")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DUEL_API_BASE_URL", "https://duels.example.com/api/match")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPTimeout != 20*time.Second {
		t.Fatalf("default timeout = %v", cfg.HTTPTimeout)
	}
	if cfg.TickInterval != 600*time.Millisecond {
		t.Fatalf("default tick = %v", cfg.TickInterval)
	}
	if cfg.BindAddr != "" || cfg.HistoryDSN != "" {
		t.Fatalf("bridge/history should default to disabled")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DUEL_API_BASE_URL", "https://duels.example.com/api/match")
	t.Setenv("DUEL_HTTP_TIMEOUT_SECONDS", "5")
	t.Setenv("DUEL_TICK_MS", "300")
	t.Setenv("DUEL_RSN", "Zezima")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPTimeout != 5*time.Second || cfg.TickInterval != 300*time.Millisecond {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.RSN != "Zezima" {
		t.Fatalf("RSN = %q", cfg.RSN)
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("DUEL_API_BASE_URL", "https://duels.example.com/api/match")
	t.Setenv("DUEL_TICK_MS", "fast")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-numeric DUEL_TICK_MS")
	}
}
