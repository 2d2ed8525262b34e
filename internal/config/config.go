package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the daemon needs to run.
type Config struct {
	// APIBaseURL is the matchmaking service root, e.g.
	// https://duels.example.com/api/match.
	APIBaseURL string
	// VerificationCode and RSN identify the local player to the service.
	VerificationCode string
	RSN              string

	HTTPTimeout  time.Duration
	TickInterval time.Duration

	// BindAddr is the presentation bridge listen address; empty disables
	// the bridge.
	BindAddr string
	// HistoryDSN is the postgres DSN for match history; empty disables
	// recording.
	HistoryDSN string
}

// Load reads configuration from a .env file (if present) and the
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	timeout, err := getDuration("DUEL_HTTP_TIMEOUT_SECONDS", 20*time.Second)
	if err != nil {
		return nil, err
	}
	tick, err := getDurationMS("DUEL_TICK_MS", 600*time.Millisecond)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIBaseURL:       getEnv("DUEL_API_BASE_URL", ""),
		VerificationCode: getEnv("DUEL_VERIFICATION_CODE", ""),
		RSN:              getEnv("DUEL_RSN", ""),
		HTTPTimeout:      timeout,
		TickInterval:     tick,
		BindAddr:         getEnv("DUEL_BIND_ADDR", ""),
		HistoryDSN:       getEnv("DUEL_HISTORY_DSN", ""),
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("DUEL_API_BASE_URL is required")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return time.Duration(secs) * time.Second, nil
}

func getDurationMS(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
