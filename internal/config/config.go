package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerPort      string
	PropertyID      string
	DatabaseURL     string
	RedisURL        string
	AdminAPIKeyHash string
	PushTimeout     time.Duration
	SyncDebounce    time.Duration
	ProbeInterval   time.Duration
	MaxSyncAttempts int
	ConnectivityURL string
}

func LoadConfig() (*Config, error) {
	pushTimeout, err := time.ParseDuration(getEnv("PUSH_TIMEOUT", "10s"))
	if err != nil {
		return nil, errors.New("invalid PUSH_TIMEOUT format")
	}
	debounce, err := time.ParseDuration(getEnv("SYNC_DEBOUNCE", "2s"))
	if err != nil {
		return nil, errors.New("invalid SYNC_DEBOUNCE format")
	}
	probeInterval, err := time.ParseDuration(getEnv("PROBE_INTERVAL", "30s"))
	if err != nil {
		return nil, errors.New("invalid PROBE_INTERVAL format")
	}
	maxAttempts, err := strconv.Atoi(getEnv("MAX_SYNC_ATTEMPTS", "0"))
	if err != nil || maxAttempts < 0 {
		return nil, errors.New("invalid MAX_SYNC_ATTEMPTS format")
	}

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		PropertyID:      getEnv("PROPERTY_ID", "default"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		AdminAPIKeyHash: os.Getenv("ADMIN_API_KEY_HASH"),
		PushTimeout:     pushTimeout,
		SyncDebounce:    debounce,
		ProbeInterval:   probeInterval,
		MaxSyncAttempts: maxAttempts,
		ConnectivityURL: getEnv("CONNECTIVITY_URL", "https://clients3.google.com/generate_204"),
	}

	// Validate required fields. DATABASE_URL and REDIS_URL are optional by
	// design: without them the engine runs in-memory for the session.
	if cfg.AdminAPIKeyHash == "" {
		return nil, errors.New("ADMIN_API_KEY_HASH is required")
	}

	return cfg, nil
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
