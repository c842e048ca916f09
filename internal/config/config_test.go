package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ADMIN_API_KEY_HASH", "$2a$12$abcdefghijklmnopqrstuv")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "default", cfg.PropertyID)
	assert.Empty(t, cfg.DatabaseURL, "storage is optional; the engine runs in-memory without it")
	assert.Equal(t, 10*time.Second, cfg.PushTimeout)
	assert.Equal(t, 2*time.Second, cfg.SyncDebounce)
	assert.Equal(t, 30*time.Second, cfg.ProbeInterval)
	assert.Zero(t, cfg.MaxSyncAttempts)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PROPERTY_ID", "seaside-inn")
	t.Setenv("PUSH_TIMEOUT", "5s")
	t.Setenv("SYNC_DEBOUNCE", "500ms")
	t.Setenv("MAX_SYNC_ATTEMPTS", "3")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "seaside-inn", cfg.PropertyID)
	assert.Equal(t, 5*time.Second, cfg.PushTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.SyncDebounce)
	assert.Equal(t, 3, cfg.MaxSyncAttempts)
}

func TestLoadConfig_MissingAdminKeyHash(t *testing.T) {
	t.Setenv("ADMIN_API_KEY_HASH", "")

	_, err := LoadConfig()

	assert.Error(t, err)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad push timeout", "PUSH_TIMEOUT", "ten seconds"},
		{"bad debounce", "SYNC_DEBOUNCE", "nope"},
		{"bad probe interval", "PROBE_INTERVAL", "x"},
		{"bad max attempts", "MAX_SYNC_ATTEMPTS", "many"},
		{"negative max attempts", "MAX_SYNC_ATTEMPTS", "-1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.value)

			_, err := LoadConfig()

			assert.Error(t, err)
		})
	}
}
