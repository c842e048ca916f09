package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAPIKey_RoundTrip(t *testing.T) {
	key := "super-secret-admin-key"

	hash, err := HashAPIKey(key)

	require.NoError(t, err)
	assert.NotEqual(t, key, hash)
	assert.True(t, CheckAPIKey(hash, key))
	assert.False(t, CheckAPIKey(hash, "wrong-key-wrong-key"))
}

func TestHashAPIKey_TooShort(t *testing.T) {
	_, err := HashAPIKey("short")

	assert.Error(t, err)
}

func TestCheckAPIKey_MalformedHash(t *testing.T) {
	assert.False(t, CheckAPIKey("not-a-bcrypt-hash", "super-secret-admin-key"))
}
