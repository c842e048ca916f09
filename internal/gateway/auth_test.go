package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookToken_RoundTrip(t *testing.T) {
	creds := bookingCreds()

	token, err := SignWebhookToken(creds, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyWebhookToken(creds, token)

	require.NoError(t, err)
	assert.Equal(t, "booking", claims.AgencyID)
}

func TestWebhookToken_WrongSecret(t *testing.T) {
	creds := bookingCreds()
	token, err := SignWebhookToken(creds, time.Hour)
	require.NoError(t, err)

	other := bookingCreds()
	other.WebhookSecret = "different-secret"

	_, err = VerifyWebhookToken(other, token)

	assert.ErrorIs(t, err, ErrInvalidWebhookToken)
}

func TestWebhookToken_WrongAgency(t *testing.T) {
	creds := bookingCreds()
	token, err := SignWebhookToken(creds, time.Hour)
	require.NoError(t, err)

	// Same shared secret, different agency: the token subject must match.
	other := bookingCreds()
	other.AgencyID = "expedia"

	_, err = VerifyWebhookToken(other, token)

	assert.ErrorIs(t, err, ErrInvalidWebhookToken)
}

func TestWebhookToken_Expired(t *testing.T) {
	creds := bookingCreds()
	token, err := SignWebhookToken(creds, -time.Minute)
	require.NoError(t, err)

	_, err = VerifyWebhookToken(creds, token)

	assert.ErrorIs(t, err, ErrInvalidWebhookToken)
}

func TestWebhookToken_MissingSecret(t *testing.T) {
	creds := bookingCreds()
	creds.WebhookSecret = ""

	_, err := SignWebhookToken(creds, time.Hour)

	require.Error(t, err)
	var cfg *ConfigurationError
	assert.ErrorAs(t, err, &cfg)
}

func TestWebhookToken_Garbage(t *testing.T) {
	_, err := VerifyWebhookToken(bookingCreds(), "not-a-jwt")

	assert.ErrorIs(t, err, ErrInvalidWebhookToken)
}
