package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lumenpms/channelsync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReservation() *models.OfflineReservationRequest {
	return &models.OfflineReservationRequest{
		ID:                 uuid.New(),
		ConfirmationNumber: "LCL-ABCD1234",
		GuestName:          "Ada Guest",
		RoomType:           "standard",
		CheckIn:            time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:           time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Nights:             2,
		SyncStatus:         models.SyncStatusPending,
	}
}

func TestHTTPAdapterPush_SendsAuthorizedJSON(t *testing.T) {
	var gotPath, gotUser, gotPass string
	var gotBody models.OfflineReservationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	creds := bookingCreds()
	creds.Endpoint = server.URL
	adapter, err := NewHTTPAdapter(creds, server.Client())
	require.NoError(t, err)

	res := testReservation()
	err = adapter.Push(context.Background(), res)

	require.NoError(t, err)
	assert.Equal(t, "/reservations", gotPath)
	assert.Equal(t, "hotel", gotUser)
	assert.Equal(t, "pw", gotPass)
	assert.Equal(t, res.ConfirmationNumber, gotBody.ConfirmationNumber)
}

func TestHTTPAdapterPush_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	creds := bookingCreds()
	creds.Endpoint = server.URL
	adapter, err := NewHTTPAdapter(creds, server.Client())
	require.NoError(t, err)

	err = adapter.Push(context.Background(), testReservation())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPAdapter_AirbnbBearerAuth(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter, err := NewHTTPAdapter(&AgencyCredentials{
		AgencyID: "airbnb",
		Kind:     KindAirbnb,
		Endpoint: server.URL,
		Airbnb:   &AirbnbCredentials{AccessToken: "token-123", ListingID: "L-9"},
	}, server.Client())
	require.NoError(t, err)

	require.NoError(t, adapter.Push(context.Background(), testReservation()))
	assert.Equal(t, "Bearer token-123", gotAuth)
}

func TestHTTPAdapterTestConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ping", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	creds := bookingCreds()
	creds.Endpoint = server.URL
	adapter, err := NewHTTPAdapter(creds, server.Client())
	require.NoError(t, err)

	result, err := adapter.TestConnection(context.Background())

	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.GreaterOrEqual(t, result.LatencyMS, int64(0))
}

func TestHTTPAdapterTestConnection_Unreachable(t *testing.T) {
	creds := bookingCreds()
	creds.Endpoint = "http://127.0.0.1:1"
	adapter, err := NewHTTPAdapter(creds, nil)
	require.NoError(t, err)

	result, err := adapter.TestConnection(context.Background())

	require.NoError(t, err, "an unreachable agency is a result, not an error")
	assert.False(t, result.OK)
	assert.NotEmpty(t, result.Message)
}

func TestHTTPAdapterPushRates(t *testing.T) {
	var got []RateUpdate
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rates", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	creds := bookingCreds()
	creds.Endpoint = server.URL
	adapter, err := NewHTTPAdapter(creds, server.Client())
	require.NoError(t, err)

	updates := []RateUpdate{{RoomType: "standard", RatePerNight: 120, Available: 3}}
	require.NoError(t, adapter.PushRatesAndAvailability(context.Background(), updates))
	require.Len(t, got, 1)
	assert.Equal(t, "standard", got[0].RoomType)
}

func TestNewHTTPAdapter_InvalidCredentials(t *testing.T) {
	creds := bookingCreds()
	creds.Booking = nil

	_, err := NewHTTPAdapter(creds, nil)

	require.Error(t, err)
	var cfg *ConfigurationError
	assert.ErrorAs(t, err, &cfg)
}

type recordingAdapter struct {
	pushed []string
	err    error
}

func (a *recordingAdapter) Push(ctx context.Context, res *models.OfflineReservationRequest) error {
	if a.err != nil {
		return a.err
	}
	a.pushed = append(a.pushed, res.ConfirmationNumber)
	return nil
}

func (a *recordingAdapter) TestConnection(ctx context.Context) (*TestResult, error) {
	return &TestResult{OK: a.err == nil}, nil
}

func (a *recordingAdapter) PushRatesAndAvailability(ctx context.Context, updates []RateUpdate) error {
	return a.err
}

func TestRegistryPush_FansOutInRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	first := &recordingAdapter{}
	second := &recordingAdapter{}
	r.Register("booking", first)
	r.Register("expedia", second)

	err := r.Push(context.Background(), testReservation())

	require.NoError(t, err)
	assert.Len(t, first.pushed, 1)
	assert.Len(t, second.pushed, 1)
}

func TestRegistryPush_FirstFailureAborts(t *testing.T) {
	r := NewRegistry()
	failing := &recordingAdapter{err: errors.New("channel 503")}
	last := &recordingAdapter{}
	r.Register("booking", failing)
	r.Register("expedia", last)

	err := r.Push(context.Background(), testReservation())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "booking")
	assert.Empty(t, last.pushed, "the pass retries the whole item later")
}

func TestRegistryGet_Unknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("ghost")

	require.Error(t, err)
	var cfg *ConfigurationError
	assert.ErrorAs(t, err, &cfg)
}
