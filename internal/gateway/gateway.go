package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lumenpms/channelsync/internal/models"
)

// TestResult reports the outcome of a credential/connectivity check.
type TestResult struct {
	OK        bool          `json:"ok"`
	LatencyMS int64         `json:"latency_ms"`
	Message   string        `json:"message"`
	Latency   time.Duration `json:"-"`
}

// RateUpdate pushes nightly rates and remaining availability for a room type.
type RateUpdate struct {
	RoomType     string    `json:"room_type"`
	Date         time.Time `json:"date"`
	RatePerNight float64   `json:"rate_per_night"`
	Available    int       `json:"available"`
}

// Adapter is one agency's gateway. Payload shaping and authentication are the
// adapter's business; callers only see success or failure within their own
// timeout.
type Adapter interface {
	Push(ctx context.Context, res *models.OfflineReservationRequest) error
	TestConnection(ctx context.Context) (*TestResult, error)
	PushRatesAndAvailability(ctx context.Context, updates []RateUpdate) error
}

// HTTPAdapter talks JSON over HTTP to an agency endpoint using the validated
// credentials. It covers the common shape; agencies with bespoke protocols
// get their own Adapter implementation.
type HTTPAdapter struct {
	creds  *AgencyCredentials
	client *http.Client
}

func NewHTTPAdapter(creds *AgencyCredentials, client *http.Client) (*HTTPAdapter, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPAdapter{creds: creds, client: client}, nil
}

func (a *HTTPAdapter) Push(ctx context.Context, res *models.OfflineReservationRequest) error {
	return a.post(ctx, "/reservations", res)
}

func (a *HTTPAdapter) TestConnection(ctx context.Context) (*TestResult, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.creds.Endpoint+"/ping", nil)
	if err != nil {
		return nil, err
	}
	a.authorize(req)

	resp, err := a.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return &TestResult{OK: false, Latency: latency, LatencyMS: latency.Milliseconds(), Message: err.Error()}, nil
	}
	defer resp.Body.Close()

	result := &TestResult{
		OK:        resp.StatusCode >= 200 && resp.StatusCode < 300,
		Latency:   latency,
		LatencyMS: latency.Milliseconds(),
		Message:   resp.Status,
	}
	return result, nil
}

func (a *HTTPAdapter) PushRatesAndAvailability(ctx context.Context, updates []RateUpdate) error {
	return a.post(ctx, "/rates", updates)
}

func (a *HTTPAdapter) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.creds.Endpoint+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	a.authorize(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("agency %s returned %s", a.creds.AgencyID, resp.Status)
	}
	return nil
}

func (a *HTTPAdapter) authorize(req *http.Request) {
	switch a.creds.Kind {
	case KindBooking:
		req.SetBasicAuth(a.creds.Booking.Username, a.creds.Booking.Password)
	case KindExpedia:
		req.Header.Set("X-API-Key", a.creds.Expedia.APIKey)
		req.Header.Set("X-Shared-Secret", a.creds.Expedia.SharedSecret)
	case KindAirbnb:
		req.Header.Set("Authorization", "Bearer "+a.creds.Airbnb.AccessToken)
	}
}

// Registry fans a push out to the adapter matching the reservation's target
// agencies. With no per-item routing information every registered adapter
// receives the push, which is how availability is kept consistent across
// channels.
type Registry struct {
	adapters map[string]Adapter
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

func (r *Registry) Register(agencyID string, adapter Adapter) {
	if _, ok := r.adapters[agencyID]; !ok {
		r.order = append(r.order, agencyID)
	}
	r.adapters[agencyID] = adapter
}

func (r *Registry) Get(agencyID string) (Adapter, error) {
	adapter, ok := r.adapters[agencyID]
	if !ok {
		return nil, &ConfigurationError{AgencyID: agencyID, Reason: "no adapter registered"}
	}
	return adapter, nil
}

// Push implements the engine's Gateway collaborator: the reservation is
// pushed to every registered agency, and the first failure aborts so the
// engine can retry the item on a later pass.
func (r *Registry) Push(ctx context.Context, res *models.OfflineReservationRequest) error {
	for _, agencyID := range r.order {
		if err := r.adapters[agencyID].Push(ctx, res); err != nil {
			return fmt.Errorf("push to %s failed: %w", agencyID, err)
		}
	}
	return nil
}
