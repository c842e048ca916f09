// Package gateway holds the per-agency channel gateway adapters: credential
// schemas, the outbound push transport and webhook authentication.
package gateway

import (
	"fmt"
)

// ConfigurationError reports missing or invalid per-agency credentials. It is
// surfaced at configuration and testConnection time, never during a sync pass.
type ConfigurationError struct {
	AgencyID string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("agency %s misconfigured: %s", e.AgencyID, e.Reason)
}

// AgencyKind selects the credential schema an agency uses.
type AgencyKind string

const (
	KindBooking AgencyKind = "booking"
	KindExpedia AgencyKind = "expedia"
	KindAirbnb  AgencyKind = "airbnb"
)

// BookingCredentials authenticate against the Booking.com connectivity API.
type BookingCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	HotelID  string `json:"hotel_id"`
}

// ExpediaCredentials authenticate against the Expedia EPS API.
type ExpediaCredentials struct {
	APIKey       string `json:"api_key"`
	SharedSecret string `json:"shared_secret"`
	PropertyID   string `json:"property_id"`
}

// AirbnbCredentials authenticate against the Airbnb partner API.
type AirbnbCredentials struct {
	AccessToken string `json:"access_token"`
	ListingID   string `json:"listing_id"`
}

// AgencyCredentials is a tagged variant: exactly the field matching Kind is
// set, and each schema validates its own required fields at configuration
// time instead of threading an untyped map through the sync code.
type AgencyCredentials struct {
	AgencyID      string              `json:"agency_id"`
	Kind          AgencyKind          `json:"kind"`
	Endpoint      string              `json:"endpoint"`
	WebhookSecret string              `json:"webhook_secret"`
	Booking       *BookingCredentials `json:"booking,omitempty"`
	Expedia       *ExpediaCredentials `json:"expedia,omitempty"`
	Airbnb        *AirbnbCredentials  `json:"airbnb,omitempty"`
}

func (c *AgencyCredentials) Validate() error {
	if c.AgencyID == "" {
		return &ConfigurationError{AgencyID: "?", Reason: "agency_id is required"}
	}
	if c.Endpoint == "" {
		return &ConfigurationError{AgencyID: c.AgencyID, Reason: "endpoint is required"}
	}
	switch c.Kind {
	case KindBooking:
		if c.Booking == nil || c.Booking.Username == "" || c.Booking.Password == "" || c.Booking.HotelID == "" {
			return &ConfigurationError{AgencyID: c.AgencyID, Reason: "booking credentials require username, password and hotel_id"}
		}
	case KindExpedia:
		if c.Expedia == nil || c.Expedia.APIKey == "" || c.Expedia.SharedSecret == "" || c.Expedia.PropertyID == "" {
			return &ConfigurationError{AgencyID: c.AgencyID, Reason: "expedia credentials require api_key, shared_secret and property_id"}
		}
	case KindAirbnb:
		if c.Airbnb == nil || c.Airbnb.AccessToken == "" || c.Airbnb.ListingID == "" {
			return &ConfigurationError{AgencyID: c.AgencyID, Reason: "airbnb credentials require access_token and listing_id"}
		}
	default:
		return &ConfigurationError{AgencyID: c.AgencyID, Reason: fmt.Sprintf("unknown agency kind %q", c.Kind)}
	}
	return nil
}
