package models

import "time"

// ConnectivityStatus is the property's last observed network state, kept with
// a TTL so a silent crash reads as offline.
type ConnectivityStatus struct {
	PropertyID string    `json:"property_id"`
	Online     bool      `json:"online"`
	LastSeen   time.Time `json:"last_seen"`
}

// GatewayHealth is the last testConnection outcome for one agency.
type GatewayHealth struct {
	PropertyID string    `json:"property_id"`
	AgencyID   string    `json:"agency_id"`
	OK         bool      `json:"ok"`
	LatencyMS  int64     `json:"latency_ms"`
	Message    string    `json:"message,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}
