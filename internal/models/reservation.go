package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus tracks where a locally created reservation sits in the sync lifecycle.
type SyncStatus string

const (
	SyncStatusPending  SyncStatus = "pending"
	SyncStatusSyncing  SyncStatus = "syncing"
	SyncStatusSynced   SyncStatus = "synced"
	SyncStatusConflict SyncStatus = "conflict"
	SyncStatusError    SyncStatus = "error"
)

// OfflineReservationRequest is a reservation taken at the front desk while the
// property had no connectivity. It waits in the offline queue until a sync pass
// pushes it to the booking channels.
type OfflineReservationRequest struct {
	ID                 uuid.UUID  `json:"id"`
	ConfirmationNumber string     `json:"confirmation_number"`
	GuestName          string     `json:"guest_name"`
	GuestEmail         string     `json:"guest_email,omitempty"`
	GuestPhone         string     `json:"guest_phone,omitempty"`
	RoomType           string     `json:"room_type"`
	RoomNumber         string     `json:"room_number,omitempty"`
	CheckIn            time.Time  `json:"check_in"`
	CheckOut           time.Time  `json:"check_out"`
	Nights             int        `json:"nights"`
	Adults             int        `json:"adults"`
	Children           int        `json:"children"`
	RatePerNight       float64    `json:"rate_per_night"`
	TotalAmount        float64    `json:"total_amount"`
	Channel            string     `json:"channel"`
	SyncStatus         SyncStatus `json:"sync_status"`
	ConflictID         *uuid.UUID `json:"conflict_id,omitempty"`
	ErrorMessage       string     `json:"error_message,omitempty"`
	SyncAttempts       int        `json:"sync_attempts"`
	CreatedAt          time.Time  `json:"created_at"`
	SyncedAt           *time.Time `json:"synced_at,omitempty"`
}
