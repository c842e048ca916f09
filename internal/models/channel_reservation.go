package models

import (
	"time"

	"github.com/google/uuid"
)

// ChannelReservation is a reservation pushed in by an OTA channel while the
// property was offline. It stays in the buffer until reconciliation promotes
// it to the PMS, discards it, or a human resolves a conflict against it.
type ChannelReservation struct {
	ID                  uuid.UUID `json:"id"`
	Channel             string    `json:"channel"`
	ChannelConfirmation string    `json:"channel_confirmation"`
	GuestName           string    `json:"guest_name"`
	GuestEmail          string    `json:"guest_email,omitempty"`
	RoomType            string    `json:"room_type"`
	CheckIn             time.Time `json:"check_in"`
	CheckOut            time.Time `json:"check_out"`
	Nights              int       `json:"nights"`
	TotalAmount         float64   `json:"total_amount"`
	Cancelled           bool      `json:"cancelled,omitempty"`
	ReceivedAt          time.Time `json:"received_at"`
}
