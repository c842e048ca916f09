package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lumenpms/channelsync/internal/models"
)

// ReservationInput is the intake payload for a reservation created at the
// front desk while the property is offline.
type ReservationInput struct {
	GuestName    string    `json:"guest_name"`
	GuestEmail   string    `json:"guest_email"`
	GuestPhone   string    `json:"guest_phone"`
	RoomType     string    `json:"room_type"`
	CheckIn      time.Time `json:"check_in"`
	CheckOut     time.Time `json:"check_out"`
	Nights       int       `json:"nights"`
	Adults       int       `json:"adults"`
	Children     int       `json:"children"`
	RatePerNight float64   `json:"rate_per_night"`
	Channel      string    `json:"channel"`
}

func (in *ReservationInput) validate() error {
	if strings.TrimSpace(in.GuestName) == "" {
		return &ValidationError{Field: "guest_name", Reason: "required"}
	}
	if strings.TrimSpace(in.RoomType) == "" {
		return &ValidationError{Field: "room_type", Reason: "required"}
	}
	if in.CheckIn.IsZero() {
		return &ValidationError{Field: "check_in", Reason: "required"}
	}
	if in.CheckOut.IsZero() {
		return &ValidationError{Field: "check_out", Reason: "required"}
	}
	if !in.CheckOut.After(in.CheckIn) {
		return &ValidationError{Field: "check_out", Reason: "must be after check_in"}
	}
	if in.nights() <= 0 {
		return &ValidationError{Field: "nights", Reason: "must be positive"}
	}
	if in.Adults < 1 {
		return &ValidationError{Field: "adults", Reason: "must be at least 1"}
	}
	return nil
}

func (in *ReservationInput) nights() int {
	if in.Nights > 0 {
		return in.Nights
	}
	return int(in.CheckOut.Sub(in.CheckIn).Hours() / 24)
}

// reservationQueue holds offline reservations in insertion order. All access
// is serialized by the owning engine's lock.
type reservationQueue struct {
	items []*models.OfflineReservationRequest
	byID  map[uuid.UUID]*models.OfflineReservationRequest
}

func newReservationQueue() *reservationQueue {
	return &reservationQueue{
		byID: make(map[uuid.UUID]*models.OfflineReservationRequest),
	}
}

func (q *reservationQueue) add(in *ReservationInput) (*models.OfflineReservationRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	nights := in.nights()
	total := in.RatePerNight * float64(nights)
	id := uuid.New()

	channel := in.Channel
	if channel == "" {
		channel = "direct"
	}

	item := &models.OfflineReservationRequest{
		ID:                 id,
		ConfirmationNumber: confirmationNumber(id),
		GuestName:          in.GuestName,
		GuestEmail:         in.GuestEmail,
		GuestPhone:         in.GuestPhone,
		RoomType:           in.RoomType,
		CheckIn:            in.CheckIn,
		CheckOut:           in.CheckOut,
		Nights:             nights,
		Adults:             in.Adults,
		Children:           in.Children,
		RatePerNight:       in.RatePerNight,
		TotalAmount:        total,
		Channel:            channel,
		SyncStatus:         models.SyncStatusPending,
		CreatedAt:          time.Now().UTC(),
	}

	q.items = append(q.items, item)
	q.byID[item.ID] = item
	return item, nil
}

// remove discards a queue item. Only pending and error items may be removed;
// synced and conflict-holding items cannot be silently discarded.
func (q *reservationQueue) remove(id uuid.UUID) error {
	item, ok := q.byID[id]
	if !ok {
		return &NotFoundError{Kind: "reservation", ID: id.String()}
	}
	if item.SyncStatus != models.SyncStatusPending && item.SyncStatus != models.SyncStatusError {
		return &ConflictError{Reason: fmt.Sprintf("reservation %s is %s and cannot be removed", id, item.SyncStatus)}
	}
	q.drop(id)
	return nil
}

func (q *reservationQueue) drop(id uuid.UUID) {
	delete(q.byID, id)
	for i, item := range q.items {
		if item.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// clearSynced removes all synced items and returns how many were dropped.
// Everything else is left untouched.
func (q *reservationQueue) clearSynced() int {
	kept := q.items[:0]
	removed := 0
	for _, item := range q.items {
		if item.SyncStatus == models.SyncStatusSynced {
			delete(q.byID, item.ID)
			removed++
			continue
		}
		kept = append(kept, item)
	}
	q.items = kept
	return removed
}

func (q *reservationQueue) get(id uuid.UUID) *models.OfflineReservationRequest {
	return q.byID[id]
}

func (q *reservationQueue) pendingCount() int {
	return q.countByStatus(models.SyncStatusPending) + q.countByStatus(models.SyncStatusError)
}

func (q *reservationQueue) conflictCount() int {
	return q.countByStatus(models.SyncStatusConflict)
}

func (q *reservationQueue) countByStatus(status models.SyncStatus) int {
	n := 0
	for _, item := range q.items {
		if item.SyncStatus == status {
			n++
		}
	}
	return n
}

// list returns copies in insertion order.
func (q *reservationQueue) list() []*models.OfflineReservationRequest {
	out := make([]*models.OfflineReservationRequest, 0, len(q.items))
	for _, item := range q.items {
		copy := *item
		out = append(out, &copy)
	}
	return out
}

// eligible returns the items a sync pass should process, in insertion
// (createdAt) order: pending items plus errored items awaiting retry.
func (q *reservationQueue) eligible() []*models.OfflineReservationRequest {
	var out []*models.OfflineReservationRequest
	for _, item := range q.items {
		if item.SyncStatus == models.SyncStatusPending || item.SyncStatus == models.SyncStatusError {
			out = append(out, item)
		}
	}
	return out
}

func (q *reservationQueue) restore(items []*models.OfflineReservationRequest) {
	q.items = nil
	q.byID = make(map[uuid.UUID]*models.OfflineReservationRequest, len(items))
	for _, item := range items {
		copy := *item
		// A pass interrupted by a crash leaves items stuck in syncing.
		if copy.SyncStatus == models.SyncStatusSyncing {
			copy.SyncStatus = models.SyncStatusPending
		}
		q.items = append(q.items, &copy)
		q.byID[copy.ID] = &copy
	}
}

func confirmationNumber(id uuid.UUID) string {
	return "LCL-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}
