package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/lumenpms/channelsync/internal/models"
)

// Webhook event types delivered by the channel agencies.
const (
	EventNew    = "new"
	EventUpdate = "update"
	EventCancel = "cancel"
)

// ChannelEvent is one inbound delivery from an agency webhook or manual pull.
type ChannelEvent struct {
	Event       string
	AgencyID    string
	ExternalID  string
	Reservation *models.ChannelReservation
}

// IngestChannelEvent routes a channel delivery into the buffer. A new event
// with no overlap against any queued local item is promoted to the PMS
// immediately; with a potential overlap it stays in the buffer so the next
// sync pass runs it through the same conflict gate as everything else.
func (e *Engine) IngestChannelEvent(ctx context.Context, ev *ChannelEvent) (*models.ChannelReservation, error) {
	switch ev.Event {
	case EventCancel:
		return e.cancelChannelReservation(ctx, ev.AgencyID, ev.ExternalID)
	case EventNew, EventUpdate:
	default:
		return nil, &ValidationError{Field: "event", Reason: fmt.Sprintf("unknown event type %q", ev.Event)}
	}

	if ev.Reservation == nil {
		return nil, &ValidationError{Field: "data", Reason: "required"}
	}
	res := *ev.Reservation
	res.Channel = ev.AgencyID
	res.ChannelConfirmation = ev.ExternalID
	if res.ChannelConfirmation == "" {
		return nil, &ValidationError{Field: "external_id", Reason: "required"}
	}
	if res.RoomType == "" {
		return nil, &ValidationError{Field: "room_type", Reason: "required"}
	}
	if res.CheckIn.IsZero() || res.CheckOut.IsZero() || !res.CheckOut.After(res.CheckIn) {
		return nil, &ValidationError{Field: "check_out", Reason: "must be after check_in"}
	}

	e.mu.Lock()
	// A new event for a confirmation already promoted to the PMS is a
	// webhook re-delivery; acknowledging it with the promoted entry instead
	// of buffering again prevents a duplicate PMS reservation.
	if ev.Event == EventNew {
		if prior, ok := e.promoted[confirmationKey(res.Channel, res.ChannelConfirmation)]; ok {
			ack := *prior
			e.mu.Unlock()
			log.Printf("[engine] channel reservation %s/%s already promoted, ignoring re-delivery",
				res.Channel, res.ChannelConfirmation)
			return &ack, nil
		}
	}
	entry := e.buffer.receive(&res)
	promote := ev.Event == EventNew && !e.overlapsQueueLocked(entry)
	out := *entry
	e.mu.Unlock()

	e.persist(ctx)

	if !promote {
		return &out, nil
	}

	// Conflict-free delivery: materialize in the PMS right away and release
	// the buffer slot. On PMS failure the entry stays buffered; re-delivery
	// is idempotent so the agency can safely retry.
	if e.deps.PMS != nil {
		promoteCtx, cancel := context.WithTimeout(ctx, e.pushTimeout)
		defer cancel()
		if err := e.deps.PMS.CreateFromChannel(promoteCtx, &out); err != nil {
			log.Printf("[engine] PMS promotion of %s/%s failed, kept in buffer: %v",
				out.Channel, out.ChannelConfirmation, err)
			return &out, &TransportError{Err: err}
		}
	}

	e.mu.Lock()
	e.markPromotedLocked(&out)
	e.buffer.remove(out.ID)
	e.mu.Unlock()
	e.persist(ctx)

	log.Printf("[engine] channel reservation %s/%s promoted to PMS", out.Channel, out.ChannelConfirmation)
	return &out, nil
}

// overlapsQueueLocked reports whether any non-synced queue item would
// conflict with the buffer entry. Callers must hold e.mu.
func (e *Engine) overlapsQueueLocked(entry *models.ChannelReservation) bool {
	for _, item := range e.queue.items {
		if item.SyncStatus == models.SyncStatusSynced {
			continue
		}
		if DetectConflict(item, entry) != nil {
			return true
		}
	}
	return false
}

func (e *Engine) cancelChannelReservation(ctx context.Context, agencyID, externalID string) (*models.ChannelReservation, error) {
	e.mu.Lock()
	entry := e.buffer.getByConfirmation(agencyID, externalID)
	if entry == nil {
		e.mu.Unlock()
		return nil, &NotFoundError{Kind: "channel reservation", ID: agencyID + "/" + externalID}
	}
	e.buffer.markCancelled(entry.ID)
	out := *entry
	e.mu.Unlock()

	e.persist(ctx)
	log.Printf("[engine] channel reservation %s/%s cancelled", agencyID, externalID)
	return &out, nil
}
