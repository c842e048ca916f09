package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/lumenpms/channelsync/internal/models"
)

// channelBuffer stages reservations received from OTA channels until
// reconciliation promotes or discards them. Receive is idempotent on the
// channel confirmation number: a re-delivered webhook updates in place.
type channelBuffer struct {
	entries        []*models.ChannelReservation
	byID           map[uuid.UUID]*models.ChannelReservation
	byConfirmation map[string]*models.ChannelReservation
}

func newChannelBuffer() *channelBuffer {
	return &channelBuffer{
		byID:           make(map[uuid.UUID]*models.ChannelReservation),
		byConfirmation: make(map[string]*models.ChannelReservation),
	}
}

func (b *channelBuffer) receive(res *models.ChannelReservation) *models.ChannelReservation {
	if existing, ok := b.byConfirmation[confirmationKey(res.Channel, res.ChannelConfirmation)]; ok {
		existing.GuestName = res.GuestName
		existing.GuestEmail = res.GuestEmail
		existing.RoomType = res.RoomType
		existing.CheckIn = res.CheckIn
		existing.CheckOut = res.CheckOut
		existing.Nights = res.Nights
		existing.TotalAmount = res.TotalAmount
		existing.ReceivedAt = time.Now().UTC()
		return existing
	}

	entry := *res
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.ReceivedAt = time.Now().UTC()

	b.entries = append(b.entries, &entry)
	b.byID[entry.ID] = &entry
	b.byConfirmation[confirmationKey(entry.Channel, entry.ChannelConfirmation)] = &entry
	return &entry
}

func (b *channelBuffer) get(id uuid.UUID) *models.ChannelReservation {
	return b.byID[id]
}

func (b *channelBuffer) getByConfirmation(channel, confirmation string) *models.ChannelReservation {
	return b.byConfirmation[confirmationKey(channel, confirmation)]
}

func (b *channelBuffer) remove(id uuid.UUID) {
	entry, ok := b.byID[id]
	if !ok {
		return
	}
	delete(b.byID, id)
	delete(b.byConfirmation, confirmationKey(entry.Channel, entry.ChannelConfirmation))
	for i, e := range b.entries {
		if e.ID == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return
		}
	}
}

func (b *channelBuffer) markCancelled(id uuid.UUID) bool {
	entry, ok := b.byID[id]
	if !ok {
		return false
	}
	entry.Cancelled = true
	return true
}

// active returns non-cancelled entries of the given room type, the set a
// queue item must clear conflict detection against before it may push.
func (b *channelBuffer) active(roomType string) []*models.ChannelReservation {
	var out []*models.ChannelReservation
	for _, e := range b.entries {
		if e.Cancelled || e.RoomType != roomType {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (b *channelBuffer) list() []*models.ChannelReservation {
	out := make([]*models.ChannelReservation, 0, len(b.entries))
	for _, e := range b.entries {
		copy := *e
		out = append(out, &copy)
	}
	return out
}

func (b *channelBuffer) size() int {
	return len(b.entries)
}

func (b *channelBuffer) restore(entries []*models.ChannelReservation) {
	b.entries = nil
	b.byID = make(map[uuid.UUID]*models.ChannelReservation, len(entries))
	b.byConfirmation = make(map[string]*models.ChannelReservation, len(entries))
	for _, e := range entries {
		copy := *e
		b.entries = append(b.entries, &copy)
		b.byID[copy.ID] = &copy
		b.byConfirmation[confirmationKey(copy.Channel, copy.ChannelConfirmation)] = &copy
	}
}

func confirmationKey(channel, confirmation string) string {
	return channel + ":" + confirmation
}
