package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lumenpms/channelsync/internal/models"
)

// DetectConflict compares one offline queue item against one channel buffer
// entry. The two conflict iff the room type matches and the date ranges
// overlap (checkIn < other.checkOut on both sides). It is a pure function:
// the returned conflict is not registered anywhere.
//
// Severity is high only when both stays are date-identical (a true
// double-booking of the same stay); any partial overlap is medium.
func DetectConflict(local *models.OfflineReservationRequest, channel *models.ChannelReservation) *models.SyncConflict {
	if local == nil || channel == nil {
		return nil
	}
	if channel.Cancelled {
		return nil
	}
	if local.RoomType != channel.RoomType {
		return nil
	}
	if !overlaps(local.CheckIn, local.CheckOut, channel.CheckIn, channel.CheckOut) {
		return nil
	}

	conflictType := models.ConflictTypeDateOverlap
	severity := models.SeverityMedium
	if local.CheckIn.Equal(channel.CheckIn) && local.CheckOut.Equal(channel.CheckOut) {
		conflictType = models.ConflictTypeOverbooking
		severity = models.SeverityHigh
	}

	return &models.SyncConflict{
		ID:       uuid.New(),
		Type:     conflictType,
		Severity: severity,
		Description: fmt.Sprintf("local %s (%s %s to %s) overlaps %s booking %s (%s to %s)",
			local.ConfirmationNumber, local.RoomType,
			local.CheckIn.Format("2006-01-02"), local.CheckOut.Format("2006-01-02"),
			channel.Channel, channel.ChannelConfirmation,
			channel.CheckIn.Format("2006-01-02"), channel.CheckOut.Format("2006-01-02")),
		LocalID:    local.ID,
		ChannelID:  channel.ID,
		Status:     models.ConflictStatusOpen,
		DetectedAt: time.Now().UTC(),
	}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
