package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lumenpms/channelsync/internal/models"
)

// ResolveConflict applies one of the four resolution strategies to an open
// conflict. Every branch except dismiss marks the conflict resolved and logs
// the decision; dismiss is an explicit defer that changes nothing.
//
// Keep-remote and merge talk to the room finder and the PMS. Those calls run
// outside the state lock with a bounded context, then the conflict is
// re-checked before any mutation is committed: if it was resolved or removed
// concurrently the resolution fails and nothing changes.
func (e *Engine) ResolveConflict(ctx context.Context, conflictID uuid.UUID, resolution models.Resolution) (*models.SyncConflict, error) {
	e.mu.Lock()

	conflict, ok := e.conflicts[conflictID]
	if !ok {
		e.mu.Unlock()
		return nil, &NotFoundError{Kind: "conflict", ID: conflictID.String()}
	}
	if conflict.Status == models.ConflictStatusResolved {
		e.mu.Unlock()
		return nil, &ConflictError{Reason: fmt.Sprintf("conflict %s is already resolved", conflictID)}
	}

	local := e.queue.get(conflict.LocalID)
	channel := e.buffer.get(conflict.ChannelID)

	switch resolution {
	case models.ResolutionDismiss:
		// Explicit defer: both sides and the conflict stay as they are.
		out := *conflict
		e.mu.Unlock()
		return &out, nil

	case models.ResolutionKeepLocal:
		if local != nil {
			local.ConflictID = nil
			local.SyncStatus = models.SyncStatusPending
		}
		if channel != nil {
			e.buffer.markCancelled(channel.ID)
			e.buffer.remove(channel.ID)
		}
		return e.finishResolveLocked(ctx, conflict, resolution)

	case models.ResolutionKeepRemote, models.ResolutionMerge:
		if resolution == models.ResolutionMerge {
			if local == nil {
				e.mu.Unlock()
				return nil, &ConflictError{Reason: "merge requires the local reservation, which no longer exists"}
			}
			if e.deps.Rooms == nil {
				e.mu.Unlock()
				return nil, &ConflictError{Reason: "no room availability lookup configured for merge"}
			}
		}
		var localCopy *models.OfflineReservationRequest
		if local != nil {
			c := *local
			localCopy = &c
		}
		var channelCopy *models.ChannelReservation
		if channel != nil {
			c := *channel
			channelCopy = &c
		}
		e.mu.Unlock()
		return e.resolveWithBackend(ctx, conflictID, resolution, localCopy, channelCopy)

	default:
		e.mu.Unlock()
		return nil, &ValidationError{Field: "resolution", Reason: fmt.Sprintf("unknown strategy %q", resolution)}
	}
}

// resolveWithBackend runs the I/O phase of keep-remote and merge against
// copies of both sides, then re-acquires the lock and commits. The conflict
// stays open on any failure; no partial state is committed.
func (e *Engine) resolveWithBackend(ctx context.Context, conflictID uuid.UUID, resolution models.Resolution,
	local *models.OfflineReservationRequest, channel *models.ChannelReservation) (*models.SyncConflict, error) {

	ioCtx, cancel := context.WithTimeout(ctx, e.pushTimeout)
	defer cancel()

	// Merge keeps both sides by relocating the local reservation to a vacant
	// room of the same type. With no alternate room available the merge fails
	// explicitly.
	var room string
	if resolution == models.ResolutionMerge {
		var err error
		room, err = e.deps.Rooms.FindAlternateRoom(ioCtx, local.RoomType, local.CheckIn, local.CheckOut)
		if err != nil {
			return nil, &ConflictError{Reason: fmt.Sprintf("room availability lookup failed: %v", err)}
		}
		if room == "" {
			return nil, &ConflictError{Reason: fmt.Sprintf("no vacant %s room available for %s to %s",
				local.RoomType, local.CheckIn.Format("2006-01-02"), local.CheckOut.Format("2006-01-02"))}
		}
	}

	// The PMS write happens before any local mutation so a transport failure
	// never loses the local reservation.
	promoted := channel != nil && e.deps.PMS != nil
	if promoted {
		if err := e.deps.PMS.CreateFromChannel(ioCtx, channel); err != nil {
			return nil, &TransportError{
				Err:     fmt.Errorf("PMS promotion failed: %w", err),
				Timeout: errors.Is(err, context.DeadlineExceeded),
			}
		}
	}

	e.mu.Lock()
	conflict, ok := e.conflicts[conflictID]
	if !ok || conflict.Status == models.ConflictStatusResolved {
		e.mu.Unlock()
		return nil, &ConflictError{Reason: fmt.Sprintf("conflict %s was resolved concurrently", conflictID)}
	}

	if item := e.queue.get(conflict.LocalID); item != nil {
		item.ConflictID = nil
		if resolution == models.ResolutionKeepRemote {
			e.queue.drop(item.ID)
		} else {
			item.RoomNumber = room
			item.SyncStatus = models.SyncStatusPending
		}
	}
	if promoted {
		e.markPromotedLocked(channel)
	}
	if entry := e.buffer.get(conflict.ChannelID); entry != nil {
		e.buffer.remove(entry.ID)
	}
	return e.finishResolveLocked(ctx, conflict, resolution)
}

// finishResolveLocked stamps the conflict resolved, logs the decision and
// persists. Callers must hold e.mu; the lock is released before persisting.
func (e *Engine) finishResolveLocked(ctx context.Context, conflict *models.SyncConflict, resolution models.Resolution) (*models.SyncConflict, error) {
	now := time.Now().UTC()
	res := resolution
	conflict.Status = models.ConflictStatusResolved
	conflict.Resolution = &res
	conflict.ResolvedAt = &now
	e.logLocked(ctx, models.LogActionConflictResolved,
		fmt.Sprintf("conflict %s resolved with %s", conflict.ID, resolution), conflict.ID)

	out := *conflict
	e.mu.Unlock()

	e.persist(ctx)
	return &out, nil
}
