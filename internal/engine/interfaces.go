package engine

import (
	"context"
	"time"

	"github.com/lumenpms/channelsync/internal/models"
)

// SnapshotStore persists the full engine state. Within one user-driven
// operation the engine never interleaves read-modify-write with another
// writer, so no locking contract is required of implementations.
type SnapshotStore interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snapshot *models.Snapshot) error
}

// Gateway pushes a local reservation out to the booking channels. Per-agency
// authentication and payload shaping live behind this interface; the engine
// only sees success or failure within its bounded timeout.
type Gateway interface {
	Push(ctx context.Context, res *models.OfflineReservationRequest) error
}

// ReservationBackend is the PMS reservation system. ConfirmLocal is invoked
// when a queue item reaches synced; CreateFromChannel materializes a channel
// buffer entry as a confirmed reservation (keep-remote resolution or a
// conflict-free webhook delivery).
type ReservationBackend interface {
	ConfirmLocal(ctx context.Context, res *models.OfflineReservationRequest) error
	CreateFromChannel(ctx context.Context, res *models.ChannelReservation) error
}

// RoomFinder looks up a vacant room of the given type for a merge resolution.
// It returns an empty room number when no alternate is available.
type RoomFinder interface {
	FindAlternateRoom(ctx context.Context, roomType string, checkIn, checkOut time.Time) (string, error)
}

// LogArchive receives every journal entry for durable retention. Archive
// failures never fail the operation that produced the entry.
type LogArchive interface {
	Append(ctx context.Context, entry *models.SyncLogEntry) error
}

// Connectivity reports whether the property currently has network access.
type Connectivity interface {
	IsOnline() bool
}
