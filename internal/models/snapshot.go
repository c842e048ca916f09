package models

import "time"

// Snapshot is the full persistable state of the sync engine: queue, buffer,
// conflicts and journal. The storage collaborator loads one at startup and
// saves one after each user-driven mutation.
type Snapshot struct {
	Queue     []*OfflineReservationRequest `json:"queue"`
	Buffer    []*ChannelReservation        `json:"buffer"`
	Conflicts []*SyncConflict              `json:"conflicts"`
	Promoted  []*ChannelReservation        `json:"promoted,omitempty"`
	Log       []*SyncLogEntry              `json:"log"`
	SavedAt   time.Time                    `json:"saved_at"`
}
