package models

import (
	"time"

	"github.com/google/uuid"
)

type LogAction string

const (
	LogActionQueued           LogAction = "queued"
	LogActionSyncStart        LogAction = "sync-start"
	LogActionSyncSuccess      LogAction = "sync-success"
	LogActionSyncFail         LogAction = "sync-fail"
	LogActionConflictDetected LogAction = "conflict-detected"
	LogActionConflictResolved LogAction = "conflict-resolved"
)

// SyncLogEntry is one record in the append-only audit trail. Entries are never
// mutated or deleted; ids are assigned monotonically by the journal.
type SyncLogEntry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    LogAction `json:"action"`
	Details   string    `json:"details"`
	EntityID  uuid.UUID `json:"entity_id"`
}
