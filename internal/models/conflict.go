package models

import (
	"time"

	"github.com/google/uuid"
)

type ConflictType string

const (
	ConflictTypeOverbooking ConflictType = "overbooking"
	ConflictTypeDateOverlap ConflictType = "date-overlap"
)

type ConflictSeverity string

const (
	SeverityHigh   ConflictSeverity = "high"
	SeverityMedium ConflictSeverity = "medium"
)

type ConflictStatus string

const (
	ConflictStatusOpen     ConflictStatus = "open"
	ConflictStatusResolved ConflictStatus = "resolved"
)

// Resolution is the strategy a human picked for a detected conflict.
type Resolution string

const (
	ResolutionKeepLocal  Resolution = "keep-local"
	ResolutionKeepRemote Resolution = "keep-remote"
	ResolutionMerge      Resolution = "merge"
	ResolutionDismiss    Resolution = "dismiss"
)

// SyncConflict pairs exactly one offline queue item with exactly one channel
// buffer entry that claim the same room type over overlapping dates.
type SyncConflict struct {
	ID          uuid.UUID        `json:"id"`
	Type        ConflictType     `json:"type"`
	Severity    ConflictSeverity `json:"severity"`
	Description string           `json:"description"`
	LocalID     uuid.UUID        `json:"local_id"`
	ChannelID   uuid.UUID        `json:"channel_id"`
	Status      ConflictStatus   `json:"status"`
	Resolution  *Resolution      `json:"resolution,omitempty"`
	DetectedAt  time.Time        `json:"detected_at"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty"`
}
