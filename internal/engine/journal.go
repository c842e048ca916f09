package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/lumenpms/channelsync/internal/models"
)

// journal is the in-memory append-only audit trail. Ids are monotonic and
// timestamps never decrease in write order, even if the wall clock steps
// backwards between appends.
type journal struct {
	entries []*models.SyncLogEntry
	nextID  int64
	lastTS  time.Time
}

func newJournal() *journal {
	return &journal{nextID: 1}
}

func (j *journal) append(action models.LogAction, details string, entityID uuid.UUID) *models.SyncLogEntry {
	ts := time.Now().UTC()
	if ts.Before(j.lastTS) {
		ts = j.lastTS
	}
	j.lastTS = ts

	entry := &models.SyncLogEntry{
		ID:        j.nextID,
		Timestamp: ts,
		Action:    action,
		Details:   details,
		EntityID:  entityID,
	}
	j.nextID++
	j.entries = append(j.entries, entry)
	return entry
}

// list returns entries in chronological order, optionally filtered by the
// related entity id.
func (j *journal) list(entityID *uuid.UUID) []*models.SyncLogEntry {
	out := make([]*models.SyncLogEntry, 0, len(j.entries))
	for _, e := range j.entries {
		if entityID != nil && e.EntityID != *entityID {
			continue
		}
		copy := *e
		out = append(out, &copy)
	}
	return out
}

func (j *journal) restore(entries []*models.SyncLogEntry) {
	j.entries = make([]*models.SyncLogEntry, 0, len(entries))
	for _, e := range entries {
		copy := *e
		j.entries = append(j.entries, &copy)
		if copy.ID >= j.nextID {
			j.nextID = copy.ID + 1
		}
		if copy.Timestamp.After(j.lastTS) {
			j.lastTS = copy.Timestamp
		}
	}
}

func (j *journal) snapshot() []*models.SyncLogEntry {
	return j.list(nil)
}
