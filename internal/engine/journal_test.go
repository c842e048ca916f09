package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lumenpms/channelsync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalAppend_MonotonicIDs(t *testing.T) {
	j := newJournal()
	entity := uuid.New()

	first := j.append(models.LogActionQueued, "queued", entity)
	second := j.append(models.LogActionSyncStart, "sync started", entity)
	third := j.append(models.LogActionSyncSuccess, "sync ok", entity)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, int64(3), third.ID)
}

func TestJournalAppend_TimestampsNeverDecrease(t *testing.T) {
	j := newJournal()

	// Pin lastTS into the future to simulate the wall clock stepping back
	// between appends.
	future := time.Now().UTC().Add(time.Hour)
	j.lastTS = future

	entry := j.append(models.LogActionQueued, "queued", uuid.New())

	assert.Equal(t, future, entry.Timestamp)
	next := j.append(models.LogActionSyncStart, "sync started", uuid.New())
	assert.False(t, next.Timestamp.Before(entry.Timestamp))
}

func TestJournalList_FiltersByEntity(t *testing.T) {
	j := newJournal()
	a := uuid.New()
	b := uuid.New()
	j.append(models.LogActionQueued, "a queued", a)
	j.append(models.LogActionQueued, "b queued", b)
	j.append(models.LogActionSyncSuccess, "a synced", a)

	filtered := j.list(&a)

	require.Len(t, filtered, 2)
	assert.Equal(t, "a queued", filtered[0].Details)
	assert.Equal(t, "a synced", filtered[1].Details)
	assert.Len(t, j.list(nil), 3)
}

func TestJournalList_ReturnsCopies(t *testing.T) {
	j := newJournal()
	j.append(models.LogActionQueued, "original", uuid.New())

	j.list(nil)[0].Details = "mutated"

	assert.Equal(t, "original", j.list(nil)[0].Details)
}

func TestJournalRestore_ContinuesIDSequence(t *testing.T) {
	j := newJournal()
	entity := uuid.New()
	j.append(models.LogActionQueued, "queued", entity)
	j.append(models.LogActionSyncStart, "sync started", entity)

	restored := newJournal()
	restored.restore(j.snapshot())
	next := restored.append(models.LogActionSyncSuccess, "sync ok", entity)

	assert.Equal(t, int64(3), next.ID)
	assert.Len(t, restored.list(nil), 3)
}
