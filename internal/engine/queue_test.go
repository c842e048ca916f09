package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lumenpms/channelsync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *ReservationInput {
	return &ReservationInput{
		GuestName:    "Ada Guest",
		GuestEmail:   "ada@example.com",
		RoomType:     "standard",
		CheckIn:      date("2024-06-01"),
		CheckOut:     date("2024-06-03"),
		Adults:       2,
		RatePerNight: 120,
		Channel:      "walk-in",
	}
}

func TestQueueAdd_AssignsIDAndConfirmation(t *testing.T) {
	q := newReservationQueue()

	item, err := q.add(validInput())

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, item.ID)
	assert.NotEmpty(t, item.ConfirmationNumber)
	assert.Equal(t, models.SyncStatusPending, item.SyncStatus)
	assert.Equal(t, 2, item.Nights, "nights derived from the stay dates")
	assert.Equal(t, float64(240), item.TotalAmount)
	assert.Equal(t, 1, q.pendingCount())
	assert.False(t, item.CreatedAt.IsZero())
}

func TestQueueAdd_ValidationFailures(t *testing.T) {
	q := newReservationQueue()

	cases := []struct {
		name   string
		mutate func(*ReservationInput)
	}{
		{"missing guest name", func(in *ReservationInput) { in.GuestName = " " }},
		{"missing room type", func(in *ReservationInput) { in.RoomType = "" }},
		{"missing check-in", func(in *ReservationInput) { in.CheckIn = time.Time{} }},
		{"check-out before check-in", func(in *ReservationInput) { in.CheckOut = date("2024-05-01") }},
		{"zero adults", func(in *ReservationInput) { in.Adults = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(in)

			_, err := q.add(in)

			require.Error(t, err)
			assert.True(t, IsValidation(err), "expected ValidationError, got %v", err)
			assert.Equal(t, 0, q.pendingCount(), "no partial state on rejection")
		})
	}
}

func TestQueueRemove_OnlyPendingAndError(t *testing.T) {
	q := newReservationQueue()
	item, err := q.add(validInput())
	require.NoError(t, err)

	// Pending items can be removed.
	require.NoError(t, q.remove(item.ID))

	// Synced and conflict-holding items must not be silently discarded.
	for _, status := range []models.SyncStatus{models.SyncStatusSynced, models.SyncStatusSyncing, models.SyncStatusConflict} {
		item, err := q.add(validInput())
		require.NoError(t, err)
		item.SyncStatus = status

		err = q.remove(item.ID)

		require.Error(t, err)
		assert.True(t, IsConflict(err), "expected ConflictError for %s, got %v", status, err)
	}

	// Errored items can be removed.
	item, err = q.add(validInput())
	require.NoError(t, err)
	item.SyncStatus = models.SyncStatusError
	require.NoError(t, q.remove(item.ID))
}

func TestQueueRemove_Unknown(t *testing.T) {
	q := newReservationQueue()

	err := q.remove(uuid.New())

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestQueueClearSynced_LeavesOthersUntouched(t *testing.T) {
	q := newReservationQueue()
	statuses := []models.SyncStatus{
		models.SyncStatusPending,
		models.SyncStatusSynced,
		models.SyncStatusError,
		models.SyncStatusConflict,
		models.SyncStatusSynced,
	}
	for _, status := range statuses {
		item, err := q.add(validInput())
		require.NoError(t, err)
		item.SyncStatus = status
	}

	removed := q.clearSynced()

	assert.Equal(t, 2, removed)
	remaining := q.list()
	require.Len(t, remaining, 3)
	for _, item := range remaining {
		assert.NotEqual(t, models.SyncStatusSynced, item.SyncStatus)
	}
}

func TestQueueList_InsertionOrder(t *testing.T) {
	q := newReservationQueue()
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		item, err := q.add(validInput())
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}

	listed := q.list()

	require.Len(t, listed, 5)
	for i, item := range listed {
		assert.Equal(t, ids[i], item.ID)
	}
}

func TestQueueRestore_ResetsInterruptedItems(t *testing.T) {
	q := newReservationQueue()
	item, err := q.add(validInput())
	require.NoError(t, err)
	item.SyncStatus = models.SyncStatusSyncing

	restored := newReservationQueue()
	restored.restore(q.list())

	got := restored.get(item.ID)
	require.NotNil(t, got)
	assert.Equal(t, models.SyncStatusPending, got.SyncStatus,
		"an item caught mid-push by a crash goes back to pending")
}
