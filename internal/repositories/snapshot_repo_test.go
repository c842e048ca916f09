package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumenpms/channelsync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getTestPool connects to the database named by TEST_DATABASE_URL. Tests are
// skipped when it is unset so the suite runs without infrastructure.
func getTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}
	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(pool.Close)
	return pool
}

func testPropertyID() string {
	return "test-" + uuid.NewString()
}

func cleanupProperty(t *testing.T, pool *pgxpool.Pool, propertyID string) {
	t.Helper()
	ctx := context.Background()
	_, err := pool.Exec(ctx, `DELETE FROM engine_snapshots WHERE property_id = $1`, propertyID)
	assert.NoError(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM sync_log WHERE property_id = $1`, propertyID)
	assert.NoError(t, err)
}

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Queue: []*models.OfflineReservationRequest{{
			ID:                 uuid.New(),
			ConfirmationNumber: "LCL-ABCD1234",
			GuestName:          "Ada Guest",
			RoomType:           "standard",
			CheckIn:            time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			CheckOut:           time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
			Nights:             2,
			SyncStatus:         models.SyncStatusPending,
			CreatedAt:          time.Now().UTC(),
		}},
		SavedAt: time.Now().UTC(),
	}
}

func TestSnapshotRepository_FirstLoadIsEmpty(t *testing.T) {
	pool := getTestPool(t)
	propertyID := testPropertyID()
	repo := NewPostgresSnapshotRepository(pool, propertyID)
	defer cleanupProperty(t, pool, propertyID)

	snapshot, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.Nil(t, snapshot, "a property with no saved state loads nil")
}

func TestSnapshotRepository_SaveAndLoad(t *testing.T) {
	pool := getTestPool(t)
	propertyID := testPropertyID()
	repo := NewPostgresSnapshotRepository(pool, propertyID)
	ctx := context.Background()
	defer cleanupProperty(t, pool, propertyID)

	saved := sampleSnapshot()
	require.NoError(t, repo.Save(ctx, saved))

	// A fresh repository instance simulates a process restart.
	loaded, err := NewPostgresSnapshotRepository(pool, propertyID).Load(ctx)

	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Queue, 1)
	assert.Equal(t, saved.Queue[0].ID, loaded.Queue[0].ID)
	assert.Equal(t, saved.Queue[0].ConfirmationNumber, loaded.Queue[0].ConfirmationNumber)
}

func TestSnapshotRepository_SaveIncrementsVersion(t *testing.T) {
	pool := getTestPool(t)
	propertyID := testPropertyID()
	repo := NewPostgresSnapshotRepository(pool, propertyID)
	ctx := context.Background()
	defer cleanupProperty(t, pool, propertyID)

	require.NoError(t, repo.Save(ctx, sampleSnapshot()))
	require.NoError(t, repo.Save(ctx, sampleSnapshot()))

	var version int64
	err := pool.QueryRow(ctx,
		`SELECT version FROM engine_snapshots WHERE property_id = $1`, propertyID).Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestSnapshotRepository_StaleWriterConflicts(t *testing.T) {
	pool := getTestPool(t)
	propertyID := testPropertyID()
	ctx := context.Background()
	defer cleanupProperty(t, pool, propertyID)

	first := NewPostgresSnapshotRepository(pool, propertyID)
	require.NoError(t, first.Save(ctx, sampleSnapshot()))

	// A second instance loads the same version, then both try to save.
	second := NewPostgresSnapshotRepository(pool, propertyID)
	_, err := second.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, second.Save(ctx, sampleSnapshot()))

	err = first.Save(ctx, sampleSnapshot())

	assert.ErrorIs(t, err, ErrSnapshotConflict)
}
