package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumenpms/channelsync/internal/models"
)

// ErrSnapshotConflict is returned when optimistic locking fails: another
// writer saved a newer snapshot under the same property.
var ErrSnapshotConflict = errors.New("snapshot conflict: state was saved by another writer")

// PostgresSnapshotRepository persists the engine snapshot as a single
// versioned JSONB row per property. The engine is the only writer within a
// process; the version check catches a second instance pointed at the same
// property by mistake.
type PostgresSnapshotRepository struct {
	pool       *pgxpool.Pool
	propertyID string
	version    int64
}

func NewPostgresSnapshotRepository(pool *pgxpool.Pool, propertyID string) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{pool: pool, propertyID: propertyID}
}

func (r *PostgresSnapshotRepository) Load(ctx context.Context) (*models.Snapshot, error) {
	query := `SELECT snapshot, version FROM engine_snapshots WHERE property_id = $1`

	var data []byte
	err := r.pool.QueryRow(ctx, query, r.propertyID).Scan(&data, &r.version)
	if errors.Is(err, pgx.ErrNoRows) {
		// First run for this property.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}

func (r *PostgresSnapshotRepository) Save(ctx context.Context, snapshot *models.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if r.version == 0 {
		return r.create(ctx, data)
	}
	return r.update(ctx, data)
}

func (r *PostgresSnapshotRepository) create(ctx context.Context, data []byte) error {
	query := `INSERT INTO engine_snapshots (property_id, snapshot, version)
	          VALUES ($1, $2, 1)
	          RETURNING version`

	err := r.pool.QueryRow(ctx, query, r.propertyID, data).Scan(&r.version)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	return nil
}

func (r *PostgresSnapshotRepository) update(ctx context.Context, data []byte) error {
	// The WHERE clause includes the version check: a stale writer updates
	// zero rows instead of clobbering a newer snapshot.
	query := `UPDATE engine_snapshots
	          SET snapshot = $1,
	              version = version + 1,
	              updated_at = NOW()
	          WHERE property_id = $2 AND version = $3
	          RETURNING version`

	err := r.pool.QueryRow(ctx, query, data, r.propertyID, r.version).Scan(&r.version)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSnapshotConflict
	}
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}
	return nil
}
