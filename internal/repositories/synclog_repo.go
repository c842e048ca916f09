package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumenpms/channelsync/internal/models"
)

// PostgresSyncLogRepository archives journal entries durably. The table is
// append-only: there is no update or delete path.
type PostgresSyncLogRepository struct {
	pool       *pgxpool.Pool
	propertyID string
}

func NewPostgresSyncLogRepository(pool *pgxpool.Pool, propertyID string) *PostgresSyncLogRepository {
	return &PostgresSyncLogRepository{pool: pool, propertyID: propertyID}
}

func (r *PostgresSyncLogRepository) Append(ctx context.Context, entry *models.SyncLogEntry) error {
	query := `INSERT INTO sync_log (property_id, seq, ts, action, details, entity_id)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (property_id, seq) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		r.propertyID,
		entry.ID,
		entry.Timestamp,
		string(entry.Action),
		entry.Details,
		entry.EntityID,
	)
	if err != nil {
		return fmt.Errorf("failed to append sync log entry: %w", err)
	}
	return nil
}

func (r *PostgresSyncLogRepository) ListByEntity(ctx context.Context, entityID uuid.UUID) ([]*models.SyncLogEntry, error) {
	query := `SELECT seq, ts, action, details, entity_id
	          FROM sync_log
	          WHERE property_id = $1 AND entity_id = $2
	          ORDER BY seq ASC`

	rows, err := r.pool.Query(ctx, query, r.propertyID, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync log: %w", err)
	}
	defer rows.Close()

	return scanLogEntries(rows)
}

func (r *PostgresSyncLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.SyncLogEntry, error) {
	query := `SELECT seq, ts, action, details, entity_id
	          FROM sync_log
	          WHERE property_id = $1
	          ORDER BY seq DESC
	          LIMIT $2`

	rows, err := r.pool.Query(ctx, query, r.propertyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync log: %w", err)
	}
	defer rows.Close()

	entries, err := scanLogEntries(rows)
	if err != nil {
		return nil, err
	}
	// Back into chronological order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func scanLogEntries(rows pgx.Rows) ([]*models.SyncLogEntry, error) {
	var entries []*models.SyncLogEntry
	for rows.Next() {
		var entry models.SyncLogEntry
		var action string
		err := rows.Scan(&entry.ID, &entry.Timestamp, &action, &entry.Details, &entry.EntityID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync log entry: %w", err)
		}
		entry.Action = models.LogAction(action)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync log entries: %w", err)
	}
	return entries, nil
}
