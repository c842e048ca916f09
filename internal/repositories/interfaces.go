package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lumenpms/channelsync/internal/models"
)

var ErrNotFound = errors.New("not found")

type SnapshotRepository interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snapshot *models.Snapshot) error
}

type SyncLogRepository interface {
	Append(ctx context.Context, entry *models.SyncLogEntry) error
	ListByEntity(ctx context.Context, entityID uuid.UUID) ([]*models.SyncLogEntry, error)
	ListRecent(ctx context.Context, limit int) ([]*models.SyncLogEntry, error)
}

type StatusRepository interface {
	SetConnectivity(ctx context.Context, status *models.ConnectivityStatus) error
	GetConnectivity(ctx context.Context) (*models.ConnectivityStatus, error)
	SetGatewayHealth(ctx context.Context, health *models.GatewayHealth) error
	GetGatewayHealth(ctx context.Context, agencyID string) (*models.GatewayHealth, error)
}
