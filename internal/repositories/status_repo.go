package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lumenpms/channelsync/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	connectivityKeyPrefix = "connectivity:"
	gatewayKeyPrefix      = "gateway:"
	connectivityTTL       = 90 * time.Second // expires without heartbeat, so a dead process reads as offline
	gatewayHealthTTL      = 15 * time.Minute
)

// RedisStatusRepository keeps the dashboard-facing liveness signals:
// connectivity heartbeat and per-agency gateway health, both with TTLs.
type RedisStatusRepository struct {
	client     *redis.Client
	propertyID string
}

func NewRedisStatusRepository(client *redis.Client, propertyID string) *RedisStatusRepository {
	return &RedisStatusRepository{client: client, propertyID: propertyID}
}

func (r *RedisStatusRepository) SetConnectivity(ctx context.Context, status *models.ConnectivityStatus) error {
	status.PropertyID = r.propertyID
	status.LastSeen = time.Now()

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal connectivity status: %w", err)
	}

	key := connectivityKeyPrefix + r.propertyID
	if err := r.client.Set(ctx, key, data, connectivityTTL).Err(); err != nil {
		return fmt.Errorf("failed to set connectivity status: %w", err)
	}
	return nil
}

func (r *RedisStatusRepository) GetConnectivity(ctx context.Context) (*models.ConnectivityStatus, error) {
	key := connectivityKeyPrefix + r.propertyID

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// No heartbeat = offline.
		return &models.ConnectivityStatus{
			PropertyID: r.propertyID,
			Online:     false,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connectivity status: %w", err)
	}

	var status models.ConnectivityStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connectivity status: %w", err)
	}
	return &status, nil
}

func (r *RedisStatusRepository) SetGatewayHealth(ctx context.Context, health *models.GatewayHealth) error {
	health.PropertyID = r.propertyID
	health.CheckedAt = time.Now()

	data, err := json.Marshal(health)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway health: %w", err)
	}

	key := gatewayKey(r.propertyID, health.AgencyID)
	if err := r.client.Set(ctx, key, data, gatewayHealthTTL).Err(); err != nil {
		return fmt.Errorf("failed to set gateway health: %w", err)
	}
	return nil
}

func (r *RedisStatusRepository) GetGatewayHealth(ctx context.Context, agencyID string) (*models.GatewayHealth, error) {
	key := gatewayKey(r.propertyID, agencyID)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gateway health: %w", err)
	}

	var health models.GatewayHealth
	if err := json.Unmarshal([]byte(data), &health); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gateway health: %w", err)
	}
	return &health, nil
}

func gatewayKey(propertyID, agencyID string) string {
	return gatewayKeyPrefix + propertyID + ":" + agencyID
}
