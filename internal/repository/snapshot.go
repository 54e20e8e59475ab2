package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/connectn-backend/internal/apperror"
	"github.com/rocketscienceinc/connectn-backend/internal/entity"
)

const snapshotKeyPrefix = "room:"

// SnapshotRepository mirrors the latest snapshot of every live room into redis.
// The in-memory registry stays authoritative.
type SnapshotRepository interface {
	Save(ctx context.Context, view entity.RoomView) error
	GetByID(ctx context.Context, id string) (*entity.RoomView, error)
	DeleteByID(ctx context.Context, id string) error
}

type redisSnapshots struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotRepository(client *redis.Client, ttl time.Duration) SnapshotRepository {
	return &redisSnapshots{
		client: client,
		ttl:    ttl,
	}
}

func (that *redisSnapshots) Save(ctx context.Context, view entity.RoomView) error {
	viewJSON, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("could not marshal room snapshot: %w", err)
	}

	if err = that.client.Set(ctx, snapshotKeyPrefix+view.ID, viewJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set room snapshot: %w", err)
	}

	return nil
}

func (that *redisSnapshots) GetByID(ctx context.Context, id string) (*entity.RoomView, error) {
	response, err := that.client.Get(ctx, snapshotKeyPrefix+NormalizeRoomID(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room snapshot: %w", err)
	}

	var view entity.RoomView
	if err = json.Unmarshal([]byte(response), &view); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room snapshot: %w", err)
	}

	return &view, nil
}

func (that *redisSnapshots) DeleteByID(ctx context.Context, id string) error {
	if err := that.client.Del(ctx, snapshotKeyPrefix+NormalizeRoomID(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete room snapshot: %w", err)
	}

	return nil
}
