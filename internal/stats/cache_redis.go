package stats

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	platformredis "lifelink/internal/platform/redis"
	dErrors "lifelink/pkg/domain-errors"
)

const snapshotKey = "lifelink:stats:latest"

// RedisCache shares the latest snapshot across instances. SET replaces the
// whole value, so readers never observe a half-updated snapshot.
type RedisCache struct {
	client *platformredis.Client
}

func NewRedisCache(client *platformredis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Put(ctx context.Context, snapshot Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "marshal snapshot")
	}
	if err := c.client.Set(ctx, snapshotKey, payload, 0).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "store snapshot")
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context) (Snapshot, bool, error) {
	payload, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, dErrors.Wrap(err, dErrors.CodePersistence, "load snapshot")
	}
	var snapshot Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return Snapshot{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "unmarshal snapshot")
	}
	return snapshot, true, nil
}
