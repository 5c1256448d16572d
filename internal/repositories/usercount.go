package repositories

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andripurnama/mobile-auth-api/internal/logger"
)

// userCountKey is the Redis key holding the cached total user count.
const userCountKey = "users:total"

// UserCountCacheRepository caches the total user count in Redis with a
// short TTL. The count is a best-effort snapshot, so stale reads within
// the TTL are acceptable.
type UserCountCacheRepository struct {
	client *redis.Client
	exp    time.Duration // expiration duration for the cached count
}

// NewUserCountCacheRepository creates a new repository instance with the given TTL.
func NewUserCountCacheRepository(client *redis.Client, expiration time.Duration) *UserCountCacheRepository {
	return &UserCountCacheRepository{
		client: client,
		exp:    expiration,
	}
}

// Get fetches the cached user count. Returns redis.Nil when the key is absent.
func (r *UserCountCacheRepository) Get(ctx context.Context) (int64, error) {
	val, err := r.client.Get(ctx, userCountKey).Result()
	if err != nil {
		logger.Log.Infow(
			"key", userCountKey,
			"result", val,
			"error", err,
		)
		return 0, err
	}

	total, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		logger.Log.Infow(
			"key", userCountKey,
			"value", val,
			"result", 0,
			"error", err,
		)
		return 0, err
	}

	logger.Log.Infow(
		"key", userCountKey,
		"result", total,
		"error", nil,
	)

	return total, nil
}

// Set caches a new user count with expiration.
func (r *UserCountCacheRepository) Set(ctx context.Context, total int64) error {
	err := r.client.Set(ctx, userCountKey, strconv.FormatInt(total, 10), r.exp).Err()

	logger.Log.Infow(
		"key", userCountKey,
		"total", total,
		"result", "ok",
		"error", err,
	)

	return err
}

// Invalidate drops the cached count. Called after a successful registration
// so the next read reflects the new row.
func (r *UserCountCacheRepository) Invalidate(ctx context.Context) error {
	err := r.client.Del(ctx, userCountKey).Err()

	logger.Log.Infow(
		"key", userCountKey,
		"result", "deleted",
		"error", err,
	)

	return err
}
