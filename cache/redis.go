package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"booking-svc/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InitRedis returns nil without error when no Redis host is configured;
// callers fall through to the database.
func InitRedis(cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	if cfg.Host == "" {
		logger.Info("Redis not configured, room cache disabled")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established")
	return rdb, nil
}

func GetRoom(ctx context.Context, rdb *redis.Client, id string) ([]byte, error) {
	if rdb == nil {
		return nil, redis.Nil
	}
	key := fmt.Sprintf("room:%s", id)
	return rdb.Get(ctx, key).Bytes()
}

func SetRoom(ctx context.Context, rdb *redis.Client, id string, room interface{}, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	key := fmt.Sprintf("room:%s", id)
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, data, ttl).Err()
}

func DeleteRoom(ctx context.Context, rdb *redis.Client, id string) error {
	if rdb == nil {
		return nil
	}
	key := fmt.Sprintf("room:%s", id)
	return rdb.Del(ctx, key).Err()
}
