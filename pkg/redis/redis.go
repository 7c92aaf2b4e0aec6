package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/hendrik2009/hearo-backend/config"
	"github.com/hendrik2009/hearo-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

func bindingKey(uid string) string {
	return fmt.Sprintf("binding:%s", uid)
}

// CacheBinding stores a serialized binding under its tag UID
func CacheBinding(ctx context.Context, uid string, payload []byte, ttl time.Duration) error {
	err := client.Set(ctx, bindingKey(uid), payload, ttl).Err()
	if err != nil {
		logger.Error("Failed to cache binding", err, map[string]interface{}{
			"uid": uid,
		})
		return err
	}
	return nil
}

// GetCachedBinding returns the cached binding payload for a tag UID.
// The second return value is false on a cache miss.
func GetCachedBinding(ctx context.Context, uid string) ([]byte, bool, error) {
	val, err := client.Get(ctx, bindingKey(uid)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		logger.Error("Failed to read cached binding", err, map[string]interface{}{
			"uid": uid,
		})
		return nil, false, err
	}
	return val, true, nil
}

// InvalidateBinding removes the cached binding for a tag UID
func InvalidateBinding(ctx context.Context, uid string) error {
	if err := client.Del(ctx, bindingKey(uid)).Err(); err != nil {
		logger.Error("Failed to invalidate cached binding", err, map[string]interface{}{
			"uid": uid,
		})
		return err
	}
	return nil
}
