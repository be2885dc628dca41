package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/taskmaster/planner/internal/infrastructure/config"
	"github.com/taskmaster/planner/internal/infrastructure/logger"
)

const (
	connectAttempts   = 5
	initialRetryDelay = 2 * time.Second
)

// NewRedisClient connects to Redis, retrying with exponential backoff
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	retryDelay := initialRetryDelay

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.GetAddr(),
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Infow("Redis connected", "address", cfg.GetAddr(), "db", cfg.DB)
			return client, nil
		}
		client.Close()

		log.Warnw("Redis connection failed",
			"attempt", attempt,
			"max_attempts", connectAttempts,
			"error", err,
		)

		if attempt < connectAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
			retryDelay *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect to Redis after %d attempts", connectAttempts)
}
