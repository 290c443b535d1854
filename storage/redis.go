package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/toolkits/pkg/logger"
)

type RedisConfig struct {
	Address  string
	Username string
	Password string
	DB       int
}

type Redis redis.Cmdable

func NewRedis(cfg RedisConfig) (Redis, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Errorf("failed to ping redis: %v", err)
		return nil, fmt.Errorf("failed to ping redis: %v", err)
	}

	return redisClient, nil
}
