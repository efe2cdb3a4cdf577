package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yourusername/quizgen-api/internal/config"
)

// NewUniversalRedisClient создает клиент Redis по унифицированной конфигурации.
// Один и тот же клиент обслуживает кеш викторин, rate limiter и pub/sub
// живых результатов, поэтому используется UniversalClient: режим (single,
// sentinel, cluster) меняется конфигурацией без изменения кода.
func NewUniversalRedisClient(cfg config.RedisConfig) (redis.UniversalClient, error) {
	addrs, err := resolveRedisAddrs(cfg)
	if err != nil {
		return nil, err
	}

	options := &redis.UniversalOptions{
		Addrs:    addrs,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.MaxRetries != 0 {
		options.MaxRetries = cfg.MaxRetries
	}
	if cfg.MinRetryBackoff != 0 {
		options.MinRetryBackoff = time.Duration(cfg.MinRetryBackoff) * time.Millisecond
	}
	if cfg.MaxRetryBackoff != 0 {
		options.MaxRetryBackoff = time.Duration(cfg.MaxRetryBackoff) * time.Millisecond
	}

	mode := cfg.Mode
	if mode == "" {
		mode = "single"
	}
	switch mode {
	case "sentinel":
		if cfg.MasterName == "" {
			return nil, fmt.Errorf("redis sentinel mode requires master_name")
		}
		// NewUniversalClient переключается в режим failover по наличию MasterName
		options.MasterName = cfg.MasterName
	case "cluster", "single":
		// NewUniversalClient выбирает режим по количеству адресов
	default:
		return nil, fmt.Errorf("unsupported redis mode: %q", mode)
	}

	client := redis.NewUniversalClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis (mode: %s, addrs: %v): %w", mode, addrs, err)
	}

	return client, nil
}

// resolveRedisAddrs выбирает список адресов: Addrs имеет приоритет,
// одиночный Addr поддерживается для простых конфигураций
func resolveRedisAddrs(cfg config.RedisConfig) ([]string, error) {
	if len(cfg.Addrs) > 0 {
		return cfg.Addrs, nil
	}
	if cfg.Addr != "" {
		return []string{cfg.Addr}, nil
	}
	return nil, fmt.Errorf("redis configuration error: addrs or addr must be provided")
}
