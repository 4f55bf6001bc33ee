package config

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
)

// NewRedis connects to REDIS_ADDR. It returns nil when redis is not
// configured or not reachable, which turns rate limiting off.
func NewRedis(c *Config, log logr.Logger) *redis.Client {
	if c.RedisAddr == "" {
		log.Info("redis not configured, rate limiting disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Error(err, "failed to connect to redis, rate limiting disabled", "addr", c.RedisAddr)
		_ = client.Close()
		return nil
	}
	log.Info("redis connected", "addr", c.RedisAddr)
	return client
}
