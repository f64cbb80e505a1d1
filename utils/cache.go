// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"brightnest/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient is the generic cache client (checkout drafts, summaries).
	CacheClient *redis.Client
	// AuthCacheClient is the dedicated client for authorization caching.
	AuthCacheClient *redis.Client
)

// InitRedis initializes the Redis clients used across the service.
func InitRedis() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	AuthCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisAuthDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := CacheClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: redis cache not reachable at init: %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitRedis()
	}
	return CacheClient
}

// GetAuthCacheClient returns the dedicated auth cache client.
func GetAuthCacheClient() *redis.Client {
	if AuthCacheClient == nil {
		InitRedis()
	}
	return AuthCacheClient
}
