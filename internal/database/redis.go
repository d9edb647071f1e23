package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rentitout/backend/internal/config"
	"github.com/rentitout/backend/internal/messaging"
	"github.com/rentitout/backend/internal/models"
	"github.com/rentitout/backend/pkg/logger"
)

var Redis *redis.Client
var Ctx = context.Background()

// InitRedis connects to REDIS_ADDR. It reports whether Redis is usable;
// without it the server falls back to in-process caching and chat fan-out.
func InitRedis() bool {
	if config.AppConfig.RedisAddr == "" {
		logger.Warn().Msg("REDIS_ADDR not set. Token revocation, shared caching and multi-instance chat are disabled.")
		return false
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       0,
	})

	if _, err := client.Ping(Ctx).Result(); err != nil {
		logger.Warn().Err(err).Msg("Failed to connect to Redis. Rate limiting and caching will be disabled.")
		_ = client.Close()
		return false
	}

	Redis = client
	logger.Info().Str("addr", config.AppConfig.RedisAddr).Msg("Connected to Redis")
	return true
}

// Token revocation

func blacklistKey(jti string) string {
	return "token_blacklist:" + jti
}

// BlacklistToken revokes a token until it would have expired anyway.
func BlacklistToken(jti string, expiresAt time.Time) error {
	if Redis == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return Redis.Set(Ctx, blacklistKey(jti), "1", ttl).Err()
}

func IsTokenBlacklisted(jti string) bool {
	if Redis == nil || jti == "" {
		return false
	}
	n, err := Redis.Exists(Ctx, blacklistKey(jti)).Result()
	if err != nil {
		logger.Warn().Err(err).Msg("Token blacklist lookup failed")
		return false
	}
	return n > 0
}

// threadCacheClient is the subset of *redis.Client ThreadCache uses.
type threadCacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// ThreadCache keeps loaded chat threads in Redis so every instance shares
// them. Each listing has a version counter that is part of every entry key;
// invalidation is a single INCR and superseded entries age out by TTL.
type ThreadCache struct {
	client threadCacheClient
	ttl    time.Duration
}

func NewThreadCache(client *redis.Client, ttl time.Duration) *ThreadCache {
	return &ThreadCache{client: client, ttl: ttl}
}

func threadVersionKey(listingID uint) string {
	return fmt.Sprintf("thread:ver:%d", listingID)
}

func threadEntryKey(q messaging.ThreadQuery, version uint64) string {
	return fmt.Sprintf("%s:v%d", q.Key(), version)
}

func (c *ThreadCache) Version(ctx context.Context, listingID uint) (uint64, bool) {
	v, err := c.client.Get(ctx, threadVersionKey(listingID)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		logger.Debug().Err(err).Uint("listing_id", listingID).Msg("Thread cache version read failed")
		return 0, false
	}
	return v, true
}

func (c *ThreadCache) Get(ctx context.Context, q messaging.ThreadQuery, version uint64) ([]models.ChatMessage, bool) {
	val, err := c.client.Get(ctx, threadEntryKey(q, version)).Bytes()
	if err != nil {
		return nil, false
	}
	var msgs []models.ChatMessage
	if err := json.Unmarshal(val, &msgs); err != nil {
		return nil, false
	}
	return msgs, true
}

// Set writes under the version the caller read. If the listing has been
// invalidated since, the key is one no reader will look up.
func (c *ThreadCache) Set(ctx context.Context, q messaging.ThreadQuery, version uint64, msgs []models.ChatMessage) {
	if c.ttl <= 0 {
		return
	}
	payload, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	key := threadEntryKey(q, version)
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		logger.Debug().Err(err).Str("key", key).Msg("Thread cache write failed")
	}
}

func (c *ThreadCache) InvalidateListing(ctx context.Context, listingID uint) {
	if err := c.client.Incr(ctx, threadVersionKey(listingID)).Err(); err != nil {
		logger.Warn().Err(err).Uint("listing_id", listingID).Msg("Thread cache invalidation failed")
	}
}
