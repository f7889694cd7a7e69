// Package cache provides an optional Redis-backed response cache keyed by
// the normalized question text. The cache short-circuits the full pipeline
// for repeated questions; when Redis is not configured every lookup misses.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/config"
	"github.com/opsight-ai/opsight-engine/pkg/models"
)

// ResponseCache stores and retrieves response envelopes.
type ResponseCache interface {
	Get(ctx context.Context, question string) (*models.Envelope, bool)
	Set(ctx context.Context, question string, envelope *models.Envelope)
}

// RedisCache is a ResponseCache backed by Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ ResponseCache = (*RedisCache)(nil)

// New creates a Redis response cache, or nil if Redis is not configured
// (host is empty). A nil *RedisCache is safe to use and never hits.
func New(cfg *config.RedisConfig, logger *zap.Logger) (*RedisCache, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL(),
		logger: logger.Named("response-cache"),
	}, nil
}

// Get returns the cached envelope for a question, if present.
func (c *RedisCache) Get(ctx context.Context, question string) (*models.Envelope, bool) {
	if c == nil {
		return nil, false
	}

	payload, err := c.client.Get(ctx, cacheKey(question)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var envelope models.Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		c.logger.Warn("Cache entry corrupt, ignoring", zap.Error(err))
		return nil, false
	}

	return &envelope, true
}

// Set stores an envelope. Failures are logged and swallowed; the cache is
// best-effort.
func (c *RedisCache) Set(ctx context.Context, question string, envelope *models.Envelope) {
	if c == nil || envelope == nil {
		return
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		c.logger.Warn("Cache encode failed", zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, cacheKey(question), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", zap.Error(err))
	}
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// cacheKey normalizes the question (trimmed, lowercased, collapsed spaces)
// and hashes it so arbitrary text never appears in key space.
func cacheKey(question string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return "opsight:response:" + hex.EncodeToString(sum[:])
}
