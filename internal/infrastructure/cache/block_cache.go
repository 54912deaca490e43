package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domainErrors "github.com/voicegate/fraud-manager-backend/internal/domain/errors"
	"github.com/voicegate/fraud-manager-backend/internal/domain/fraud"
	"github.com/voicegate/fraud-manager-backend/internal/infrastructure/config"
	"github.com/voicegate/fraud-manager-backend/internal/service/detection"
)

const blockEntryPrefix = "fmb:block:"

// BlockEntryCache decorates a detection.BlockRegistry with read-through
// Redis caching of block entries. Only positive entries are cached;
// a miss always consults the underlying registry so an unblock takes
// effect within one TTL without negative-cache poisoning.
//
// The cache is best-effort: any Redis failure falls through to the
// registry and is logged, never surfaced to the caller.
type BlockEntryCache struct {
	registry detection.BlockRegistry
	client   *redis.Client
	logger   *zap.Logger
	ttl      time.Duration
}

// NewBlockEntryCache connects to Redis and wraps the given registry.
func NewBlockEntryCache(ctx context.Context, registry detection.BlockRegistry, cfg config.RedisConfig, logger *zap.Logger) (*BlockEntryCache, error) {
	if registry == nil {
		return nil, fmt.Errorf("block registry is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &BlockEntryCache{
		registry: registry,
		client:   client,
		logger:   logger,
		ttl:      ttl,
	}, nil
}

// GetBlockEntry serves from Redis when possible, otherwise reads the
// registry and caches a positive result.
func (c *BlockEntryCache) GetBlockEntry(ctx context.Context, phoneNumber string) (*fraud.BlockEntry, error) {
	key := blockEntryPrefix + phoneNumber

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entry fraud.BlockEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			c.logger.Debug("block entry cache hit", zap.String("phone_number", phoneNumber))
			return &entry, nil
		}
		c.logger.Warn("corrupt cached block entry, falling through",
			zap.String("phone_number", phoneNumber))
	case errors.Is(err, redis.Nil):
		// Cache miss, fall through to the registry.
	default:
		c.logger.Warn("block entry cache read failed",
			zap.String("phone_number", phoneNumber),
			zap.Error(err))
	}

	entry, err := c.registry.GetBlockEntry(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, entry)
	return entry, nil
}

// PutBlockEntry writes through to the registry and refreshes the cache.
func (c *BlockEntryCache) PutBlockEntry(ctx context.Context, entry *fraud.BlockEntry) error {
	if err := c.registry.PutBlockEntry(ctx, entry); err != nil {
		return err
	}

	c.store(ctx, blockEntryPrefix+entry.PhoneNumber, entry)
	return nil
}

func (c *BlockEntryCache) store(ctx context.Context, key string, entry *fraud.BlockEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("failed to marshal block entry for cache", zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache block entry",
			zap.String("key", key),
			zap.Error(err))
	}
}

// Invalidate drops the cached entry for a phone number.
func (c *BlockEntryCache) Invalidate(ctx context.Context, phoneNumber string) error {
	if err := c.client.Del(ctx, blockEntryPrefix+phoneNumber).Err(); err != nil {
		return domainErrors.NewExternalError("redis", "failed to invalidate block entry").WithCause(err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *BlockEntryCache) Close() error {
	return c.client.Close()
}
