package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopledger/backend/internal/application/report"
	"github.com/shopledger/backend/internal/infrastructure/config"
)

const defaultKeyPrefix = "ledger:summary:"

// NewRedisClient connects to redis and verifies the connection with a ping
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// RedisSummaryCache stores spending summaries in redis. Entries are keyed by
// a per-owner generation counter; Invalidate bumps the counter so every entry
// of the owner becomes unreachable and later expires on its own.
type RedisSummaryCache struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
}

// NewRedisSummaryCache creates a summary cache over an existing client
func NewRedisSummaryCache(client redis.UniversalClient, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{client: client, ttl: ttl, keyPrefix: defaultKeyPrefix}
}

func (c *RedisSummaryCache) generationKey(ownerID uuid.UUID) string {
	return c.keyPrefix + "gen:" + ownerID.String()
}

func (c *RedisSummaryCache) entryKey(ownerID uuid.UUID, gen int64, key string) string {
	return fmt.Sprintf("%s%s:%d:%s", c.keyPrefix, ownerID, gen, key)
}

func (c *RedisSummaryCache) generation(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get implements report.SummaryCache
func (c *RedisSummaryCache) Get(ctx context.Context, ownerID uuid.UUID, key string) (*report.SpendingSummaryResponse, int64, error) {
	gen, err := c.generation(ctx, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("read summary generation: %w", err)
	}
	raw, err := c.client.Get(ctx, c.entryKey(ownerID, gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, nil
	}
	if err != nil {
		return nil, gen, fmt.Errorf("read cached summary: %w", err)
	}

	var out report.SpendingSummaryResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, gen, fmt.Errorf("decode cached summary: %w", err)
	}
	return &out, gen, nil
}

// Set implements report.SummaryCache. An entry written under a superseded
// generation is unreachable and only waits for its TTL.
func (c *RedisSummaryCache) Set(ctx context.Context, ownerID uuid.UUID, generation int64, key string, summary *report.SpendingSummaryResponse) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return c.client.Set(ctx, c.entryKey(ownerID, generation, key), raw, c.ttl).Err()
}

// Invalidate implements report.SummaryCache
func (c *RedisSummaryCache) Invalidate(ctx context.Context, ownerID uuid.UUID) error {
	return c.client.Incr(ctx, c.generationKey(ownerID)).Err()
}

var _ report.SummaryCache = (*RedisSummaryCache)(nil)
