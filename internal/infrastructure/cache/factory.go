package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopledger/backend/internal/application/report"
	"github.com/shopledger/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SummaryCacheFactory picks the summary cache backend from configuration
type SummaryCacheFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SummaryCacheFactoryOption configures a SummaryCacheFactory
type SummaryCacheFactoryOption func(*SummaryCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SummaryCacheFactoryOption {
	return func(f *SummaryCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable redis degrades to the
// in-memory cache instead of failing startup. Default is true.
func WithInMemoryFallback(allow bool) SummaryCacheFactoryOption {
	return func(f *SummaryCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSummaryCacheFactory creates a new factory
func NewSummaryCacheFactory(cfg config.RedisConfig, ttl time.Duration, opts ...SummaryCacheFactoryOption) *SummaryCacheFactory {
	f := &SummaryCacheFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the summary cache and, when redis backs it, the client so
// the caller can close it and use it for health checks.
func (f *SummaryCacheFactory) Create(ctx context.Context) (report.SummaryCache, *redis.Client, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("redis disabled, using in-memory summary cache")
		return NewMemorySummaryCache(f.ttl), nil, nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("using redis summary cache", zap.String("addr", f.redisConfig.Addr()))
		return NewRedisSummaryCache(client, f.ttl), client, nil
	}
	if !f.allowInMemoryFallback {
		return nil, nil, err
	}

	f.logger.Warn("redis unavailable, falling back to in-memory summary cache. "+
		"Summaries are not shared across instances.",
		zap.Error(err),
	)
	return NewMemorySummaryCache(f.ttl), nil, nil
}
