package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopledger/backend/internal/application/report"
	"github.com/shopledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func sampleSummary(days int64) *report.SpendingSummaryResponse {
	return &report.SpendingSummaryResponse{
		Range:      report.SummaryRange{From: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC), Days: days},
		Totals:     report.SpendTotals{TotalSpendCents: 1000, AvgPerDayCents: 333},
		ByCategory: []report.CategorySpend{{Category: "rent", TotalCents: 1000, Count: 1}},
		PnL:        report.ProfitAndLoss{GrossMarginPct: "50.00"},
	}
}

func newMiniredisCache(t *testing.T, ttl time.Duration) (*RedisSummaryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSummaryCache(client, ttl), mr
}

func TestRedisSummaryCache(t *testing.T) {
	c, mr := newMiniredisCache(t, time.Minute)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	got, gen, err := c.Get(ctx, owner, "k")
	require.NoError(t, err)
	assert.Nil(t, got, "miss")
	assert.Zero(t, gen)

	require.NoError(t, c.Set(ctx, owner, gen, "k", sampleSummary(3)))
	require.NoError(t, c.Set(ctx, other, 0, "k", sampleSummary(9)))

	got, _, err = c.Get(ctx, owner, "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sampleSummary(3).ByCategory, got.ByCategory)
	assert.Equal(t, "50.00", got.PnL.GrossMarginPct)
	assert.True(t, sampleSummary(3).Range.From.Equal(got.Range.From))

	t.Run("invalidate only affects the owner", func(t *testing.T) {
		require.NoError(t, c.Invalidate(ctx, owner))

		got, gen, err := c.Get(ctx, owner, "k")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, int64(1), gen)

		got, _, err = c.Get(ctx, other, "k")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(9), got.Range.Days)

		stored, err := mr.Get(c.generationKey(owner))
		require.NoError(t, err)
		assert.Equal(t, "1", stored)

		require.NoError(t, c.Set(ctx, owner, gen, "k", sampleSummary(4)))
		got, _, err = c.Get(ctx, owner, "k")
		require.NoError(t, err)
		assert.Equal(t, int64(4), got.Range.Days)
	})

	t.Run("a write under a superseded generation is never served", func(t *testing.T) {
		_, gen, err := c.Get(ctx, owner, "stale")
		require.NoError(t, err)
		require.NoError(t, c.Invalidate(ctx, owner))
		require.NoError(t, c.Set(ctx, owner, gen, "stale", sampleSummary(7)))

		got, _, err := c.Get(ctx, owner, "stale")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("entries expire", func(t *testing.T) {
		mr.FastForward(2 * time.Minute)
		got, _, err := c.Get(ctx, other, "k")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("corrupt entries surface as errors", func(t *testing.T) {
		require.NoError(t, mr.Set(c.entryKey(other, 0, "bad"), "{not json"))
		_, _, err := c.Get(ctx, other, "bad")
		assert.Error(t, err)
	})

	t.Run("server errors surface", func(t *testing.T) {
		mr.SetError("LOADING redis is loading the dataset")
		defer mr.SetError("")
		_, _, err := c.Get(ctx, owner, "k")
		assert.Error(t, err)
		assert.Error(t, c.Invalidate(ctx, owner))
	})
}

func TestMemorySummaryCache(t *testing.T) {
	c := NewMemorySummaryCache(time.Minute)
	now := time.Date(2026, 7, 20, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	require.NoError(t, c.Set(ctx, owner, 0, "a", sampleSummary(1)))
	require.NoError(t, c.Set(ctx, other, 0, "a", sampleSummary(2)))

	got, _, _ := c.Get(ctx, owner, "a")
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.Range.Days)

	require.NoError(t, c.Invalidate(ctx, owner))
	got, gen, _ := c.Get(ctx, owner, "a")
	assert.Nil(t, got)
	assert.Equal(t, int64(1), gen)
	got, _, _ = c.Get(ctx, other, "a")
	assert.NotNil(t, got)

	t.Run("a write under a superseded generation is dropped", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, owner, 0, "a", sampleSummary(8)))
		got, _, _ := c.Get(ctx, owner, "a")
		assert.Nil(t, got)

		require.NoError(t, c.Set(ctx, owner, gen, "a", sampleSummary(9)))
		got, _, _ = c.Get(ctx, owner, "a")
		require.NotNil(t, got)
		assert.Equal(t, int64(9), got.Range.Days)
	})

	now = now.Add(2 * time.Minute)
	got, _, _ = c.Get(ctx, other, "a")
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, other, 0, "b", sampleSummary(5)))
	assert.Len(t, c.entries[other], 1, "expired entries are pruned on write")
}

func TestSummaryCacheFactory(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	t.Run("redis disabled", func(t *testing.T) {
		c, client, err := NewSummaryCacheFactory(config.RedisConfig{}, time.Minute, WithLogger(logger)).Create(ctx)
		require.NoError(t, err)
		assert.Nil(t, client)
		assert.IsType(t, &MemorySummaryCache{}, c)
	})

	t.Run("redis reachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.RedisConfig{Enabled: true, Host: mr.Host(), Port: mustPort(t, mr)}
		c, client, err := NewSummaryCacheFactory(cfg, time.Minute, WithLogger(logger)).Create(ctx)
		require.NoError(t, err)
		require.NotNil(t, client)
		defer client.Close()
		assert.IsType(t, &RedisSummaryCache{}, c)
	})

	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("unreachable falls back", func(t *testing.T) {
		c, client, err := NewSummaryCacheFactory(unreachable, time.Minute, WithLogger(logger)).Create(ctx)
		require.NoError(t, err)
		assert.Nil(t, client)
		assert.IsType(t, &MemorySummaryCache{}, c)
	})

	t.Run("unreachable without fallback fails", func(t *testing.T) {
		_, _, err := NewSummaryCacheFactory(unreachable, time.Minute, WithInMemoryFallback(false)).Create(ctx)
		assert.Error(t, err)
	})
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	var port int
	_, err := fmt.Sscanf(mr.Port(), "%d", &port)
	require.NoError(t, err)
	return port
}
