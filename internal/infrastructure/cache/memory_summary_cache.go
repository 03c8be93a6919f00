package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/report"
)

type summaryEntry struct {
	value     *report.SpendingSummaryResponse
	expiresAt time.Time
}

// MemorySummaryCache is a process-local summary cache. Instances do not share
// state, so it only suits single-instance deployments and tests.
type MemorySummaryCache struct {
	mu          sync.RWMutex
	ttl         time.Duration
	entries     map[uuid.UUID]map[string]summaryEntry
	generations map[uuid.UUID]int64
	now         func() time.Time
}

// NewMemorySummaryCache creates an empty in-memory cache
func NewMemorySummaryCache(ttl time.Duration) *MemorySummaryCache {
	return &MemorySummaryCache{
		ttl:         ttl,
		entries:     make(map[uuid.UUID]map[string]summaryEntry),
		generations: make(map[uuid.UUID]int64),
		now:         time.Now,
	}
}

// Get implements report.SummaryCache
func (c *MemorySummaryCache) Get(_ context.Context, ownerID uuid.UUID, key string) (*report.SpendingSummaryResponse, int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	gen := c.generations[ownerID]
	e, ok := c.entries[ownerID][key]
	if !ok || c.now().After(e.expiresAt) {
		return nil, gen, nil
	}
	return e.value, gen, nil
}

// Set implements report.SummaryCache. A write under a superseded generation
// is dropped; expired entries of the owner are pruned on write.
func (c *MemorySummaryCache) Set(_ context.Context, ownerID uuid.UUID, generation int64, key string, summary *report.SpendingSummaryResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generations[ownerID] {
		return nil
	}
	now := c.now()
	owned := c.entries[ownerID]
	if owned == nil {
		owned = make(map[string]summaryEntry)
		c.entries[ownerID] = owned
	}
	for k, e := range owned {
		if now.After(e.expiresAt) {
			delete(owned, k)
		}
	}
	owned[key] = summaryEntry{value: summary, expiresAt: now.Add(c.ttl)}
	return nil
}

// Invalidate implements report.SummaryCache
func (c *MemorySummaryCache) Invalidate(_ context.Context, ownerID uuid.UUID) error {
	c.mu.Lock()
	delete(c.entries, ownerID)
	c.generations[ownerID]++
	c.mu.Unlock()
	return nil
}

var _ report.SummaryCache = (*MemorySummaryCache)(nil)
