package cache

import (
	"sync"
	"time"

	"github.com/openbasket/allocator/internal/models"
)

// PlanCache provides an in-memory L1 cache for plan lookups.
// Plans change rarely (admin-only mutation), so reads on the invest path
// are served from here and mutations invalidate.
type PlanCache struct {
	plans map[int64]planEntry
	mu    sync.RWMutex
	ttl   time.Duration
}

type planEntry struct {
	plan      *models.PlanWithTargets
	fetchedAt time.Time
}

// NewPlanCache creates a new in-memory plan cache
func NewPlanCache(ttl time.Duration) *PlanCache {
	return &PlanCache{
		plans: make(map[int64]planEntry),
		ttl:   ttl,
	}
}

// Get retrieves a cached plan if fresh
func (c *PlanCache) Get(planID int64) (*models.PlanWithTargets, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.plans[planID]
	if !exists {
		return nil, false
	}
	if time.Since(entry.fetchedAt) > c.ttl {
		return nil, false
	}
	return entry.plan, true
}

// Set caches a plan
func (c *PlanCache) Set(planID int64, plan *models.PlanWithTargets) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.plans[planID] = planEntry{
		plan:      plan,
		fetchedAt: time.Now(),
	}
}

// Invalidate removes a plan from the cache
func (c *PlanCache) Invalidate(planID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.plans, planID)
}

// Clear removes all cached plans
func (c *PlanCache) Clear() {
	c.mu.Lock()
	c.plans = make(map[int64]planEntry)
	c.mu.Unlock()
}
