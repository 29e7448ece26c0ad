package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"exam-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// LeaderboardLoader computes the ranking from the backing store.
type LeaderboardLoader interface {
	LoadLeaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

// LeaderboardCache keeps the last ranking for a TTL to avoid re-reading the window on every
// request. Concurrent misses share one load. Invalidate bumps a generation; a load that
// started under an older generation is returned to its callers but never cached.
type LeaderboardCache struct {
	loader LeaderboardLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu         sync.RWMutex
	entries    []domain.LeaderboardEntry
	expiresAt  time.Time
	generation uint64
	rndMu      sync.Mutex
}

func NewLeaderboardCache(loader LeaderboardLoader, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) GetLeaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	if entries, ok := c.cached(c.clock()); ok {
		return entries, nil
	}

	gen := c.currentGeneration()
	result, err, _ := c.sf.Do(fmt.Sprintf("leaderboard:%d", gen), func() (interface{}, error) {
		now := c.clock()
		if entries, ok := c.cached(now); ok {
			return entries, nil
		}

		entries, err := c.loader.LoadLeaderboard(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation == gen {
			c.entries = entries
			c.expiresAt = now.Add(c.ttlWithJitter())
		}
		c.mu.Unlock()
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return copyEntries(result.([]domain.LeaderboardEntry)), nil
}

// Invalidate drops the cached ranking.
func (c *LeaderboardCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.expiresAt = time.Time{}
	c.generation++
	return nil
}

func (c *LeaderboardCache) currentGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *LeaderboardCache) cached(now time.Time) ([]domain.LeaderboardEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entries == nil || !c.expiresAt.After(now) {
		return nil, false
	}
	return copyEntries(c.entries), true
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func copyEntries(in []domain.LeaderboardEntry) []domain.LeaderboardEntry {
	out := make([]domain.LeaderboardEntry, len(in))
	copy(out, in)
	return out
}
