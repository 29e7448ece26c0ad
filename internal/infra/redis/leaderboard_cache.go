package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"exam-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// LeaderboardLoader computes the ranking from the backing store.
type LeaderboardLoader interface {
	LoadLeaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

// LeaderboardCache stores the ranked board in Redis so every instance serves the same
// snapshot and a burst of misses costs one window read.
// The board is stored as JSON: SET leaderboard:top <entries> EX <ttl>
// Invalidate bumps leaderboard:gen; a board loaded under an older generation is not stored.
type LeaderboardCache struct {
	client *redis.Client
	loader LeaderboardLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

const (
	leaderboardKey = "leaderboard:top"
	generationKey  = "leaderboard:gen"
)

func NewLeaderboardCache(client *redis.Client, loader LeaderboardLoader, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) GetLeaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	if entries, ok := c.cached(ctx); ok {
		return entries, nil
	}

	gen, err := c.generation(ctx)
	if err != nil {
		return nil, err
	}
	result, err, _ := c.sf.Do(leaderboardKey+":"+gen, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if entries, ok := c.cached(ctx); ok {
			return entries, nil
		}

		entries, err := c.loader.LoadLeaderboard(ctx)
		if err != nil {
			return nil, err
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			payload, err := json.Marshal(entries)
			if err != nil {
				return nil, fmt.Errorf("encode leaderboard: %w", err)
			}
			if err := c.store(ctx, gen, payload, ttl); err != nil {
				// Serving the fresh board matters more than caching it.
				log.Printf("cache leaderboard: %v", err)
			}
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.LeaderboardEntry), nil
}

// Invalidate drops the cached board so the next read recomputes it.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, leaderboardKey)
		pipe.Incr(ctx, generationKey)
		return nil
	})
	return err
}

func (c *LeaderboardCache) generation(ctx context.Context) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("read leaderboard generation: %w", err)
	}
	return gen, nil
}

// store writes the board only while the generation it was loaded under is still current.
func (c *LeaderboardCache) store(ctx context.Context, gen string, payload []byte, ttl time.Duration) error {
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Result()
		if errors.Is(err, redis.Nil) {
			current = "0"
		} else if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, leaderboardKey, payload, ttl)
			return nil
		})
		return err
	}, generationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (c *LeaderboardCache) cached(ctx context.Context) ([]domain.LeaderboardEntry, bool) {
	payload, err := c.client.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("read cached leaderboard: %v", err)
		}
		return nil, false
	}
	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		log.Printf("decode cached leaderboard: %v", err)
		return nil, false
	}
	return entries, true
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
