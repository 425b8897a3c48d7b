// Package cache keeps the latest board snapshot of each project in Redis and
// announces every saved revision on a pub/sub channel.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/elementalai/elemental/internal/board"
)

// Store is the durable board store the cache sits in front of.
type Store interface {
	LoadBoard(ctx context.Context, projectID string) (board.Snapshot, error)
	SaveBoard(ctx context.Context, s board.Snapshot) error
}

// BoardCache wraps a Store with a Redis read-through cache. Writes go to the
// store first; the cache is refreshed only after the store accepted them.
type BoardCache struct {
	base  Store
	redis *redis.Client
	ttl   time.Duration
}

// New creates a BoardCache. A nil client turns the cache into a pass-through.
func New(base Store, client *redis.Client, ttl time.Duration) *BoardCache {
	if base == nil {
		panic("cache.New: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &BoardCache{base: base, redis: client, ttl: ttl}
}

func (c *BoardCache) LoadBoard(ctx context.Context, projectID string) (board.Snapshot, error) {
	if s, ok := c.loadFromCache(ctx, projectID); ok {
		return s, nil
	}

	s, err := c.base.LoadBoard(ctx, projectID)
	if err != nil {
		return board.Snapshot{}, err
	}

	c.store(ctx, s)
	return s, nil
}

func (c *BoardCache) SaveBoard(ctx context.Context, s board.Snapshot) error {
	if err := c.base.SaveBoard(ctx, s); err != nil {
		return err
	}
	if cached, ok := c.loadFromCache(ctx, s.ProjectID); ok && cached.Revision > s.Revision {
		return nil
	}
	c.store(ctx, s)
	c.publish(ctx, s)
	return nil
}

// Evict drops the cached board of a project.
func (c *BoardCache) Evict(ctx context.Context, projectID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, BoardKey(projectID)).Result()
}

func (c *BoardCache) loadFromCache(ctx context.Context, projectID string) (board.Snapshot, bool) {
	if c.redis == nil {
		return board.Snapshot{}, false
	}
	data, err := c.redis.Get(ctx, BoardKey(projectID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// On redis errors fall back to the store without failing.
			_ = c.redis.Del(ctx, BoardKey(projectID)).Err()
		}
		return board.Snapshot{}, false
	}
	var s board.Snapshot
	if err := json.Unmarshal(data, &s); err != nil || s.ProjectID != projectID {
		_ = c.redis.Del(ctx, BoardKey(projectID)).Err()
		return board.Snapshot{}, false
	}
	return s, true
}

func (c *BoardCache) store(ctx context.Context, s board.Snapshot) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, BoardKey(s.ProjectID), data, c.ttl).Err()
}

func (c *BoardCache) publish(ctx context.Context, s board.Snapshot) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Publish(ctx, EventsChannel(s.ProjectID), strconv.FormatInt(s.Revision, 10)).Err()
}

// BoardKey is the Redis key holding a project's board.
func BoardKey(projectID string) string {
	return "board:" + projectID
}

// EventsChannel carries the revision number of every saved board.
func EventsChannel(projectID string) string {
	return "board-events:" + projectID
}
