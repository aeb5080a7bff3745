package storage

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"todo-board/domain"
)

// Cache wraps a Source with a Redis copy of the task list. Writes go to the
// source and drop the cached list so the next List reflects them.
//
// Every invalidation bumps a generation counter next to the list key. A List
// only stores what it read from the source if the counter has not moved since
// before that read, so a slow List racing a write cannot put back a stale
// snapshot.
type Cache struct {
	base   Source
	redis  *redis.Client
	ttl    time.Duration
	key    string
	genKey string
}

// NewCache creates a caching Source wrapper using the provided Redis client and TTL.
// A zero TTL disables storing; a nil client disables caching altogether.
func NewCache(base Source, client *redis.Client, board string, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base source is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	key := tasksCacheKey(board)
	return &Cache{base: base, redis: client, ttl: ttl, key: key, genKey: generationKey(key)}
}

func (c *Cache) List(ctx context.Context) ([]domain.Task, error) {
	if tasks, ok := c.load(ctx); ok {
		return tasks, nil
	}
	gen, genOK := c.generation(ctx)
	tasks, err := c.base.List(ctx)
	if err != nil {
		return nil, err
	}
	if genOK {
		c.store(ctx, gen, tasks)
	}
	return tasks, nil
}

func (c *Cache) Create(ctx context.Context, draft domain.Draft) (domain.Task, error) {
	t, err := c.base.Create(ctx, draft)
	if err != nil {
		return domain.Task{}, err
	}
	c.Invalidate(ctx)
	return t, nil
}

func (c *Cache) Delete(ctx context.Context, id int64) error {
	err := c.base.Delete(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	// A missing task means the cached list, if any, is stale as well.
	c.Invalidate(ctx)
	return err
}

// Invalidate drops the cached list and bumps the generation in one transaction.
func (c *Cache) Invalidate(ctx context.Context) {
	if c.redis == nil {
		return
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey)
		pipe.Del(ctx, c.key)
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("key", c.key).Warn("failed to evict tasks cache entry")
	}
}

// generation reads the invalidation counter; a missing counter is generation 0.
func (c *Cache) generation(ctx context.Context) (int64, bool) {
	if c.redis == nil {
		return 0, false
	}
	gen, err := c.redis.Get(ctx, c.genKey).Int64()
	if err != nil && err != redis.Nil {
		log.WithError(err).WithField("key", c.genKey).Warn("tasks cache generation read failed")
		return 0, false
	}
	return gen, true
}

func (c *Cache) load(ctx context.Context) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, c.key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the source without failing.
			log.WithError(err).WithField("key", c.key).Warn("tasks cache read failed")
			_ = c.redis.Del(ctx, c.key).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := sonic.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, c.key).Err()
		return nil, false
	}
	return tasks, true
}

// store writes tasks read at generation gen, unless an invalidation has
// happened since.
func (c *Cache) store(ctx context.Context, gen int64, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(tasks)
	if err != nil {
		return
	}
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, c.genKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != gen {
			return redis.TxFailedErr
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key, data, c.ttl)
			return nil
		})
		return err
	}, c.genKey)
	switch {
	case err == nil:
	case errors.Is(err, redis.TxFailedErr):
		log.WithField("key", c.key).Debug("tasks changed during list; not caching")
	default:
		log.WithError(err).WithField("key", c.key).Warn("failed to store tasks cache entry")
	}
}

func tasksCacheKey(board string) string {
	return "tasks:" + board
}

func generationKey(listKey string) string {
	return listKey + ":gen"
}
