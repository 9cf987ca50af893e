package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/ports"
)

type localItem struct {
	value    string
	deadline time.Time // zero means no expiry
}

func (i localItem) expired(now time.Time) bool {
	return !i.deadline.IsZero() && !now.Before(i.deadline)
}

// LocalCache is the in-process ports.Cache used when no Redis URL is
// configured. Idempotency keys then only hold for a single instance.
type LocalCache struct {
	items     map[string]localItem
	mu        sync.RWMutex
	now       func() time.Time
	done      chan struct{}
	closeOnce sync.Once
	log       *zap.Logger
}

// NewLocalCache starts a sweeper that drops expired items every interval.
func NewLocalCache(interval time.Duration, log *zap.Logger) ports.Cache {
	return newLocalCache(interval, time.Now, log)
}

func newLocalCache(interval time.Duration, now func() time.Time, log *zap.Logger) *LocalCache {
	if interval <= 0 {
		interval = time.Minute
	}
	c := &LocalCache{
		items: make(map[string]localItem),
		now:   now,
		done:  make(chan struct{}),
		log:   log,
	}
	go c.sweepEvery(interval)

	log.Info("Using in-process cache", zap.Duration("sweep_interval", interval))
	return c
}

func (c *LocalCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || item.expired(c.now()) {
		return "", ports.ErrCacheMiss
	}
	return item.value, nil
}

func (c *LocalCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	item := localItem{value: value}
	if expiration > 0 {
		item.deadline = c.now().Add(expiration)
	}

	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Ping() error { return nil }

// Close stops the sweeper. It is safe to call more than once.
func (c *LocalCache) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// Len returns the number of stored items, expired ones included until swept.
func (c *LocalCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *LocalCache) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *LocalCache) sweep() {
	now := c.now()

	c.mu.Lock()
	removed := 0
	for key, item := range c.items {
		if item.expired(now) {
			delete(c.items, key)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.log.Debug("Swept expired cache items", zap.Int("removed", removed))
	}
}
