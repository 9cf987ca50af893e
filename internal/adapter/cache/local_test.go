package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T) (*LocalCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)}
	c := newLocalCache(time.Hour, clock.Now, zap.NewNop())
	t.Cleanup(func() { c.Close() })
	return c, clock
}

func TestLocalCache_SetGet(t *testing.T) {
	// Arrange
	c, _ := newTestCache(t)
	ctx := context.Background()

	// Act
	err := c.Set(ctx, "k", "evt-1", time.Minute)

	// Assert
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || got != "evt-1" {
		t.Fatalf("expected evt-1, got %q (%v)", got, err)
	}
}

func TestLocalCache_MissAndExpiry(t *testing.T) {
	c, clock := newTestCache(t)
	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ports.ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}

	_ = c.Set(ctx, "short", "v", time.Minute)
	clock.Advance(59 * time.Second)
	if _, err := c.Get(ctx, "short"); err != nil {
		t.Errorf("expected entry before deadline, got %v", err)
	}

	clock.Advance(time.Second)
	if _, err := c.Get(ctx, "short"); !errors.Is(err, ports.ErrCacheMiss) {
		t.Errorf("expected expired entry to miss, got %v", err)
	}
}

func TestLocalCache_NoExpiration(t *testing.T) {
	c, clock := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "k", "v", 0)
	clock.Advance(365 * 24 * time.Hour)

	if got, err := c.Get(ctx, "k"); err != nil || got != "v" {
		t.Errorf("expected entry without expiry to stay, got %q (%v)", got, err)
	}
}

func TestLocalCache_SweepDropsExpired(t *testing.T) {
	c, clock := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "old", "v", time.Minute)
	_ = c.Set(ctx, "keep", "v", time.Hour)
	clock.Advance(2 * time.Minute)

	c.sweep()

	if n := c.Len(); n != 1 {
		t.Errorf("expected 1 item after sweep, got %d", n)
	}
}

func TestLocalCache_Delete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "k", "v", 0)
	_ = c.Delete(ctx, "k")

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ports.ErrCacheMiss) {
		t.Errorf("expected deleted key to miss, got %v", err)
	}
}

func TestLocalCache_CloseTwice(t *testing.T) {
	c, _ := newTestCache(t)

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
