package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := New[string, int](0)
	defer c.Close()

	c.Set(ctx, "a", 1, 0)

	got, ok := c.Get(ctx, "a")
	if !ok || got != 1 {
		t.Errorf("Get(a) = %d, %v, want 1, true", got, ok)
	}
	if _, ok := c.Get(ctx, "missing"); ok {
		t.Errorf("Get(missing) found a value")
	}
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := New[string, string](0)
	defer c.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "ttl", "v", time.Minute)
	c.Set(ctx, "forever", "v", 0)

	now = now.Add(2 * time.Minute)

	if _, ok := c.Get(ctx, "ttl"); ok {
		t.Errorf("expired entry still returned")
	}
	if _, ok := c.Get(ctx, "forever"); !ok {
		t.Errorf("entry without ttl expired")
	}
	if n := c.Len(); n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}

	c.deleteExpired()
	c.mu.RLock()
	raw := len(c.items)
	c.mu.RUnlock()
	if raw != 1 {
		t.Errorf("raw items after cleanup = %d, want 1", raw)
	}
}

func TestCache_DeleteClear(t *testing.T) {
	ctx := context.Background()
	c := New[int, int](time.Hour)
	defer c.Close()

	c.Set(ctx, 1, 1, 0)
	c.Set(ctx, 2, 2, 0)
	c.Delete(ctx, 1)

	if _, ok := c.Get(ctx, 1); ok {
		t.Errorf("deleted key still present")
	}

	c.Clear()
	if n := c.Len(); n != 0 {
		t.Errorf("Len() after Clear = %d, want 0", n)
	}

	c.Close()
	c.Close()
}
