package util

import (
	"testing"
	"time"
)

func TestNewWithConfig_RequiresPositiveCapacity(t *testing.T) {
	if _, err := NewWithConfig[string, int](CacheConfig{Capacity: 0}); err == nil {
		t.Error("expected error for zero capacity")
	}
	if _, err := NewWithConfig[string, int](CacheConfig{Capacity: -1}); err == nil {
		t.Error("expected error for negative capacity")
	}
}

func TestPutGet(t *testing.T) {
	c, err := NewWithConfig[string, int](CacheConfig{Capacity: 2})
	if err != nil {
		t.Fatal(err)
	}

	c.Put("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v; want 1, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}

	c.Put("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) after update = %v, want 10", v)
	}
}

func TestEviction_LeastRecentlyUsedGoesFirst(t *testing.T) {
	c, err := NewWithConfig[string, int](CacheConfig{Capacity: 2})
	if err != nil {
		t.Fatal(err)
	}

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // a is now the most recently used
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive the eviction")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestTTL_ExpiredEntriesAreDropped(t *testing.T) {
	c, err := NewWithConfig[string, int](CacheConfig{Capacity: 4, TTL: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	c.Put("a", 1)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("fresh entry should be present")
	}

	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should be dropped on access")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after expiry, want 0", c.Len())
	}
}

func TestRemove(t *testing.T) {
	c, err := NewWithConfig[string, int](CacheConfig{Capacity: 2})
	if err != nil {
		t.Fatal(err)
	}

	c.Put("a", 1)
	c.Remove("a")
	if _, ok := c.Get("a"); ok {
		t.Error("removed entry should be gone")
	}

	// Removing an absent key is a no-op.
	c.Remove("never-present")
}
