package cache

import (
	"strconv"
	"sync"
	"testing"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string, int](10, StringHasher)

	c.Set("key1", 42)

	val, ok := c.Get("key1")
	if !ok {
		t.Error("expected key1 to exist")
	}
	if val != 42 {
		t.Errorf("expected 42, got %d", val)
	}

	if _, ok := c.Get("nonexistent"); ok {
		t.Error("expected nonexistent key to not exist")
	}
}

func TestCacheGetOrCreate(t *testing.T) {
	c := New[string, int](10, StringHasher)
	created := 0
	create := func() int {
		created++
		return 100
	}

	if got := c.GetOrCreate("key1", create); got != 100 {
		t.Errorf("expected 100, got %d", got)
	}
	if got := c.GetOrCreate("key1", create); got != 100 {
		t.Errorf("expected cached 100, got %d", got)
	}
	if created != 1 {
		t.Errorf("expected create called once, got %d", created)
	}
}

func TestCacheEviction(t *testing.T) {
	// Capacity 1 per shard: every shard keeps only its newest key.
	c := New[string, int](1, func(string) uint64 { return 0 })

	c.Set("a", 1)
	c.Set("b", 2)

	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Errorf("Get(b) = %d, %v; want 2, true", v, ok)
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestCacheLRUOrder(t *testing.T) {
	c := New[string, int](2, func(string) uint64 { return 0 })

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a becomes most recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b (least recently used) to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive eviction")
	}
}

func TestCacheClearAndStats(t *testing.T) {
	c := New[string, int](0, StringHasher)
	for i := 0; i < 20; i++ {
		c.Set(strconv.Itoa(i), i)
	}
	if c.Len() != 20 {
		t.Errorf("Len = %d, want 20", c.Len())
	}
	c.Get("3")
	c.Get("missing")

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Stats = %+v, want 1 hit and 1 miss", s)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := New[string, int](64, StringHasher)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := strconv.Itoa(i % 50)
				v := c.GetOrCreate(key, func() int { return i % 50 })
				if strconv.Itoa(v) != key {
					t.Errorf("goroutine %d: GetOrCreate(%s) = %d", g, key, v)
					return
				}
			}
		}(g)
	}
	wg.Wait()
}
