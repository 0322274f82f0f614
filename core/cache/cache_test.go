package cache

import (
	"sync"
	"testing"
)

func TestLRUCache_BasicOperations(t *testing.T) {
	c := NewLRUCache[uint32, []byte](Config{MaxSize: 3})

	c.Put(1, []byte("one"))
	c.Put(2, []byte("two"))

	if v, ok := c.Get(1); !ok || string(v) != "one" {
		t.Errorf("Get(1) = %q, %v; want one, true", v, ok)
	}
	if _, ok := c.Get(9); ok {
		t.Error("Get(9) should return false")
	}
	if n := c.Len(); n != 2 {
		t.Errorf("Len() = %d; want 2", n)
	}

	c.Put(1, []byte("uno"))
	if v, _ := c.Get(1); string(v) != "uno" {
		t.Errorf("Get(1) after update = %q", v)
	}
	if n := c.Len(); n != 2 {
		t.Errorf("Len() after update = %d; want 2", n)
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	var evicted []uint32
	c := NewLRUCache[uint32, int](Config{
		MaxSize: 2,
		OnEvict: func(key, _ any) { evicted = append(evicted, key.(uint32)) },
	})

	c.Put(1, 1)
	c.Put(2, 2)
	c.Get(1)    // 2 is now least recently used
	c.Put(3, 3) // evicts 2

	if _, ok := c.Get(2); ok {
		t.Error("Get(2) should return false after eviction")
	}
	if _, ok := c.Get(1); !ok {
		t.Error("recently used entry was evicted")
	}
	if len(evicted) != 1 || evicted[0] != 2 {
		t.Errorf("evicted = %v; want [2]", evicted)
	}
}

func TestLRUCache_Stats(t *testing.T) {
	c := NewLRUCache[uint32, int](Config{MaxSize: 1})
	c.Put(1, 1)
	c.Get(1)
	c.Get(2)
	c.Put(2, 2)

	s := c.Stats()
	want := Stats{Hits: 1, Misses: 1, Evictions: 1, Size: 1, MaxSize: 1}
	if s != want {
		t.Errorf("Stats() = %+v; want %+v", s, want)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}

func TestLRUCache_UnlimitedSize(t *testing.T) {
	c := NewLRUCache[int, int](Config{MaxSize: -5})
	for i := 0; i < 1000; i++ {
		c.Put(i, i)
	}
	if c.Len() != 1000 {
		t.Errorf("Len() = %d; want 1000", c.Len())
	}
	if c.Stats().Evictions != 0 {
		t.Error("unlimited cache evicted entries")
	}
}

func TestLRUCache_Concurrency(t *testing.T) {
	c := NewLRUCache[int, int](Config{MaxSize: 50})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.Put(g*1000+i, i)
				c.Get(g*1000 + i/2)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len() = %d; want <= 50", c.Len())
	}
}
