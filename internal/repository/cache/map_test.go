package cache

import (
	"bytes"
	"strconv"
	"testing"
	"time"
)

func TestMapCacheGetSet(t *testing.T) {
	c := NewMapCache(time.Minute)
	key := TileCacheKey{MapID: "osm", X: 2, Y: 5, Z: 3}

	if _, exists, err := c.Get(key); err != nil || exists {
		t.Fatalf("expected a miss on an empty cache, got exists=%v err=%v", exists, err)
	}

	want := TileCacheValue{Data: []byte{0x89, 0x50, 0x4e, 0x47}, Format: "png", Width: 256, Height: 256}
	if err := c.Set(key, want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, exists, err := c.Get(key)
	if err != nil || !exists {
		t.Fatalf("expected a hit, got exists=%v err=%v", exists, err)
	}
	if !bytes.Equal(got.Data, want.Data) || got.Format != want.Format {
		t.Errorf("cached value mismatch: %+v", got)
	}
}

func TestMapCacheExpiry(t *testing.T) {
	c := NewMapCache(10 * time.Millisecond)
	key := TileCacheKey{MapID: "osm", X: 0, Y: 0, Z: 0}

	if err := c.Set(key, TileCacheValue{Data: []byte("tile")}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, exists, _ := c.Get(key); !exists {
		t.Fatal("entry should be live before the TTL elapses")
	}

	time.Sleep(20 * time.Millisecond)

	if _, exists, _ := c.Get(key); exists {
		t.Fatal("entry should have expired")
	}
}

func TestMapCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewMapCache(0)
	key := TileCacheKey{MapID: "osm", X: 1, Y: 1, Z: 1}

	if err := c.Set(key, TileCacheValue{Data: []byte("tile")}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, exists, _ := c.Get(key); !exists {
		t.Fatal("zero-TTL entries must not expire")
	}
}

func TestMapCacheKeysAreIndependent(t *testing.T) {
	c := NewMapCache(time.Minute)

	a := TileCacheKey{MapID: "osm", X: 1, Y: 2, Z: 3}
	b := TileCacheKey{MapID: "topo", X: 1, Y: 2, Z: 3}

	if err := c.Set(a, TileCacheValue{Data: []byte("a")}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, exists, _ := c.Get(b); exists {
		t.Error("different maps must not share cache entries")
	}
}

func BenchmarkMapCacheGet(b *testing.B) {
	c := NewMapCache(time.Minute)
	for i := 0; i < 100; i++ {
		c.Set(TileCacheKey{MapID: strconv.Itoa(i), X: i, Y: i, Z: 10}, TileCacheValue{Data: []byte("tile")})
	}
	key := TileCacheKey{MapID: "50", X: 50, Y: 50, Z: 10}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(key)
	}
}
