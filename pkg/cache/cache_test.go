package cache_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/yeisme/docflow/pkg/cache"
	"github.com/yeisme/docflow/pkg/internal/storage/kv"
)

type listing struct {
	IDs   []string       `json:"ids"`
	Total int            `json:"total"`
	Tabs  map[string]int `json:"tabs"`
}

func newCache(t *testing.T) (*cache.Cache, kv.KVStore) {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewMemoryKV: %v", err)
	}

	return cache.NewCache(store), store
}

func TestSetAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	want := listing{IDs: []string{"d1", "d2"}, Total: 2, Tabs: map[string]int{"all": 2, "pending": 1}}
	key := cache.Key("docs", "p1", "alice")

	if err := cache.Set(ctx, c, key, want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := cache.Get[listing](ctx, c, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.Total != 2 || len(got.IDs) != 2 || got.Tabs["pending"] != 1 {
		t.Errorf("Get = %+v, want %+v", got, want)
	}

	if _, err := cache.Get[listing](ctx, c, cache.Key("docs", "p2")); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Errorf("miss = %v, want kv.ErrKeyNotFound", err)
	}
}

func TestGetOrSetLoadsOnce(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)
	key := cache.Key("docs", "p1", cache.Digest(map[string]string{"tab": "pending"}))

	loads := 0
	load := func() (listing, error) {
		loads++
		return listing{IDs: []string{"d1"}, Total: 1}, nil
	}

	for range 3 {
		got, err := cache.GetOrSet(ctx, c, key, load, time.Minute)
		if err != nil || got.Total != 1 {
			t.Fatalf("GetOrSet = %+v, %v", got, err)
		}
	}

	if loads != 1 {
		t.Errorf("loader ran %d times, want 1", loads)
	}
}

func TestGetOrSetDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)
	boom := errors.New("metadata store down")

	if _, err := cache.GetOrSet(ctx, c, "docs:p1:x", func() (listing, error) { return listing{}, boom }, time.Minute); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}

	ok, err := c.Exists(ctx, "docs:p1:x")
	if err != nil || ok {
		t.Errorf("failed load was cached: exists=%v err=%v", ok, err)
	}
}

func TestInvalidatePrefixIsScopedToProject(t *testing.T) {
	ctx := context.Background()
	c, store := newCache(t)

	for _, key := range []string{"docs:p1:a", "docs:p1:b", "docs:p10:a", "docs:p2:a", "health:probe"} {
		if err := cache.Set(ctx, c, key, 1, 0); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}

	if err := c.InvalidatePrefix(ctx, cache.Key("docs", "p1")+":"); err != nil {
		t.Fatalf("InvalidatePrefix: %v", err)
	}

	keys, _ := store.Keys(ctx, "*")
	sort.Strings(keys)

	want := []string{"docs:p10:a", "docs:p2:a", "health:probe"}
	if len(keys) != len(want) {
		t.Fatalf("remaining keys = %v, want %v", keys, want)
	}

	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("remaining keys = %v, want %v", keys, want)
			break
		}
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if keys, _ = store.Keys(ctx, "*"); len(keys) != 0 {
		t.Errorf("keys after Clear = %v", keys)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	_ = cache.Set(ctx, c, "docs:p1:a", "v", 0)

	if err := c.Delete(ctx, "docs:p1:a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if ok, _ := c.Exists(ctx, "docs:p1:a"); ok {
		t.Error("key still exists after Delete")
	}
}

func TestKeyAndDigest(t *testing.T) {
	if got := cache.Key("docs", "p1", "alice", "ff"); got != "docs:p1:alice:ff" {
		t.Errorf("Key = %q", got)
	}

	a := cache.Digest(map[string]any{"tab": "all", "types": []string{"contract"}})
	b := cache.Digest(map[string]any{"types": []string{"contract"}, "tab": "all"})
	c := cache.Digest(map[string]any{"tab": "review"})

	if a != b {
		t.Errorf("digest depends on map order: %s != %s", a, b)
	}

	if a == c {
		t.Error("different filters share a digest")
	}
}

func TestBumpHidesValuesLoadedUnderOldGeneration(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	if got := c.Generation(ctx, "docs:p1"); got != "0" {
		t.Fatalf("initial generation = %q, want %q", got, "0")
	}

	stale := c.Generation(ctx, "docs:p1")

	// 加载过程中发生失效，旧结果仍写在旧代号下
	_, err := cache.GetOrSet(ctx, c, cache.Key("docs", "p1", stale), func() (listing, error) {
		if err := c.Bump(ctx, "docs:p1"); err != nil {
			return listing{}, err
		}

		return listing{IDs: []string{"old"}, Total: 1}, nil
	}, time.Minute)
	if err != nil {
		t.Fatalf("GetOrSet: %v", err)
	}

	fresh := c.Generation(ctx, "docs:p1")
	if fresh == stale {
		t.Fatalf("generation not bumped: %q", fresh)
	}

	if _, err := cache.Get[listing](ctx, c, cache.Key("docs", "p1", fresh)); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Errorf("lookup under new generation = %v, want kv.ErrKeyNotFound", err)
	}

	if other := c.Generation(ctx, "docs:p2"); other != "0" {
		t.Errorf("unrelated scope generation = %q, want %q", other, "0")
	}
}
