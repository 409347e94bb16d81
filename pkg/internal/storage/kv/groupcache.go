package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/docflow/pkg/configs"
)

// GroupcacheKV 基于 Groupcache 的 KV 实现.
// 本节点写入的数据保存在 data 中；本地缺失时经 group 向对等节点取值.
type GroupcacheKV struct {
	group *groupcache.Group
	peers *groupcache.HTTPPool
	data  map[string][]byte
	mu    sync.RWMutex
}

// groupcacheGetter 为对等节点回源本地数据.
type groupcacheGetter struct {
	kv *GroupcacheKV
}

func (g *groupcacheGetter) Get(_ context.Context, key string, dest groupcache.Sink) error {
	g.kv.mu.RLock()
	value, exists := g.kv.data[key]
	g.kv.mu.RUnlock()

	if !exists {
		return ErrKeyNotFound
	}

	return dest.SetBytes(value)
}

var (
	groupsMu sync.Mutex
	groups   = map[string]*GroupcacheKV{}
)

// NewGroupcacheKV 创建 Groupcache KV 实例.
// groupcache 的 group 名在进程内唯一，同名重复创建时复用已有实例.
func NewGroupcacheKV(_ context.Context, config any) (KVStore, error) {
	gcConfig, ok := config.(*configs.GroupcacheKVConfig)
	if !ok || gcConfig == nil {
		return nil, fmt.Errorf("invalid groupcache config")
	}

	groupsMu.Lock()
	defer groupsMu.Unlock()

	if existing, ok := groups[gcConfig.Name]; ok {
		return existing, nil
	}

	kv := &GroupcacheKV{data: make(map[string][]byte)}
	kv.group = groupcache.NewGroup(gcConfig.Name, gcConfig.CacheBytes, &groupcacheGetter{kv: kv})

	if len(gcConfig.Peers) > 0 {
		kv.peers = groupcache.NewHTTPPoolOpts(gcConfig.Self, &groupcache.HTTPPoolOptions{})
		kv.peers.Set(gcConfig.Peers...)
	}

	groups[gcConfig.Name] = kv

	return kv, nil
}

func (g *GroupcacheKV) local(key string) ([]byte, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	v, ok := g.data[key]

	return v, ok
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	raw, ok := g.local(key)
	if !ok {
		if g.peers == nil {
			return nil, ErrKeyNotFound
		}

		if err := g.group.Get(ctx, key, groupcache.AllocatingByteSliceSink(&raw)); err != nil {
			return nil, fmt.Errorf("groupcache get %s: %w", key, err)
		}
	}

	val, live, err := unseal(raw, time.Now())
	if err != nil {
		return nil, err
	}

	if !live {
		_ = g.Delete(ctx, key)
		return nil, ErrKeyNotFound
	}

	return append([]byte(nil), val...), nil
}

// Set 设置键的值，TTL 通过包装值实现.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := seal(value, ttl, time.Now())
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.data[key] = encoded
	g.mu.Unlock()

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.data, key)
	g.mu.Unlock()

	return nil
}

// Exists 检查键是否存在.
func (g *GroupcacheKV) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := g.Get(ctx, key); err != nil {
		return false, nil
	}

	return true, nil
}

// Keys 获取本节点匹配模式的键.
func (g *GroupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	now := time.Now()

	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.data))

	for key, raw := range g.data {
		if !matchKey(pattern, key) {
			continue
		}

		if _, live, err := unseal(raw, now); err == nil && !live {
			continue
		}

		keys = append(keys, key)
	}

	return keys, nil
}

// Close Groupcache 没有显式的关闭方法.
func (g *GroupcacheKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeGroupcache, NewGroupcacheKV)
}
