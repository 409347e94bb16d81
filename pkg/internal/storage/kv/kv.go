// Package kv 提供键值存储接口及 memory / redis / nats / groupcache 实现.
// docflow 用它缓存项目文档列表，键空间由 pkg/cache 管理.
package kv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/yeisme/docflow/pkg/configs"
)

// ErrKeyNotFound 键不存在或已过期.
var ErrKeyNotFound = errors.New("kv: key not found")

// Client 持有当前配置的 KVStore.
type Client struct {
	KVStore

	Type KVType
}

// KVStore 定义键值存储接口.
type KVStore interface {
	// Get 获取键的值，不存在时返回 ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 设置键的值，ttl<=0 表示不过期.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Keys 返回匹配 glob 模式的键，空模式匹配全部.
	Keys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}

// BatchDeleter 由能一次删除多个键的后端实现.
type BatchDeleter interface {
	DeleteMany(ctx context.Context, keys ...string) error
}

// DeleteKeys 删除 keys；后端支持时一次完成，否则逐个删除并汇总错误.
func DeleteKeys(ctx context.Context, store KVStore, keys ...string) error {
	if c, ok := store.(*Client); ok {
		store = c.KVStore
	}

	if bd, ok := store.(BatchDeleter); ok {
		return bd.DeleteMany(ctx, keys...)
	}

	var errs []error

	for _, k := range keys {
		if err := store.Delete(ctx, k); err != nil && !errors.Is(err, ErrKeyNotFound) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// KVType 键值存储类型.
type KVType string

const (
	KVTypeMemory     KVType = "memory"
	KVTypeRedis      KVType = "redis"
	KVTypeNATS       KVType = "nats"
	KVTypeGroupcache KVType = "groupcache"
)

// KVFactory 定义创建 KVStore 的工厂函数类型.
type KVFactory func(ctx context.Context, config any) (KVStore, error)

var (
	factoriesMu sync.RWMutex
	kvFactories = make(map[KVType]KVFactory)
)

// RegisterKVFactory 注册 KV 工厂函数.
func RegisterKVFactory(kvType KVType, factory KVFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	kvFactories[kvType] = factory
}

// GetRegisteredKVTypes 返回已注册的 KV 类型列表（已排序）.
func GetRegisteredKVTypes() []KVType {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	types := make([]KVType, 0, len(kvFactories))
	for kvType := range kvFactories {
		types = append(types, kvType)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// NewKVStore 根据类型创建 KVStore 实例.
func NewKVStore(ctx context.Context, kvType KVType, config any) (KVStore, error) {
	factoriesMu.RLock()
	factory, exists := kvFactories[kvType]
	factoriesMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported KV type: %s", kvType)
	}

	return factory(ctx, config)
}

// New 根据 KVConfig 创建 Client，每种后端只拿到自己的子配置.
func New(ctx context.Context, cfg *configs.KVConfig) (*Client, error) {
	kvType := KVType(cfg.Type)
	if kvType == "" {
		kvType = KVTypeMemory
	}

	var sub any

	switch kvType {
	case KVTypeRedis:
		sub = &cfg.Redis
	case KVTypeNATS:
		sub = &cfg.NATS
	case KVTypeGroupcache:
		sub = &cfg.Groupcache
	}

	store, err := NewKVStore(ctx, kvType, sub)
	if err != nil {
		return nil, fmt.Errorf("init %s kv: %w", kvType, err)
	}

	return &Client{KVStore: store, Type: kvType}, nil
}

// NewKVClient 使用全局配置创建 Client.
func NewKVClient(ctx context.Context) (*Client, error) {
	cfg := configs.GetConfig().KV
	return New(ctx, &cfg)
}

// matchKey 判断 key 是否匹配 glob 模式.
func matchKey(pattern, key string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}

	ok, err := path.Match(pattern, key)

	return err == nil && ok
}
