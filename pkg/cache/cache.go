// Package cache 提供基于键值存储的泛型缓存，值使用 sonic 编码.
//
// 基本用法:
//
//	c := cache.NewCache(kvClient)
//	docs, err := cache.GetOrSet(ctx, c, cache.Key("docs", projectID, digest), loadDocs, 30*time.Second)
//
// 缓存未命中时 Get 返回底层 KV 的错误（通常为 kv.ErrKeyNotFound），调用方应将其视为未命中.
// 失效以命名空间为单位，见 InvalidatePrefix.
// 读穿与失效并发时，把 Generation 放进键里并在失效时 Bump，加载期间写回的旧值不会再被读到.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/yeisme/docflow/pkg/internal/storage/kv"
)

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore kv.KVStore
}

// NewCache 创建一个新的缓存实例.
func NewCache(kvStore kv.KVStore) *Cache {
	return &Cache{
		kvStore: kvStore,
	}
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, key, data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, key)
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, key)
}

// GetOrSet 获取缓存值，如果不存在则设置.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	var zero T

	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	value, err := getter()
	if err != nil {
		return zero, err
	}

	// 写缓存失败不影响返回值
	_ = Set(ctx, c, key, value, ttl)

	return value, nil
}

// Clear 清空缓存.
func (c *Cache) Clear(ctx context.Context) error {
	return c.deleteMatching(ctx, "*")
}

// InvalidatePrefix 删除以 prefix 开头的全部键.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) error {
	return c.deleteMatching(ctx, prefix+"*")
}

func (c *Cache) deleteMatching(ctx context.Context, pattern string) error {
	keys, err := c.kvStore.Keys(ctx, pattern)
	if err != nil || len(keys) == 0 {
		return err
	}

	return kv.DeleteKeys(ctx, c.kvStore, keys...)
}

// initialGeneration 从未 Bump 过的范围使用的代号.
const initialGeneration = "0"

func generationKey(scope string) string { return "gen:" + scope }

// Generation 返回 scope 当前的代号，读取失败时按初始代号处理.
func (c *Cache) Generation(ctx context.Context, scope string) string {
	data, err := c.kvStore.Get(ctx, generationKey(scope))
	if err != nil || len(data) == 0 {
		return initialGeneration
	}

	return string(data)
}

// Bump 为 scope 换一个新代号；旧代号下的键之后不会再被拼出来.
func (c *Cache) Bump(ctx context.Context, scope string) error {
	return c.kvStore.Set(ctx, generationKey(scope), []byte(uuid.NewString()), 0)
}

// Key 用 ":" 拼接命名空间与各段.
func Key(namespace string, parts ...string) string {
	return namespace + ":" + strings.Join(parts, ":")
}

// Digest 对任意可编码的值计算 xxhash 摘要，用于把查询条件压缩成键的一段.
// map 按键排序编码，摘要与遍历顺序无关.
func Digest(v any) string {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		data = []byte(fmt.Sprint(v))
	}

	return strconv.FormatUint(xxhash.Sum64(data), 16)
}
