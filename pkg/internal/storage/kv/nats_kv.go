package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yeisme/docflow/pkg/configs"
)

// NATSKV 把缓存放在 JetStream KV bucket 中.
// bucket 只保留最新一个版本，过期在读取时判断.
type NATSKV struct {
	conn *nats.Conn
	kv   nats.KeyValue
}

// NewNATSKV 连接 NATS 并打开（必要时创建）bucket.
func NewNATSKV(_ context.Context, config any) (KVStore, error) {
	conf, ok := config.(*configs.NATSKVConfig)
	if !ok || conf == nil {
		return nil, fmt.Errorf("invalid nats kv config")
	}

	opts := []nats.Option{nats.Name("docflow-kv")}
	if conf.User != "" {
		opts = append(opts, nats.UserInfo(conf.User, conf.Password))
	}

	nc, err := nats.Connect(conf.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", conf.URL, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	bucket, err := js.KeyValue(conf.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		bucket, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      conf.Bucket,
			Description: "docflow list cache",
			History:     1,
		})
	}

	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("open kv bucket %s: %w", conf.Bucket, err)
	}

	return &NATSKV{conn: nc, kv: bucket}, nil
}

// natsKeyByte 报告 b 能否原样出现在 NATS KV 键中；'=' 留作转义符.
func natsKeyByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_' || b == '/' || b == '.':
		return true
	}

	return false
}

// encodeKey 把缓存键（如 docs:p1:abc）转成合法的 NATS 键，其余字节写作 =XX.
func encodeKey(key string) string {
	var sb strings.Builder
	sb.Grow(len(key))

	for i := 0; i < len(key); i++ {
		if natsKeyByte(key[i]) {
			sb.WriteByte(key[i])
			continue
		}

		fmt.Fprintf(&sb, "=%02X", key[i])
	}

	return sb.String()
}

func decodeKey(encoded string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(encoded))

	for i := 0; i < len(encoded); i++ {
		if encoded[i] != '=' {
			sb.WriteByte(encoded[i])
			continue
		}

		if i+2 >= len(encoded) {
			return "", fmt.Errorf("truncated escape in key %q", encoded)
		}

		b, err := strconv.ParseUint(encoded[i+1:i+3], 16, 8)
		if err != nil {
			return "", fmt.Errorf("bad escape in key %q: %w", encoded, err)
		}

		sb.WriteByte(byte(b))
		i += 2
	}

	return sb.String(), nil
}

// load 读取并解开值；过期的条目顺手删除.
func (n *NATSKV) load(ctx context.Context, key string) ([]byte, error) {
	entry, err := n.kv.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("nats kv get: %w", err)
	}

	val, live, err := unseal(entry.Value(), time.Now())
	if err != nil {
		return nil, err
	}

	if !live {
		_ = n.kv.Delete(key)
		return nil, ErrKeyNotFound
	}

	return val, nil
}

// Get 获取键的值.
func (n *NATSKV) Get(ctx context.Context, key string) ([]byte, error) {
	return n.load(ctx, encodeKey(key))
}

// Set 写入值，ttl>0 时附带过期时间.
func (n *NATSKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	sealed, err := seal(value, ttl, time.Now())
	if err != nil {
		return err
	}

	if _, err := n.kv.Put(encodeKey(key), sealed); err != nil {
		return fmt.Errorf("nats kv put: %w", err)
	}

	return nil
}

// Delete 删除键，不存在时不报错.
func (n *NATSKV) Delete(ctx context.Context, key string) error {
	err := n.kv.Delete(encodeKey(key))
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("nats kv delete: %w", err)
	}

	return nil
}

// Exists 检查键是否存在且未过期.
func (n *NATSKV) Exists(ctx context.Context, key string) (bool, error) {
	_, err := n.load(ctx, encodeKey(key))
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}

	return err == nil, err
}

// Keys 列出匹配 pattern 的未过期键，返回解码后的原始键.
func (n *NATSKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	encoded, err := n.kv.Keys(nats.Context(ctx))
	if errors.Is(err, nats.ErrNoKeysFound) {
		return []string{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("nats kv keys: %w", err)
	}

	keys := make([]string, 0, len(encoded))

	for _, ek := range encoded {
		key, err := decodeKey(ek)
		if err != nil || !matchKey(pattern, key) {
			continue
		}

		if _, err := n.load(ctx, ek); errors.Is(err, ErrKeyNotFound) {
			continue
		}

		keys = append(keys, key)
	}

	return keys, nil
}

// Close 关闭连接.
func (n *NATSKV) Close() error {
	n.conn.Close()
	return nil
}

func init() {
	RegisterKVFactory(KVTypeNATS, NewNATSKV)
}
