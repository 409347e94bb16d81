package kv

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// envelopePrefix 标记带过期时间的值，NATS KV 与 groupcache 没有逐键 TTL.
var envelopePrefix = []byte("DFTTL1:")

type envelope struct {
	Value    []byte `json:"v"`
	Deadline int64  `json:"e,omitempty"`
}

// seal 为值附加过期时间；ttl<=0 时返回值的副本.
func seal(value []byte, ttl time.Duration, now time.Time) ([]byte, error) {
	if ttl <= 0 {
		return bytes.Clone(value), nil
	}

	b, err := sonic.Marshal(envelope{Value: value, Deadline: now.Add(ttl).Unix()})
	if err != nil {
		return nil, fmt.Errorf("seal kv value: %w", err)
	}

	return append(bytes.Clone(envelopePrefix), b...), nil
}

// unseal 还原值；live 为 false 表示已过期.
func unseal(raw []byte, now time.Time) (value []byte, live bool, err error) {
	if !bytes.HasPrefix(raw, envelopePrefix) {
		return raw, true, nil
	}

	var env envelope
	if err := sonic.Unmarshal(raw[len(envelopePrefix):], &env); err != nil {
		return nil, false, fmt.Errorf("unseal kv value: %w", err)
	}

	if env.Deadline > 0 && now.Unix() >= env.Deadline {
		return nil, false, nil
	}

	return env.Value, true, nil
}
