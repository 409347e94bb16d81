package kv

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"
)

func TestMemoryKVTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	m := newMemoryKV(func() time.Time { return now })
	ctx := context.Background()

	if err := m.Set(ctx, "docs:p1", []byte("v"), 30*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := m.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	now = now.Add(29 * time.Second)

	if _, err := m.Get(ctx, "docs:p1"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	now = now.Add(time.Second)

	if _, err := m.Get(ctx, "docs:p1"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get after expiry = %v, want ErrKeyNotFound", err)
	}

	keys, _ := m.Keys(ctx, "*")
	if len(keys) != 1 || keys[0] != "forever" {
		t.Errorf("Keys = %v, want [forever]", keys)
	}
}

func TestSealedValues(t *testing.T) {
	now := time.Now()

	raw, err := seal([]byte("payload"), time.Minute, now)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	val, live, err := unseal(raw, now)
	if err != nil || !live || string(val) != "payload" {
		t.Fatalf("unseal = %q live=%v err=%v", val, live, err)
	}

	if _, live, _ = unseal(raw, now.Add(2*time.Minute)); live {
		t.Error("value should expire after ttl")
	}

	plain, _ := seal([]byte("plain"), 0, now)
	if string(plain) != "plain" {
		t.Errorf("ttl<=0 stored %q, want raw value", plain)
	}
}

var validNATSKey = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)

func TestNATSKeyEncoding(t *testing.T) {
	for _, key := range []string{"docs:p1:3f2a", "docs:site 7:a=b", "plain-key_1.x", "你好"} {
		enc := encodeKey(key)
		if !validNATSKey.MatchString(enc) {
			t.Errorf("encodeKey(%q) = %q, not a valid nats key", key, enc)
		}

		dec, err := decodeKey(enc)
		if err != nil || dec != key {
			t.Errorf("decodeKey(%q) = %q, %v; want %q", enc, dec, err, key)
		}
	}

	if got := encodeKey("docs:p1"); got != "docs=3Ap1" {
		t.Errorf("encodeKey = %q", got)
	}

	if _, err := decodeKey("docs=3"); err == nil {
		t.Error("truncated escape should fail")
	}
}
