package configs

import (
	"github.com/spf13/viper"
)

// KVConfig 文档列表缓存的存储后端；memory 只在单实例内有效.
type KVConfig struct {
	Type       string             `mapstructure:"type"       rule:"oneof=memory redis nats groupcache"`
	Redis      RedisKVConfig      `mapstructure:"redis"`
	NATS       NATSKVConfig       `mapstructure:"nats"`
	Groupcache GroupcacheKVConfig `mapstructure:"groupcache"`
}

// RedisKVConfig Redis 后端；Prefix 加在每个键前.
type RedisKVConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
	Prefix   string `mapstructure:"prefix"`
}

// NATSKVConfig JetStream KV 后端.
type NATSKVConfig struct {
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Bucket   string `mapstructure:"bucket" rule:"required"`
}

// GroupcacheKVConfig groupcache 后端；Self 与 Peers 为各实例的 http 基地址.
type GroupcacheKVConfig struct {
	Name       string   `mapstructure:"name"        rule:"required"`
	CacheBytes int64    `mapstructure:"cache_bytes" rule:"min=1048576"`
	Self       string   `mapstructure:"self"        rule:"omitempty,url"`
	Peers      []string `mapstructure:"peers"       rule:"dive,url"`
}

func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", "memory")

	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.db", 0)
	v.SetDefault("kv.redis.prefix", "docflow:")

	v.SetDefault("kv.nats.url", "nats://localhost:4222")
	v.SetDefault("kv.nats.bucket", "docflow-cache")

	v.SetDefault("kv.groupcache.name", "docflow-lists")
	v.SetDefault("kv.groupcache.cache_bytes", 64<<20)
	v.SetDefault("kv.groupcache.self", "http://localhost:8080")
	v.SetDefault("kv.groupcache.peers", []string{})
}
