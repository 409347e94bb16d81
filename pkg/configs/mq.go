package configs

import (
	"github.com/spf13/viper"
)

// MQType 事件总线后端.
type MQType string

const (
	MQTypeNATS   MQType = "nats"
	MQTypeRedis  MQType = "redis"
	MQTypeMemory MQType = "memory" // 进程内 gochannel，单实例与测试用
)

// MQConfig 文档事件总线配置；事件只是通知，总线不可用时工作流照常进行.
type MQConfig struct {
	Type   MQType         `mapstructure:"type"   rule:"oneof=nats redis memory"`
	Common MQCommonConfig `mapstructure:"common"`
	NATS   MQNATSConfig   `mapstructure:"nats"`
	Redis  MQRedisConfig  `mapstructure:"redis"`
}

// MQCommonConfig 连接参数，时间类字段单位为秒.
type MQCommonConfig struct {
	URL             string `mapstructure:"url"             rule:"hostname_port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	ClientID        string `mapstructure:"client_id"`
	MaxReconnects   int    `mapstructure:"max_reconnects"  rule:"min=0,max=100"`
	ReconnectWait   int    `mapstructure:"reconnect_wait"  rule:"min=1,max=300"`
	ReconnectJitter bool   `mapstructure:"reconnect_jitter"`
	MaxPingsOut     int    `mapstructure:"max_pings_out"   rule:"min=1,max=10"`
	PingInterval    int    `mapstructure:"ping_interval"   rule:"min=1,max=300"`
	BufferSize      int    `mapstructure:"buffer_size"     rule:"min=1024,max=1048576"`
	ConnPoolSize    int    `mapstructure:"conn_pool_size"  rule:"min=1,max=100"`
	// EnableMetrics 为收发端挂上 watermill 的 prometheus 指标.
	EnableMetrics bool   `mapstructure:"enable_metrics"`
	Endpoint      string `mapstructure:"endpoint"`
}

// MQNATSConfig NATS 与 JetStream 参数.
type MQNATSConfig struct {
	JetStreamEnabled       bool     `mapstructure:"jetstream_enabled"`
	JetStreamAutoProvision bool     `mapstructure:"jetstream_auto_provision"`
	JetStreamTrackMsgID    bool     `mapstructure:"jetstream_track_msg_id"`
	JetStreamAckAsync      bool     `mapstructure:"jetstream_ack_async"`
	JetStreamDurablePrefix string   `mapstructure:"jetstream_durable_prefix"`
	JWT                    string   `mapstructure:"jwt"`
	NKey                   string   `mapstructure:"nkey"`
	ClusterURLs            []string `mapstructure:"cluster_urls"`
	// LoadBalance 让多个实例的订阅者组成队列组，每条事件只投递一次.
	LoadBalance bool `mapstructure:"load_balance"`
}

// MQRedisConfig Redis pub/sub 参数.
type MQRedisConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeMemory)

	v.SetDefault("mq.common.url", "localhost:4222")
	v.SetDefault("mq.common.client_id", "docflow")
	v.SetDefault("mq.common.max_reconnects", 5)
	v.SetDefault("mq.common.reconnect_wait", 5)
	v.SetDefault("mq.common.reconnect_jitter", true)
	v.SetDefault("mq.common.max_pings_out", 3)
	v.SetDefault("mq.common.ping_interval", 20)
	v.SetDefault("mq.common.buffer_size", 32<<10)
	v.SetDefault("mq.common.conn_pool_size", 10)
	v.SetDefault("mq.common.enable_metrics", false)
	v.SetDefault("mq.common.endpoint", ":9092")

	v.SetDefault("mq.nats.jetstream_enabled", true)
	v.SetDefault("mq.nats.jetstream_auto_provision", true)
	v.SetDefault("mq.nats.jetstream_track_msg_id", true)
	v.SetDefault("mq.nats.jetstream_ack_async", true)
	v.SetDefault("mq.nats.jetstream_durable_prefix", "docflow")
	v.SetDefault("mq.nats.load_balance", true)

	v.SetDefault("mq.redis.addr", "localhost:6379")
	v.SetDefault("mq.redis.db", 0)
}
