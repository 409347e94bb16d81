package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）.
type EventsConfig struct {
	Enabled  bool                 `mapstructure:"enabled"`  // 总开关
	Producer string               `mapstructure:"producer"` // 事件头中的生产者标识
	Document DocumentEventsConfig `mapstructure:"document"`
}

// DocumentEventsConfig 针对文档领域的事件开关.
type DocumentEventsConfig struct {
	Uploaded    bool `mapstructure:"uploaded"`
	Approved    bool `mapstructure:"approved"`
	Rejected    bool `mapstructure:"rejected"`
	Reviewed    bool `mapstructure:"reviewed"`
	Updated     bool `mapstructure:"updated"`
	Deleted     bool `mapstructure:"deleted"`
	BlobOrphans bool `mapstructure:"blob_orphans"`
}

// setDefaults 设置事件配置的默认值.
func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.producer", "docflow")

	// 状态流转事件默认全部开启
	v.SetDefault("events.document.uploaded", true)
	v.SetDefault("events.document.approved", true)
	v.SetDefault("events.document.rejected", true)
	v.SetDefault("events.document.reviewed", true)
	v.SetDefault("events.document.deleted", true)
	v.SetDefault("events.document.blob_orphans", true)

	// 元数据编辑较频繁，默认关闭
	v.SetDefault("events.document.updated", false)
}
