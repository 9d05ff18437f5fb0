package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool               `mapstructure:"enabled"` // 总开关
	Upload  UploadEventsConfig `mapstructure:"upload"`
	// Audit 是否在进程内订阅上传事件并写入审计日志
	Audit bool `mapstructure:"audit"`
}

// UploadEventsConfig 针对上传生命周期的事件开关。
type UploadEventsConfig struct {
	Committed bool `mapstructure:"committed"`
	Rejected  bool `mapstructure:"rejected"`
	Failed    bool `mapstructure:"failed"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.audit", true)

	v.SetDefault("events.upload.committed", true)
	v.SetDefault("events.upload.failed", true)

	// 密码错误等拒绝事件量可能较大，默认关闭
	v.SetDefault("events.upload.rejected", false)
}
