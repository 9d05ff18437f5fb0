package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultCleanupEnabled = true
	DefaultCleanupCron    = "*/10 * * * *" // 每 10 分钟扫描一次
	DefaultCleanupMaxAge  = time.Hour      // 超过该时间的临时文件视为孤儿
)

// CleanupConfig 临时文件回收任务配置.
// 请求结束时临时文件会被释放，这里只处理进程崩溃等情况遗留的孤儿文件.
type CleanupConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Cron    string        `mapstructure:"cron"    rule:"required"`
	MaxAge  time.Duration `mapstructure:"max_age" rule:"min=1000000000"`
}

func (c *CleanupConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cleanup.enabled", DefaultCleanupEnabled)
	v.SetDefault("cleanup.cron", DefaultCleanupCron)
	v.SetDefault("cleanup.max_age", DefaultCleanupMaxAge)
}
