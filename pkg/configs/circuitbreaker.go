package configs

import "github.com/spf13/viper"

const (
	DefaultCBEnabled           = false
	DefaultCBFailureRate       = 0.5
	DefaultCBMinRequests       = 10
	DefaultCBIntervalSeconds   = 60
	DefaultCBTimeoutSeconds    = 30
	DefaultCBMaxRequestsInHalf = 2
)

// CircuitBreakerConfig 上传接口熔断配置.
// 只有 5xx（临时文件创建失败、磁盘写入失败等存储故障）计为失败，
// 密码错误、缺少文件这类 4xx 不会让熔断器打开.
type CircuitBreakerConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	FailureRate       float64 `mapstructure:"failure_rate"         rule:"min=0,max=1"` // 失败比例阈值 [0,1]
	MinRequests       uint32  `mapstructure:"min_requests"         rule:"min=1"`       // 进入统计的最小请求数
	IntervalSeconds   int     `mapstructure:"interval_seconds"     rule:"min=0"`       // 统计周期，0 表示不清零
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"      rule:"min=1"`       // 打开状态持续时间（之后半开）
	MaxRequestsInHalf uint32  `mapstructure:"max_requests_in_half" rule:"min=1"`       // 半开状态允许的探测请求数
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", DefaultCBEnabled)
	v.SetDefault("circuit_breaker.failure_rate", DefaultCBFailureRate)
	v.SetDefault("circuit_breaker.min_requests", DefaultCBMinRequests)
	v.SetDefault("circuit_breaker.interval_seconds", DefaultCBIntervalSeconds)
	v.SetDefault("circuit_breaker.timeout_seconds", DefaultCBTimeoutSeconds)
	v.SetDefault("circuit_breaker.max_requests_in_half", DefaultCBMaxRequestsInHalf)
}
