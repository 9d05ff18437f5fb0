// Package configs 管理应用程序配置，包括服务器、上传、日志、监控、追踪和事件的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）以及旧版 conf.ini，
// 配置只在启动时读取一次，之后以 *AppConfig 的形式显式传递给各组件.
//
// Example:
//
//	cfg, v, err := configs.Load("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println(cfg.Server.Port)
//	fmt.Println(v.ConfigFileUsed())
//
// Example accessing Upload config:
//
//	dir := cfg.Upload.Path
//	limit := cfg.Upload.MaxFileSize()
//	fmt.Println(dir, limit)
package configs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yeisme/fileuploader/pkg/rule"
)

// EnvPrefix 环境变量前缀，例如 FILEUPLOADER_UPLOAD_PASSWORD.
const EnvPrefix = "FILEUPLOADER"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 服务器配置，端口、超时等
		Upload         UploadConfig         `mapstructure:"upload"`          // UploadConfig 上传目录、共享密码等
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 监控配置
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 追踪配置
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 上传接口限流
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 熔断配置
		MQ             MQConfig             `mapstructure:"mq"`              // MQConfig 消息队列配置
		Events         EventsConfig         `mapstructure:"events"`          // EventsConfig 事件开关
		Cleanup        CleanupConfig        `mapstructure:"cleanup"`         // CleanupConfig 临时文件回收
	}
)

// configExts 目录模式下按顺序查找的配置文件扩展名.
var configExts = []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

// LoadOption 在读取配置之前调整 viper，例如绑定命令行参数.
type LoadOption func(v *viper.Viper) error

// WithFlags 把命令行参数绑定到配置键（键 -> 参数名），只有显式设置的参数会覆盖其他来源.
func WithFlags(flags *pflag.FlagSet, keys map[string]string) LoadOption {
	return func(v *viper.Viper) error {
		for key, name := range keys {
			f := flags.Lookup(name)
			if f == nil {
				return fmt.Errorf("flag %s not defined", name)
			}

			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}

		return nil
	}
}

// Load 加载应用程序配置：默认值 -> 配置文件 -> 环境变量 -> 命令行参数.
// path 可以是配置文件，也可以是目录；目录下找不到配置文件时只使用默认值和环境变量.
// 返回的 *AppConfig 在进程生命周期内不再修改.
func Load(path string, opts ...LoadOption) (*AppConfig, *viper.Viper, error) {
	v := viper.New()
	setAllDefaults(v)

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, nil, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = "."
	}

	file, err := resolveConfigFile(path)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case file == "":
		// 没有配置文件，使用默认值
	case isLegacyINI(file):
		v.SetConfigFile(file)

		if err := mergeLegacyINI(v, file, LegacySection); err != nil {
			return nil, nil, err
		}
	default:
		v.SetConfigFile(file)

		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Upload.normalize()

	if err := rule.ValidateStruct(&cfg); err != nil {
		if verrs := rule.Errors(err); verrs != nil {
			return nil, nil, fmt.Errorf("invalid config: %w", verrs)
		}

		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, v, nil
}

// resolveConfigFile 解析实际使用的配置文件路径，找不到时返回空字符串.
func resolveConfigFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("config path %s: %w", path, err)
		}

		return "", err
	}

	if !info.IsDir() {
		return path, nil
	}

	for _, dir := range []string{path, filepath.Join(path, "configs")} {
		for _, ext := range configExts {
			cfg := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				return cfg, nil
			}
		}
	}

	legacy := filepath.Join(path, LegacyFileName)
	if _, err := os.Stat(legacy); err == nil {
		return legacy, nil
	}

	return "", nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var serverConfig ServerConfig

	var uploadConfig UploadConfig

	var logConfig LogConfig

	var metricsConfig MetricsConfig

	var tracingConfig TracingConfig

	var rateLimitConfig RateLimitConfig

	var cbConfig CircuitBreakerConfig

	var mqConfig MQConfig

	var eventsConfig EventsConfig

	var cleanupConfig CleanupConfig

	serverConfig.setDefaults(v)
	uploadConfig.setDefaults(v)
	logConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	rateLimitConfig.setDefaults(v)
	cbConfig.setDefaults(v)
	mqConfig.setDefaults(v)
	eventsConfig.setDefaults(v)
	cleanupConfig.setDefaults(v)
}

// Watch 监听配置文件变化. 配置在启动后不可变，onChange 只用于提示需要重启.
// 旧版 conf.ini 无法由 viper 重新读取，直接用 fsnotify 监听；ctx 结束时停止监听.
func Watch(ctx context.Context, v *viper.Viper, onChange func(fsnotify.Event)) error {
	if v == nil || v.ConfigFileUsed() == "" {
		return nil
	}

	file := v.ConfigFileUsed()
	if !isLegacyINI(file) {
		v.OnConfigChange(onChange)
		v.WatchConfig()

		return nil
	}

	return watchFile(ctx, file, onChange)
}

// watchFile 监听单个文件. 监听所在目录，以便编辑器“写新文件再改名”的保存方式也能被发现.
func watchFile(ctx context.Context, file string, onChange func(fsnotify.Event)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to watch config: %w", err)
	}

	file = filepath.Clean(file)

	if err := w.Add(filepath.Dir(file)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch config: %w", err)
	}

	go func() {
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}

				if filepath.Clean(e.Name) == file && e.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					onChange(e)
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return nil
}
