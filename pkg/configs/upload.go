package configs

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultUploadPath      = "./"             // 上传目录
	DefaultUploadURI       = "/file_uploader" // 路由前缀
	DefaultUploadPassword  = "123456"         // 共享密码
	DefaultMaxFileSizeMB   = 10               // 最大文件大小（MB）
	DefaultChunkSize       = 32 * 1024        // 单次写入块大小（字节）
	DefaultMaxParamSize    = 1 << 20          // 普通字段最大长度（字节）
	DefaultLocale          = "en"             // 响应文案语言
	DefaultRemoveTemp      = true             // 提交或失败后删除临时文件
	DefaultWorkersPerCPU   = 4                // 未配置 workers 时每个 CPU 的工作协程数
	DefaultScratchDirName  = "fileuploader"   // 系统临时目录下的子目录名
	multipartOverheadBytes = 1 << 20          // multipart 边界和普通字段的额外预留
)

// UploadConfig 上传相关配置.
type UploadConfig struct {
	Path          string `mapstructure:"path"             rule:"required"`
	URI           string `mapstructure:"uri"              rule:"uri_prefix"`
	Password      string `mapstructure:"password"         rule:"required"`
	MaxFileSizeMB int    `mapstructure:"max_file_size_mb" rule:"min=1"`
	TempDir       string `mapstructure:"temp_dir"`
	Workers       int    `mapstructure:"workers"          rule:"min=0,max=4096"`
	ChunkSize     int    `mapstructure:"chunk_size"       rule:"min=512,max=16777216"`
	MaxParamSize  int64  `mapstructure:"max_param_size"   rule:"min=1"`
	Locale        string `mapstructure:"locale"           rule:"oneof=en zh"`
	RemoveTemp    bool   `mapstructure:"remove_temp"`
}

// MaxFileSize 返回最大文件大小（字节）.
func (c *UploadConfig) MaxFileSize() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// MaxBodySize 返回整个请求体允许的最大字节数，包含 multipart 的额外开销.
func (c *UploadConfig) MaxBodySize() int64 {
	return c.MaxFileSize() + c.MaxParamSize + multipartOverheadBytes
}

// ScratchDir 返回临时文件目录，未配置时使用系统临时目录.
func (c *UploadConfig) ScratchDir() string {
	if c.TempDir != "" {
		return c.TempDir
	}

	return filepath.Join(os.TempDir(), DefaultScratchDirName)
}

// PoolSize 返回阻塞任务池大小.
func (c *UploadConfig) PoolSize() int {
	if c.Workers > 0 {
		return c.Workers
	}

	return DefaultWorkersPerCPU * runtime.GOMAXPROCS(0)
}

// IndexPath 返回首页路由.
func (c *UploadConfig) IndexPath() string {
	if c.URI == "" {
		return "/"
	}

	return c.URI
}

// UploadPath 返回上传接口路由.
func (c *UploadConfig) UploadPath() string {
	return c.URI + "/upload"
}

// normalize 规范化路由前缀：保证以 / 开头、不以 / 结尾，根路径表示为空串.
func (c *UploadConfig) normalize() {
	uri := strings.TrimSpace(c.URI)
	uri = strings.TrimRight(uri, "/")

	if uri != "" && !strings.HasPrefix(uri, "/") {
		uri = "/" + uri
	}

	c.URI = uri
	c.Locale = strings.ToLower(strings.TrimSpace(c.Locale))
}

// setDefaults 设置上传配置的默认值.
func (c *UploadConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("upload.path", DefaultUploadPath)
	v.SetDefault("upload.uri", DefaultUploadURI)
	v.SetDefault("upload.password", DefaultUploadPassword)
	v.SetDefault("upload.max_file_size_mb", DefaultMaxFileSizeMB)
	v.SetDefault("upload.temp_dir", "")
	v.SetDefault("upload.workers", 0)
	v.SetDefault("upload.chunk_size", DefaultChunkSize)
	v.SetDefault("upload.max_param_size", DefaultMaxParamSize)
	v.SetDefault("upload.locale", DefaultLocale)
	v.SetDefault("upload.remove_temp", DefaultRemoveTemp)
}
