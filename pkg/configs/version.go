package configs

// 构建信息，通过 -ldflags "-X github.com/yeisme/fileuploader/pkg/configs.AppVersion=..." 注入.
var (
	AppVersion = "dev"
	GitCommit  = "unknown"
	BuildTime  = "unknown"
)
