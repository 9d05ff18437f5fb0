package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/fileuploader/pkg/configs"
)

// CORSMiddleware CORS中间件，允许跨域页面直接向上传接口提交表单.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Content-Length", RequestIDHeader}
	config.ExposeHeaders = []string{RequestIDHeader}

	// 调试模式下允许浏览器携带凭据，此时不能使用通配 Origin
	if cfg.Debug {
		config.AllowAllOrigins = false
		config.AllowOriginFunc = func(string) bool { return true }
		config.AllowCredentials = true
	}

	return cors.New(config)
}
