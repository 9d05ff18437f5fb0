// Package api 把上传服务的 HTTP 接口注册到 gin 引擎，供 app 和测试复用.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/fileuploader/pkg/configs"
	"github.com/yeisme/fileuploader/pkg/internal/handle"
	"github.com/yeisme/fileuploader/pkg/internal/router"
)

// RegisterGroup 注册首页、上传、健康检查和 swagger 路由到传入的 gin 引擎.
func RegisterGroup(e *gin.Engine, cfg *configs.AppConfig, h *handle.Handler) *gin.Engine {
	router.Register(e, cfg, h)
	router.RegisterSwaggerRoute(e, cfg)

	return e
}
