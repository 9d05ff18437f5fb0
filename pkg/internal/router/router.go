// Package router 管理路由配置，把处理器和中间件绑定到 gin 引擎.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/fileuploader/pkg/configs"
	"github.com/yeisme/fileuploader/pkg/metrics"
	"github.com/yeisme/fileuploader/pkg/middleware"
)

// Handlers 定义由应用层注入的请求处理器，由 handle.Handler 实现.
// router 包只负责将路径和处理器绑定到 gin 引擎.
type Handlers interface {
	Index(c *gin.Context)
	Upload(c *gin.Context)
	Health(c *gin.Context)
	HealthStorage(c *gin.Context)
}

// NewEngine 创建 gin 引擎并挂载全局中间件与 /metrics.
func NewEngine(cfg *configs.AppConfig) *gin.Engine {
	e := gin.New()

	e.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(cfg.Server),
	)

	if cfg.Tracing.Enabled {
		e.Use(middleware.TracingMiddleware())
	}

	if cfg.Metrics.Enabled {
		e.Use(middleware.PrometheusMiddleware())
	}

	e.Use(middleware.GzipMiddleware(cfg.Metrics.Path, cfg.Upload.UploadPath()))

	metrics.RegisterRoutes(cfg.Metrics, e)

	return e
}

// Register 绑定上传相关路由（uri 为配置的路由前缀）：
//
//	GET  <uri>                -> Index
//	POST <uri>/upload         -> Upload
//	GET  <uri>/health         -> Health
//	GET  <uri>/health/storage -> HealthStorage
//
// 上传接口额外挂载限流、熔断和请求体上限.
func Register(e *gin.Engine, cfg *configs.AppConfig, h Handlers) {
	e.GET(cfg.Upload.IndexPath(), h.Index)

	e.POST(cfg.Upload.UploadPath(),
		middleware.RateLimitMiddleware(cfg.RateLimit),
		middleware.CircuitBreakerMiddleware(cfg.CircuitBreaker),
		middleware.BodyLimitMiddleware(cfg.Upload.MaxBodySize()),
		h.Upload,
	)

	RegisterHealthCheckRoute(e.Group(cfg.Upload.URI), h)
}
