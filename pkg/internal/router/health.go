package router

import "github.com/gin-gonic/gin"

// RegisterHealthCheckRoute 注册健康检查路由.
func RegisterHealthCheckRoute(g *gin.RouterGroup, h Handlers) {
	healthRoutes := g.Group("/health")
	{
		healthRoutes.GET("", h.Health)
		healthRoutes.GET("/storage", h.HealthStorage)
	}
}
