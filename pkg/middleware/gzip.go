package middleware

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// GzipMiddleware 压缩文本响应（首页、健康检查、swagger）. excluded 中的路径不压缩，
// 通常是 /metrics（Prometheus 自己协商压缩）和上传接口（响应只有一行文本）.
func GzipMiddleware(excluded ...string) gin.HandlerFunc {
	return gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths(excluded))
}
