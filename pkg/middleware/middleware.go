// Package middleware 提供 gin 中间件：请求 ID、访问日志、监控、追踪、限流、熔断、CORS、压缩和请求体大小限制.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ctxpkg "github.com/yeisme/fileuploader/pkg/context"
	"github.com/yeisme/fileuploader/pkg/log"
)

// RequestIDHeader 请求 ID 的请求/响应头.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware 为每个请求分配请求 ID，并把带 request_id 的 logger 放入请求上下文.
// 客户端传入的合法 UUID 会被沿用.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		logger := log.Logger().With().Str("request_id", id).Logger()

		ctx := ctxpkg.WithRequestID(c.Request.Context(), id)
		ctx = ctxpkg.WithLogger(ctx, logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
