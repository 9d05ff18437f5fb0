package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/fileuploader/pkg/configs"
	"github.com/yeisme/fileuploader/pkg/internal/types"
)

// Health 服务健康检查，返回任务池状态.
//
//	@Summary	健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Failure	503	{object}	types.HealthResponse
//	@Router		/file_uploader/health [get]
func (h *Handler) Health(c *gin.Context) {
	stats := h.mgr.Pool.Stats()
	resp := types.HealthResponse{Status: "ok", Version: configs.AppVersion, Pool: &stats}

	if stats.Closed {
		resp.Status = "unhealthy"
		resp.Error = "worker pool closed"
		c.JSON(http.StatusServiceUnavailable, resp)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// HealthStorage 检查上传目录是否可写.
//
//	@Summary	存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Failure	503	{object}	types.HealthResponse
//	@Router		/file_uploader/health/storage [get]
func (h *Handler) HealthStorage(c *gin.Context) {
	resp := types.HealthResponse{Status: "ok", UploadDir: h.mgr.Uploads.Root()}

	if err := h.mgr.Uploads.CheckWritable(); err != nil {
		resp.Status = "unhealthy"
		resp.Error = err.Error()
		c.JSON(http.StatusServiceUnavailable, resp)

		return
	}

	c.JSON(http.StatusOK, resp)
}
