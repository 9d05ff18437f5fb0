package handle

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	ctxpkg "github.com/yeisme/fileuploader/pkg/context"
	"github.com/yeisme/fileuploader/pkg/internal/service"
)

// Upload 接收 multipart 表单上传.
//
// 校验失败和拷贝失败同样以 200 返回文案，客户端根据文案判断结果.
//
//	@Summary		上传文件
//	@Description	读取整个请求体后校验共享密码，通过后把文件写入上传目录（同名覆盖）
//	@Tags			上传
//	@Accept			multipart/form-data
//	@Produce		plain
//	@Param			pwd		formData	string	true	"共享密码"
//	@Param			file	formData	file	true	"上传的文件"
//	@Success		200		{string}	string	"上传结果文案"
//	@Failure		400		{string}	string	"请求体格式错误"
//	@Failure		413		{string}	string	"请求体过大"
//	@Failure		429		{string}	string	"请求过于频繁"
//	@Failure		500		{string}	string	"服务器内部错误"
//	@Failure		503		{string}	string	"熔断中"
//	@Router			/file_uploader/upload [post]
func (h *Handler) Upload(c *gin.Context) {
	mr, err := c.Request.MultipartReader()
	if err != nil {
		writeUploadError(c, fmt.Errorf("%w: %w", service.ErrMalformed, err))
		return
	}

	res, err := h.svc.Upload(c.Request.Context(), mr, service.RequestMeta{ClientIP: c.ClientIP()})
	if err != nil {
		writeUploadError(c, err)
		return
	}

	c.String(http.StatusOK, res.Message)
}

// writeUploadError 把上传错误映射为状态码和纯文本响应.
func writeUploadError(c *gin.Context, err error) {
	status := service.StatusOf(err)
	logger := ctxpkg.Logger(c.Request.Context())

	var body string

	switch {
	case status == http.StatusRequestEntityTooLarge:
		body = http.StatusText(status)
	case service.IsClientError(err):
		body = err.Error()
	case errors.Is(err, service.ErrCancelled):
		// 客户端多半已经断开，响应只是尽力而为
		body = http.StatusText(status)
	default:
		logger.Error().Err(err).Msg("upload failed")

		body = http.StatusText(status)
	}

	_ = c.Error(err)
	c.String(status, body)
}
