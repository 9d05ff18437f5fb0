// Package handle 提供 HTTP 请求处理器的实现：首页、上传接口和健康检查.
package handle

import (
	"fmt"

	"github.com/yeisme/fileuploader/pkg/configs"
	"github.com/yeisme/fileuploader/pkg/internal/locale"
	"github.com/yeisme/fileuploader/pkg/internal/service"
	"github.com/yeisme/fileuploader/pkg/internal/storage"
)

// Handler 聚合处理器依赖. 创建后只读，可被多个请求并发使用.
type Handler struct {
	cfg   *configs.AppConfig
	mgr   *storage.Manager
	svc   *service.UploadService
	index []byte
}

// New 创建处理器并预先渲染首页.
func New(cfg *configs.AppConfig, mgr *storage.Manager, svc *service.UploadService, catalog *locale.Catalog) (*Handler, error) {
	index, err := renderIndex(cfg, catalog)
	if err != nil {
		return nil, fmt.Errorf("render index page: %w", err)
	}

	return &Handler{cfg: cfg, mgr: mgr, svc: svc, index: index}, nil
}
