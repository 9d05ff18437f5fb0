package types

import "github.com/yeisme/fileuploader/pkg/internal/storage/pool"

// HealthResponse 健康检查响应.
type HealthResponse struct {
	Status    string      `json:"status"               example:"ok"`
	Version   string      `json:"version,omitempty"    example:"v1.0.0"`
	UploadDir string      `json:"upload_dir,omitempty" example:"/srv/files"`
	Pool      *pool.Stats `json:"pool,omitempty"`
	Error     string      `json:"error,omitempty"`
}
