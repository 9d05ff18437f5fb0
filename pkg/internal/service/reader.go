package service

import (
	"github.com/yeisme/fileuploader/pkg/configs"
	"github.com/yeisme/fileuploader/pkg/internal/storage/fs"
	"github.com/yeisme/fileuploader/pkg/internal/storage/pool"
)

// FieldReader 读取单个 multipart 字段. 普通字段读入内存，文件字段写入请求级临时文件.
type FieldReader struct {
	scratch      *fs.Scratch
	pool         *pool.Pool
	chunkSize    int
	maxParamSize int64
}

// NewFieldReader 创建字段读取器.
func NewFieldReader(cfg configs.UploadConfig, scratch *fs.Scratch, p *pool.Pool) *FieldReader {
	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = configs.DefaultChunkSize
	}

	maxParam := cfg.MaxParamSize
	if maxParam <= 0 {
		maxParam = configs.DefaultMaxParamSize
	}

	return &FieldReader{
		scratch:      scratch,
		pool:         p,
		chunkSize:    chunk,
		maxParamSize: maxParam,
	}
}
