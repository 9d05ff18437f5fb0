package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	ctxpkg "github.com/yeisme/fileuploader/pkg/context"
	"github.com/yeisme/fileuploader/pkg/internal/types"
)

// ReadFile 把文件字段写入一个新的请求级临时文件.
//
// 每个块的写入都提交到任务池并等待完成后才读取下一块，保证字节顺序.
// 任何失败都会关闭并删除已创建的临时文件；成功时临时文件的释放由调用方负责.
func (r *FieldReader) ReadFile(ctx context.Context, part io.Reader, key, filename string) (info types.FieldInfo, err error) {
	if filename == "" {
		return types.FieldInfo{}, fmt.Errorf("field %q: %w", key, ErrMissingFilename)
	}

	f, path, err := r.scratch.Create()
	if err != nil {
		return types.FieldInfo{}, fmt.Errorf("%w: %w", ErrTempFileCreate, err)
	}

	defer func() {
		if err == nil {
			return
		}

		// 关闭可能已经在池中执行过，重复关闭的错误可以忽略
		_ = f.Close()

		if rerr := r.scratch.Release(path); rerr != nil {
			logger := ctxpkg.Logger(ctx)
			logger.Warn().Err(rerr).Str("path", path).Msg("release scratch file failed")
		}
	}()

	var (
		size int64
		h    = xxhash.New()
		buf  = make([]byte, r.chunkSize)
	)

	for {
		n, rerr := part.Read(buf)
		if n > 0 {
			chunk := buf[:n]

			// buf 在写入完成前不会被下一次 Read 复用
			if err := r.pool.Submit(ctx, func() error {
				_, werr := f.Write(chunk)
				return werr
			}); err != nil {
				return types.FieldInfo{}, fmt.Errorf("field %q: %w", key, submitError(err))
			}

			_, _ = h.Write(chunk)
			size += int64(n)
		}

		if errors.Is(rerr, io.EOF) {
			break
		}

		if rerr != nil {
			return types.FieldInfo{}, fmt.Errorf("read file field %q: %w", key, readError(ctx, rerr))
		}
	}

	if err := r.pool.Submit(ctx, f.Close); err != nil {
		return types.FieldInfo{}, fmt.Errorf("field %q: %w", key, submitError(err))
	}

	return types.FieldInfo{
		Key: key,
		Data: types.FileField{
			FileName: filename,
			TempPath: path,
			Size:     size,
			Checksum: fmt.Sprintf("%016x", h.Sum64()),
		},
	}, nil
}
