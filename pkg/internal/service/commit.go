package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"

	"github.com/yeisme/fileuploader/pkg/internal/storage/fs"
	"github.com/yeisme/fileuploader/pkg/internal/storage/pool"
	"github.com/yeisme/fileuploader/pkg/internal/types"
)

// sniffLen 内容类型探测读取的字节数.
const sniffLen = 3072

// CommitResult 提交结果.
type CommitResult struct {
	Path        string
	Size        int64
	ContentType string
	Overwrote   bool
}

// Committer 把通过校验的临时文件拷贝到上传目录.
type Committer struct {
	scratch   *fs.Scratch
	uploads   *fs.Dir
	pool      *pool.Pool
	chunkSize int
}

// NewCommitter 创建 Committer.
func NewCommitter(scratch *fs.Scratch, uploads *fs.Dir, p *pool.Pool, chunkSize int) *Committer {
	if chunkSize <= 0 {
		chunkSize = 32 * 1024
	}

	return &Committer{scratch: scratch, uploads: uploads, pool: p, chunkSize: chunkSize}
}

// CopyError 拷贝阶段的 I/O 错误. 与取消、任务池关闭不同，它会以文案的形式返回给客户端.
type CopyError struct {
	Err error
}

func (e *CopyError) Error() string { return e.Err.Error() }

func (e *CopyError) Unwrap() error { return e.Err }

// Commit 在任务池中把临时文件拷贝为 upload_dir/<文件名>，已存在的同名文件会被覆盖.
// 拷贝失败返回 *CopyError；等待任务池时被取消返回 ErrCancelled.
func (c *Committer) Commit(ctx context.Context, file types.FileField) (CommitResult, error) {
	res, err := pool.Do(ctx, c.pool, func() (CommitResult, error) {
		res, err := c.copy(file)
		if err != nil {
			return res, &CopyError{Err: err}
		}

		return res, nil
	})
	if err != nil {
		var ce *CopyError
		if errors.As(err, &ce) {
			return CommitResult{}, err
		}

		return CommitResult{}, submitError(err)
	}

	return res, nil
}

func (c *Committer) copy(file types.FileField) (CommitResult, error) {
	overwrote, err := c.uploads.Exists(file.FileName)
	if err != nil {
		return CommitResult{}, err
	}

	src, err := c.scratch.Open(file.TempPath)
	if err != nil {
		return CommitResult{}, err
	}
	defer src.Close()

	head := make([]byte, sniffLen)

	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return CommitResult{}, err
	}

	head = head[:n]

	dst, path, err := c.uploads.Create(file.FileName)
	if err != nil {
		return CommitResult{}, err
	}

	written, err := c.write(dst, head, src)
	if cerr := dst.Close(); err == nil && cerr != nil {
		err = cerr
	}

	if err != nil {
		return CommitResult{}, fmt.Errorf("copy to %s: %w", path, err)
	}

	return CommitResult{
		Path:        path,
		Size:        written,
		ContentType: mimetype.Detect(head).String(),
		Overwrote:   overwrote,
	}, nil
}

// write 先写已读出的头部，再拷贝剩余内容.
func (c *Committer) write(dst io.Writer, head []byte, rest io.Reader) (int64, error) {
	n, err := dst.Write(head)
	if err != nil {
		return int64(n), err
	}

	m, err := io.CopyBuffer(dst, rest, make([]byte, c.chunkSize))

	return int64(n) + m, err
}
