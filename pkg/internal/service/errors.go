package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/yeisme/fileuploader/pkg/internal/storage/pool"
)

// 客户端错误，映射为 400.
var (
	ErrMissingFilename = errors.New("file field has no filename")
	ErrDecode          = errors.New("field value is not valid UTF-8 text")
	ErrParamTooLarge   = errors.New("field value too large")
	ErrMalformed       = errors.New("malformed multipart body")
)

// ErrTooLarge 请求体超过上限，映射为 413.
var ErrTooLarge = errors.New("request body too large")

// 临时性 I/O 错误，映射为 500.
var (
	ErrTempFileCreate = errors.New("create temp file failed")
	ErrWrite          = errors.New("write temp file failed")
	ErrCancelled      = errors.New("upload cancelled before completion")
	ErrPoolClosed     = pool.ErrPoolClosed
)

// IsClientError 判断错误是否由客户端输入导致（400）.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingFilename) ||
		errors.Is(err, ErrDecode) ||
		errors.Is(err, ErrParamTooLarge) ||
		errors.Is(err, ErrMalformed)
}

// readError 把读取请求体时的错误归类.
// 超过 MaxBytesReader 上限 -> ErrTooLarge；请求已取消 -> ErrCancelled；其余视为格式错误.
func readError(ctx context.Context, err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return fmt.Errorf("%w: limit %d bytes", ErrTooLarge, mbe.Limit)
	}

	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	return fmt.Errorf("%w: %w", ErrMalformed, err)
}

// submitError 把任务池提交失败归类.
func submitError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	case errors.Is(err, pool.ErrPoolClosed):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
}
