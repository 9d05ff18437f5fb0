package service

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/yeisme/fileuploader/pkg/internal/types"
)

// ReadParameter 把字段内容完整读入内存并按 UTF-8 解码.
// 超过 max_param_size 返回 ErrParamTooLarge，非法 UTF-8 返回 ErrDecode，两者都是客户端错误.
func (r *FieldReader) ReadParameter(ctx context.Context, part io.Reader, key string) (types.FieldInfo, error) {
	buf, err := io.ReadAll(io.LimitReader(part, r.maxParamSize+1))
	if err != nil {
		return types.FieldInfo{}, fmt.Errorf("read field %q: %w", key, readError(ctx, err))
	}

	if int64(len(buf)) > r.maxParamSize {
		return types.FieldInfo{}, fmt.Errorf("field %q: %w (limit %d bytes)", key, ErrParamTooLarge, r.maxParamSize)
	}

	if !utf8.Valid(buf) {
		return types.FieldInfo{}, fmt.Errorf("field %q: %w", key, ErrDecode)
	}

	return types.FieldInfo{Key: key, Data: types.ParameterField{Value: string(buf)}}, nil
}
