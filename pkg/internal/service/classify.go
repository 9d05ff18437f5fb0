package service

import (
	"context"
	"mime/multipart"

	"github.com/yeisme/fileuploader/pkg/internal/types"
)

// 表单字段名.
const (
	KeyPassword = "pwd"
	KeyFile     = "file"
)

// Classify 根据 Content-Disposition 判断字段类型，不读取字段内容.
// 带文件名的字段是文件；名为 file 的字段即使缺少文件名也按文件处理，
// 由 ReadFile 在创建临时文件之前以 ErrMissingFilename 拒绝.
func Classify(part *multipart.Part) types.Kind {
	if part.FileName() != "" || part.FormName() == KeyFile {
		return types.KindFile
	}

	return types.KindParameter
}

// ReadField 分类并交给对应的读取器.
func (r *FieldReader) ReadField(ctx context.Context, part *multipart.Part) (types.FieldInfo, error) {
	key := part.FormName()

	switch Classify(part) {
	case types.KindFile:
		return r.ReadFile(ctx, part, key, part.FileName())
	default:
		return r.ReadParameter(ctx, part, key)
	}
}
