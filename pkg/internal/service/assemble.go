package service

import "github.com/yeisme/fileuploader/pkg/internal/types"

// Assemble 按读取顺序汇总字段，key 重复时后出现的覆盖先出现的.
// 只有在整个请求体读完之后才调用：密码字段可能出现在文件字段之前或之后.
func Assemble(fields []types.FieldInfo) types.UploadForm {
	form := make(types.UploadForm, len(fields))
	for _, f := range fields {
		form[f.Key] = f.Data
	}

	return form
}
