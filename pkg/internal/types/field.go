// Package types 定义上传流水线在各阶段之间传递的数据结构.
package types

// Kind 字段分类结果.
type Kind int

const (
	KindParameter Kind = iota // 普通文本字段
	KindFile                  // 文件字段
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindParameter:
		return "parameter"
	default:
		return "unknown"
	}
}

// FieldData 字段内容，只有 FileField 与 ParameterField 两种实现.
// 类型在分类时确定，之后不再变化；使用方通过 type switch 区分.
type FieldData interface {
	isFieldData()
}

// FileField 已写入临时文件的文件字段.
type FileField struct {
	FileName string // 客户端提供的文件名（已由 multipart 取 base name）
	TempPath string // 请求级临时文件路径
	Size     int64  // 写入的字节数
	Checksum string // xxhash64，十六进制
}

// ParameterField 普通文本字段.
type ParameterField struct {
	Value string
}

func (FileField) isFieldData()      {}
func (ParameterField) isFieldData() {}

// FieldInfo 单个字段的读取结果.
type FieldInfo struct {
	Key  string
	Data FieldData
}

// UploadForm 一次请求中全部字段的集合，key 重复时后出现的字段覆盖先出现的.
type UploadForm map[string]FieldData
