// Package locale 提供面向用户的响应文案，按运维配置的语言（en 或 zh）输出.
package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key 文案键.
type Key string

const (
	PasswordMissing Key = "password.missing"
	PasswordWrong   Key = "password.wrong"
	FileMissing     Key = "file.missing"
	UploadSucceeded Key = "upload.succeeded"
	CopyFailed      Key = "copy.failed" // 参数：底层错误

	IndexTitle       Key = "index.title"
	IndexUploadDir   Key = "index.upload_dir"
	IndexMaxFileSize Key = "index.max_file_size"
	IndexPassword    Key = "index.password"
	IndexFile        Key = "index.file"
	IndexSubmit      Key = "index.submit"
)

var supported = []language.Tag{language.English, language.Chinese}

var messages = map[language.Tag]map[Key]string{
	language.English: {
		PasswordMissing: "please enter a password",
		PasswordWrong:   "incorrect password",
		FileMissing:     "please select a file",
		UploadSucceeded: "upload succeeded",
		CopyFailed:      "file copy failed %v",

		IndexTitle:       "File upload",
		IndexUploadDir:   "Upload directory",
		IndexMaxFileSize: "Max file size",
		IndexPassword:    "Password",
		IndexFile:        "File",
		IndexSubmit:      "Upload",
	},
	language.Chinese: {
		PasswordMissing: "请输入密码!",
		PasswordWrong:   "密码错误!",
		FileMissing:     "请选择文件!",
		UploadSucceeded: "文件上传成功",
		CopyFailed:      "文件复制失败 %v",

		IndexTitle:       "文件上传",
		IndexUploadDir:   "上传目录",
		IndexMaxFileSize: "最大文件大小",
		IndexPassword:    "密码",
		IndexFile:        "文件",
		IndexSubmit:      "上传",
	},
}

// Catalog 固定语言的文案表，创建后只读，可并发使用.
type Catalog struct {
	tag     language.Tag
	printer *message.Printer
}

// New 按语言标识创建文案表，无法识别的语言回退到英文.
func New(locale string) *Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	for tag, entries := range messages {
		for k, msg := range entries {
			// 键与文案都是常量，SetString 只会在格式串非法时报错
			_ = b.SetString(tag, string(k), msg)
		}
	}

	tag, _ := language.MatchStrings(language.NewMatcher(supported), locale)
	base, _ := tag.Base()

	for _, s := range supported {
		if sb, _ := s.Base(); sb == base {
			tag = s
			break
		}
	}

	return &Catalog{tag: tag, printer: message.NewPrinter(tag, message.Catalog(b))}
}

// Tag 返回实际使用的语言.
func (c *Catalog) Tag() language.Tag { return c.tag }

// Text 返回文案，args 用于带格式参数的文案.
func (c *Catalog) Text(k Key, args ...any) string {
	return c.printer.Sprintf(string(k), args...)
}
