package service

import (
	"crypto/subtle"

	"github.com/yeisme/fileuploader/pkg/internal/locale"
	"github.com/yeisme/fileuploader/pkg/internal/types"
)

// Rejection 校验失败的原因.
type Rejection int

const (
	RejectNone Rejection = iota
	RejectPasswordMissing
	RejectPasswordWrong
	RejectFileMissing
)

// Message 返回对应的用户文案键.
func (r Rejection) Message() locale.Key {
	switch r {
	case RejectPasswordMissing:
		return locale.PasswordMissing
	case RejectPasswordWrong:
		return locale.PasswordWrong
	case RejectFileMissing:
		return locale.FileMissing
	default:
		return ""
	}
}

// String 用于日志和事件.
func (r Rejection) String() string {
	switch r {
	case RejectNone:
		return "none"
	case RejectPasswordMissing:
		return "missing_password"
	case RejectPasswordWrong:
		return "wrong_password"
	case RejectFileMissing:
		return "missing_file"
	default:
		return "unknown"
	}
}

// Validate 校验共享密码和文件字段，不产生副作用.
// 先检查 pwd，再检查 file；两者都失败时返回文件缺失（后检查的覆盖先检查的）.
func Validate(form types.UploadForm, secret string) (types.FileField, Rejection) {
	rej := RejectNone

	switch pwd := form[KeyPassword].(type) {
	case types.ParameterField:
		if subtle.ConstantTimeCompare([]byte(pwd.Value), []byte(secret)) != 1 {
			rej = RejectPasswordWrong
		}
	default:
		rej = RejectPasswordMissing
	}

	file, ok := form[KeyFile].(types.FileField)
	if !ok {
		rej = RejectFileMissing
	}

	if rej != RejectNone {
		return types.FileField{}, rej
	}

	return file, RejectNone
}
