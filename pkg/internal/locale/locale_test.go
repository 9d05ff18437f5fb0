package locale_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/yeisme/fileuploader/pkg/internal/locale"
)

func TestEnglish(t *testing.T) {
	c := locale.New("en")

	assert.Equal(t, language.English, c.Tag())
	assert.Equal(t, "please enter a password", c.Text(locale.PasswordMissing))
	assert.Equal(t, "incorrect password", c.Text(locale.PasswordWrong))
	assert.Equal(t, "please select a file", c.Text(locale.FileMissing))
	assert.Equal(t, "upload succeeded", c.Text(locale.UploadSucceeded))
	assert.Equal(t, "file copy failed disk full", c.Text(locale.CopyFailed, errors.New("disk full")))
}

func TestChinese(t *testing.T) {
	for _, tag := range []string{"zh", "zh-CN", "zh-Hans"} {
		c := locale.New(tag)

		assert.Equal(t, language.Chinese, c.Tag(), tag)
		assert.Equal(t, "请输入密码!", c.Text(locale.PasswordMissing))
		assert.Equal(t, "密码错误!", c.Text(locale.PasswordWrong))
		assert.Equal(t, "请选择文件!", c.Text(locale.FileMissing))
		assert.Equal(t, "文件上传成功", c.Text(locale.UploadSucceeded))
	}
}

func TestUnknownFallsBackToEnglish(t *testing.T) {
	for _, tag := range []string{"", "fr", "not a tag"} {
		c := locale.New(tag)
		assert.Equal(t, language.English, c.Tag(), tag)
		assert.Equal(t, "upload succeeded", c.Text(locale.UploadSucceeded))
	}
}
