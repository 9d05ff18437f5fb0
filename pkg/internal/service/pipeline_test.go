package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/fileuploader/pkg/configs"
	"github.com/yeisme/fileuploader/pkg/internal/types"
)

func TestClassify(t *testing.T) {
	mr := reader(t,
		param(KeyPassword, "x"),
		fileField("attachment", "a.txt", []byte("x")),
		field{name: KeyFile, content: []byte("x"), bare: true},
		param("note", "x"),
	)

	want := []types.Kind{types.KindParameter, types.KindFile, types.KindFile, types.KindParameter}

	for i, k := range want {
		part, err := mr.NextPart()
		require.NoError(t, err)
		assert.Equal(t, k, Classify(part), "part %d (%s)", i, part.FormName())
	}
}

func TestValidate(t *testing.T) {
	good := types.FileField{FileName: "a.txt", TempPath: "/tmp/fu/x.part"}

	tests := []struct {
		name string
		form types.UploadForm
		want Rejection
	}{
		{"ok", types.UploadForm{KeyPassword: types.ParameterField{Value: testSecret}, KeyFile: good}, RejectNone},
		{"empty form", types.UploadForm{}, RejectFileMissing},
		{"no password", types.UploadForm{KeyFile: good}, RejectPasswordMissing},
		{"wrong password", types.UploadForm{KeyPassword: types.ParameterField{Value: "secreT"}, KeyFile: good}, RejectPasswordWrong},
		{"password prefix", types.UploadForm{KeyPassword: types.ParameterField{Value: "sec"}, KeyFile: good}, RejectPasswordWrong},
		{"password is a file", types.UploadForm{KeyPassword: good, KeyFile: good}, RejectPasswordMissing},
		{"file is a parameter", types.UploadForm{KeyPassword: types.ParameterField{Value: testSecret}, KeyFile: types.ParameterField{Value: "a.txt"}}, RejectFileMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, rej := Validate(tt.form, testSecret)
			assert.Equal(t, tt.want, rej)

			if rej == RejectNone {
				assert.Equal(t, good, f)
			} else {
				assert.Zero(t, f)
				assert.NotEmpty(t, rej.Message())
			}
		})
	}
}

func TestAssembleLastWins(t *testing.T) {
	form := Assemble([]types.FieldInfo{
		{Key: "a", Data: types.ParameterField{Value: "1"}},
		{Key: "b", Data: types.ParameterField{Value: "2"}},
		{Key: "a", Data: types.FileField{FileName: "x"}},
	})

	require.Len(t, form, 2)
	assert.Equal(t, types.FileField{FileName: "x"}, form["a"])
	assert.Equal(t, types.ParameterField{Value: "2"}, form["b"])
}

func TestReadParameter(t *testing.T) {
	env := newTestEnv(t)
	r := NewFieldReader(configs.UploadConfig{MaxParamSize: 8}, env.mgr.Scratch, env.mgr.Pool)

	info, err := r.ReadParameter(context.Background(), strings.NewReader("日本"), "k")
	require.NoError(t, err)
	assert.Equal(t, types.FieldInfo{Key: "k", Data: types.ParameterField{Value: "日本"}}, info)

	// 恰好等于上限
	_, err = r.ReadParameter(context.Background(), strings.NewReader("12345678"), "k")
	require.NoError(t, err)

	_, err = r.ReadParameter(context.Background(), strings.NewReader("123456789"), "k")
	require.ErrorIs(t, err, ErrParamTooLarge)
}

func TestReadFileChecksumAndSize(t *testing.T) {
	env := newTestEnv(t)
	r := env.svc.reader

	content := pattern(3*testChunkSize + 1)

	info, err := r.ReadFile(context.Background(), strings.NewReader(string(content)), KeyFile, "a.bin")
	require.NoError(t, err)

	ff, ok := info.Data.(types.FileField)
	require.True(t, ok)
	assert.Equal(t, int64(len(content)), ff.Size)
	assert.Len(t, ff.Checksum, 16)
	assert.Equal(t, 1, env.scratchFiles(t))

	again, err := r.ReadFile(context.Background(), strings.NewReader(string(content)), KeyFile, "b.bin")
	require.NoError(t, err)
	assert.Equal(t, ff.Checksum, again.Data.(types.FileField).Checksum)
	assert.NotEqual(t, ff.TempPath, again.Data.(types.FileField).TempPath)
}

func TestReadFileMissingFilenameCreatesNothing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.reader.ReadFile(context.Background(), strings.NewReader("data"), KeyFile, "")
	require.ErrorIs(t, err, ErrMissingFilename)
	assert.Zero(t, env.scratchFiles(t))
}
