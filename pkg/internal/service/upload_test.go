package service

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/fileuploader/pkg/configs"
	"github.com/yeisme/fileuploader/pkg/internal/storage/fs"
	"github.com/yeisme/fileuploader/pkg/queue"
)

var meta = RequestMeta{ClientIP: "127.0.0.1"}

func TestUploadCommits(t *testing.T) {
	env := newTestEnv(t)
	content := []byte("hello, world")

	res, err := env.svc.Upload(context.Background(), reader(t,
		param(KeyPassword, testSecret),
		fileField(KeyFile, "hello.txt", content),
	), meta)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCommitted, res.Outcome)
	assert.Equal(t, "upload succeeded", res.Message)
	assert.Equal(t, "hello.txt", res.File.FileName)
	assert.Equal(t, int64(len(content)), res.Commit.Size)
	assert.False(t, res.Commit.Overwrote)
	assert.Equal(t, content, env.uploaded(t, "hello.txt"))
	assert.Zero(t, env.scratchFiles(t))
}

func TestUploadPasswordAfterFile(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.Upload(context.Background(), reader(t,
		fileField(KeyFile, "a.bin", []byte{0, 1, 2}),
		param("comment", "ignored"),
		param(KeyPassword, testSecret),
	), meta)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCommitted, res.Outcome)
	assert.Equal(t, []byte{0, 1, 2}, env.uploaded(t, "a.bin"))
}

func TestUploadRejections(t *testing.T) {
	tests := []struct {
		name    string
		fields  []field
		want    Rejection
		message string
	}{
		{
			name:    "missing password",
			fields:  []field{fileField(KeyFile, "a.txt", []byte("x"))},
			want:    RejectPasswordMissing,
			message: "please enter a password",
		},
		{
			name:    "wrong password",
			fields:  []field{param(KeyPassword, "nope"), fileField(KeyFile, "a.txt", []byte("x"))},
			want:    RejectPasswordWrong,
			message: "incorrect password",
		},
		{
			name:    "missing file",
			fields:  []field{param(KeyPassword, testSecret)},
			want:    RejectFileMissing,
			message: "please select a file",
		},
		{
			name:    "wrong password and missing file",
			fields:  []field{param(KeyPassword, "nope")},
			want:    RejectFileMissing,
			message: "please select a file",
		},
		{
			name:    "file under another key",
			fields:  []field{param(KeyPassword, testSecret), fileField("attachment", "a.txt", []byte("x"))},
			want:    RejectFileMissing,
			message: "please select a file",
		},
		{
			name:    "password sent as file",
			fields:  []field{fileField(KeyPassword, "pwd.txt", []byte(testSecret)), fileField(KeyFile, "a.txt", []byte("x"))},
			want:    RejectPasswordMissing,
			message: "please enter a password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			res, err := env.svc.Upload(context.Background(), reader(t, tt.fields...), meta)
			require.NoError(t, err)

			assert.Equal(t, OutcomeRejected, res.Outcome)
			assert.Equal(t, tt.want, res.Rejection)
			assert.Equal(t, tt.message, res.Message)
			assert.False(t, env.exists(t, "a.txt"))
			assert.Zero(t, env.scratchFiles(t))
		})
	}
}

func TestUploadRejectionLocale(t *testing.T) {
	env := newTestEnv(t, func(c *configs.AppConfig) { c.Upload.Locale = "zh" })

	res, err := env.svc.Upload(context.Background(), reader(t, param(KeyPassword, "nope"), fileField(KeyFile, "a.txt", []byte("x"))), meta)
	require.NoError(t, err)
	assert.Equal(t, "密码错误!", res.Message)
}

func TestUploadOverwrites(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, afero.WriteFile(env.fs, testUploadDir+"/report.csv", []byte("old contents that are longer"), 0o644))

	res, err := env.svc.Upload(context.Background(), reader(t,
		param(KeyPassword, testSecret),
		fileField(KeyFile, "report.csv", []byte("new")),
	), meta)
	require.NoError(t, err)

	assert.True(t, res.Commit.Overwrote)
	assert.Equal(t, []byte("new"), env.uploaded(t, "report.csv"))
}

func TestUploadPreservesChunkOrder(t *testing.T) {
	env := newTestEnv(t)
	content := pattern(37*testChunkSize + 7)

	res, err := env.svc.Upload(context.Background(), reader(t,
		param(KeyPassword, testSecret),
		fileField(KeyFile, "big.bin", content),
	), meta)
	require.NoError(t, err)

	assert.Equal(t, int64(len(content)), res.File.Size)
	assert.True(t, bytes.Equal(content, env.uploaded(t, "big.bin")), "committed bytes differ from upload")
}

func TestUploadEmptyFile(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.Upload(context.Background(), reader(t,
		param(KeyPassword, testSecret),
		fileField(KeyFile, "empty", nil),
	), meta)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCommitted, res.Outcome)
	assert.Empty(t, env.uploaded(t, "empty"))
}

func TestUploadDuplicateFileKeyReleasesAll(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.Upload(context.Background(), reader(t,
		param(KeyPassword, testSecret),
		fileField(KeyFile, "first.txt", []byte("first")),
		fileField(KeyFile, "second.txt", []byte("second")),
	), meta)
	require.NoError(t, err)

	assert.Equal(t, "second.txt", res.File.FileName)
	assert.Equal(t, []byte("second"), env.uploaded(t, "second.txt"))
	assert.False(t, env.exists(t, "first.txt"))
	assert.Zero(t, env.scratchFiles(t))
}

func TestUploadKeepsScratchWhenConfigured(t *testing.T) {
	env := newTestEnv(t, func(c *configs.AppConfig) { c.Upload.RemoveTemp = false })

	_, err := env.svc.Upload(context.Background(), reader(t,
		param(KeyPassword, testSecret),
		fileField(KeyFile, "a.txt", []byte("x")),
	), meta)
	require.NoError(t, err)

	assert.Equal(t, 1, env.scratchFiles(t))
}

func TestUploadClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		fields []field
		want   error
	}{
		{
			name:   "file key without filename",
			fields: []field{param(KeyPassword, testSecret), {name: KeyFile, content: []byte("data"), bare: true}},
			want:   ErrMissingFilename,
		},
		{
			name:   "invalid utf-8 parameter",
			fields: []field{{name: KeyPassword, content: []byte{0xff, 0xfe, 0xfd}}},
			want:   ErrDecode,
		},
		{
			name:   "parameter too large",
			fields: []field{param(KeyPassword, string(bytes.Repeat([]byte("p"), 65)))},
			want:   ErrParamTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			_, err := env.svc.Upload(context.Background(), reader(t, tt.fields...), meta)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, IsClientError(err))
			assert.Equal(t, http.StatusBadRequest, StatusOf(err))
			assert.Zero(t, env.scratchFiles(t))
		})
	}
}

func TestUploadMalformedBody(t *testing.T) {
	env := newTestEnv(t)

	mr := multipart.NewReader(bytes.NewBufferString("not a multipart body"), "boundary")

	_, err := env.svc.Upload(context.Background(), mr, meta)
	require.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
}

func TestUploadUnterminatedBody(t *testing.T) {
	env := newTestEnv(t)

	buf, boundary := body(t, param(KeyPassword, testSecret), fileField(KeyFile, "a.txt", []byte("hello")))

	// 去掉结束分隔符末尾的 "--\r\n"，请求体停在最后一个分隔符上
	raw := bytes.TrimSuffix(buf.Bytes(), []byte("--\r\n"))
	require.True(t, bytes.HasSuffix(raw, []byte("--"+boundary)))

	res, err := env.svc.Upload(context.Background(), multipart.NewReader(bytes.NewReader(raw), boundary), meta)
	require.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Empty(t, res.Message)
	assert.False(t, env.exists(t, "a.txt"))
	assert.Zero(t, env.scratchFiles(t))
}

func TestUploadTruncatedBodyReleasesScratch(t *testing.T) {
	env := newTestEnv(t)

	buf, boundary := body(t, param(KeyPassword, testSecret), fileField(KeyFile, "a.bin", pattern(4*testChunkSize)))
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-testChunkSize])

	_, err := env.svc.Upload(context.Background(), multipart.NewReader(truncated, boundary), meta)
	require.ErrorIs(t, err, ErrMalformed)
	assert.Zero(t, env.scratchFiles(t))
	assert.False(t, env.exists(t, "a.bin"))
}

func TestUploadTooLarge(t *testing.T) {
	env := newTestEnv(t)

	buf, boundary := body(t, param(KeyPassword, testSecret), fileField(KeyFile, "a.bin", pattern(8*testChunkSize)))
	limited := http.MaxBytesReader(httptest.NewRecorder(), nopCloser{buf}, 2*testChunkSize)

	_, err := env.svc.Upload(context.Background(), multipart.NewReader(limited, boundary), meta)
	require.ErrorIs(t, err, ErrTooLarge)
	assert.False(t, IsClientError(err))
	assert.Equal(t, http.StatusRequestEntityTooLarge, StatusOf(err))
	assert.Zero(t, env.scratchFiles(t))
}

func TestUploadCancelled(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.svc.Upload(ctx, reader(t,
		param(KeyPassword, testSecret),
		fileField(KeyFile, "a.txt", []byte("x")),
	), meta)
	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Zero(t, env.scratchFiles(t))
}

func TestUploadCopyFailure(t *testing.T) {
	env := newTestEnv(t)

	ro, err := fs.NewDir(afero.NewReadOnlyFs(env.fs), testUploadDir)
	require.NoError(t, err)

	env.svc.committer = NewCommitter(env.mgr.Scratch, ro, env.mgr.Pool, testChunkSize)

	res, err := env.svc.Upload(context.Background(), reader(t,
		param(KeyPassword, testSecret),
		fileField(KeyFile, "a.txt", []byte("x")),
	), meta)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Contains(t, res.Message, "file copy failed")
	assert.False(t, env.exists(t, "a.txt"))
	assert.Zero(t, env.scratchFiles(t))
}

func TestUploadScratchCreateFailure(t *testing.T) {
	env := newTestEnv(t)

	ro, err := fs.NewScratch(afero.NewReadOnlyFs(env.fs), testScratchDir)
	require.NoError(t, err)

	env.svc.reader = NewFieldReader(testConfig().Upload, ro, env.mgr.Pool)

	res, err := env.svc.Upload(context.Background(), reader(t,
		param(KeyPassword, testSecret),
		fileField(KeyFile, "a.txt", []byte("x")),
	), meta)
	require.ErrorIs(t, err, ErrTempFileCreate)
	assert.False(t, IsClientError(err))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Empty(t, res.Message)
	assert.False(t, env.exists(t, "a.txt"))
	assert.Zero(t, env.scratchFiles(t))
}

func TestUploadScratchWriteFailure(t *testing.T) {
	env := newTestEnv(t)

	// 第三个块写入失败
	scratch, err := fs.NewScratch(shortWriteFs{Fs: env.fs, limit: 2 * testChunkSize}, testScratchDir)
	require.NoError(t, err)

	env.svc.reader = NewFieldReader(testConfig().Upload, scratch, env.mgr.Pool)

	res, err := env.svc.Upload(context.Background(), reader(t,
		param(KeyPassword, testSecret),
		fileField(KeyFile, "a.bin", pattern(4*testChunkSize)),
	), meta)
	require.ErrorIs(t, err, ErrWrite)
	require.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Empty(t, res.Message)
	assert.False(t, env.exists(t, "a.bin"))
	assert.Zero(t, env.scratchFiles(t))
}

func TestUploadConcurrent(t *testing.T) {
	env := newTestEnv(t)

	const n = 16

	readers := make([]*multipart.Reader, n)
	for i := range n {
		readers[i] = reader(t,
			param(KeyPassword, testSecret),
			fileField(KeyFile, fmt.Sprintf("file-%02d.bin", i), bytes.Repeat([]byte{byte(i)}, 3*testChunkSize+i)),
		)
	}

	var g errgroup.Group

	for i := range n {
		g.Go(func() error {
			res, err := env.svc.Upload(context.Background(), readers[i], meta)
			if err != nil {
				return err
			}

			if res.Outcome != OutcomeCommitted {
				return fmt.Errorf("upload %d: outcome %s", i, res.Outcome)
			}

			return nil
		})
	}

	require.NoError(t, g.Wait())

	for i := range n {
		name := fmt.Sprintf("file-%02d.bin", i)
		assert.Equal(t, bytes.Repeat([]byte{byte(i)}, 3*testChunkSize+i), env.uploaded(t, name))
	}

	assert.Zero(t, env.scratchFiles(t))
}

func TestUploadPublishesEvents(t *testing.T) {
	env := newTestEnv(t)
	pub := &recordingPublisher{}
	env.svc.events = newEventPublisher(pub, configs.EventsConfig{
		Enabled: true,
		Upload:  configs.UploadEventsConfig{Committed: true, Failed: true},
	})

	_, err := env.svc.Upload(context.Background(), reader(t,
		param(KeyPassword, testSecret),
		fileField(KeyFile, "a.txt", []byte("abc")),
	), meta)
	require.NoError(t, err)

	// 拒绝事件未开启
	_, err = env.svc.Upload(context.Background(), reader(t, param(KeyPassword, "nope")), meta)
	require.NoError(t, err)

	_, err = env.svc.Upload(context.Background(), reader(t, field{name: KeyPassword, content: []byte{0xff}}), meta)
	require.Error(t, err)

	assert.Equal(t, []string{queue.TopicUploadCommitted, queue.TopicUploadFailed}, pub.Topics())

	ev, err := queue.ParseUploadCommitted(pub.msgs[0])
	require.NoError(t, err)
	assert.Equal(t, "a.txt", ev.Payload.File.Name)
	assert.Equal(t, int64(3), ev.Payload.File.Size)
	assert.Equal(t, meta.ClientIP, ev.Payload.ClientIP)
	assert.NotEmpty(t, ev.Payload.File.Checksum)
}

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }
