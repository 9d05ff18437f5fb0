package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/fileuploader/pkg/configs"
	"github.com/yeisme/fileuploader/pkg/internal/locale"
	"github.com/yeisme/fileuploader/pkg/internal/storage"
)

const (
	testSecret     = "secret"
	testUploadDir  = "/srv/uploads"
	testScratchDir = "/tmp/fu"
	testChunkSize  = 512
)

// field 构造 multipart 请求体的一个字段，filename 为空时写普通字段.
type field struct {
	name     string
	filename string
	content  []byte
	// bare 为 true 时只写 name，不带 filename 参数
	bare bool
}

func param(name, value string) field { return field{name: name, content: []byte(value)} }

func fileField(name, filename string, content []byte) field {
	return field{name: name, filename: filename, content: content}
}

// body 生成 multipart 请求体，返回内容与 boundary.
func body(t *testing.T, fields ...field) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		var (
			pw  io.Writer
			err error
		)

		switch {
		case f.bare:
			h := textproto.MIMEHeader{}
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, f.name))
			h.Set("Content-Type", "application/octet-stream")
			pw, err = w.CreatePart(h)
		case f.filename != "":
			pw, err = w.CreateFormFile(f.name, f.filename)
		default:
			pw, err = w.CreateFormField(f.name)
		}

		require.NoError(t, err)

		_, err = pw.Write(f.content)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	return &buf, w.Boundary()
}

func reader(t *testing.T, fields ...field) *multipart.Reader {
	t.Helper()

	buf, boundary := body(t, fields...)

	return multipart.NewReader(buf, boundary)
}

func testConfig() *configs.AppConfig {
	return &configs.AppConfig{
		Upload: configs.UploadConfig{
			Path:          testUploadDir,
			URI:           configs.DefaultUploadURI,
			Password:      testSecret,
			MaxFileSizeMB: 1,
			TempDir:       testScratchDir,
			Workers:       2,
			ChunkSize:     testChunkSize,
			MaxParamSize:  64,
			Locale:        "en",
			RemoveTemp:    true,
		},
	}
}

type testEnv struct {
	svc *UploadService
	mgr *storage.Manager
	fs  afero.Fs
}

func newTestEnv(t *testing.T, mutate ...func(*configs.AppConfig)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	mem := afero.NewMemMapFs()

	mgr, err := storage.New(context.Background(), cfg, storage.WithFs(mem))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close(context.Background()) })

	return &testEnv{
		svc: NewUploadService(cfg, mgr, locale.New(cfg.Upload.Locale)),
		mgr: mgr,
		fs:  mem,
	}
}

// scratchFiles 返回临时目录中剩余的文件数.
func (e *testEnv) scratchFiles(t *testing.T) int {
	t.Helper()

	infos, err := afero.ReadDir(e.fs, testScratchDir)
	require.NoError(t, err)

	return len(infos)
}

func (e *testEnv) uploaded(t *testing.T, name string) []byte {
	t.Helper()

	b, err := afero.ReadFile(e.fs, testUploadDir+"/"+name)
	require.NoError(t, err)

	return b
}

func (e *testEnv) exists(t *testing.T, name string) bool {
	t.Helper()

	ok, err := afero.Exists(e.fs, testUploadDir+"/"+name)
	require.NoError(t, err)

	return ok
}

// pattern 生成可检查字节顺序的内容.
func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}

	return b
}

// recordingPublisher 记录发布的主题.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	msgs   []*message.Message
}

func (p *recordingPublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, m := range msgs {
		p.topics = append(p.topics, topic)
		p.msgs = append(p.msgs, m)
	}

	return nil
}

func (p *recordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.topics...)
}

var errDiskFull = errors.New("no space left on device")

// shortWriteFs 打开的文件在累计写入超过 limit 字节后返回 errDiskFull.
type shortWriteFs struct {
	afero.Fs
	limit int64
}

func (s shortWriteFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := s.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}

	return &shortWriteFile{File: f, left: s.limit}, nil
}

type shortWriteFile struct {
	afero.File
	left int64
}

func (f *shortWriteFile) Write(p []byte) (int, error) {
	if int64(len(p)) > f.left {
		return 0, errDiskFull
	}

	f.left -= int64(len(p))

	return f.File.Write(p)
}
