package app_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/fileuploader/pkg/app"
	"github.com/yeisme/fileuploader/pkg/configs"
	"github.com/yeisme/fileuploader/pkg/internal/storage"
)

func loadConfig(t *testing.T) *configs.AppConfig {
	t.Helper()

	t.Setenv("FILEUPLOADER_UPLOAD_PATH", "/srv/uploads")
	t.Setenv("FILEUPLOADER_UPLOAD_TEMP_DIR", "/tmp/fu")
	t.Setenv("FILEUPLOADER_SERVER_HOST", "127.0.0.1")
	t.Setenv("FILEUPLOADER_METRICS_ENABLED", "false")

	cfg, _, err := configs.Load(t.TempDir())
	require.NoError(t, err)

	return cfg
}

func TestAppServesDefaultRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := loadConfig(t)
	mem := afero.NewMemMapFs()

	a, err := app.NewApp(context.Background(), cfg, nil, app.WithStorageOptions(storage.WithFs(mem)))
	require.NoError(t, err)

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("pwd", configs.DefaultUploadPassword))
	fw, err := mw.CreateFormFile("file", "hello.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/file_uploader/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	a.Engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "upload succeeded", w.Body.String())

	got, err := afero.ReadFile(mem, "/srv/uploads/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	for _, path := range []string{"/file_uploader", "/file_uploader/health", "/file_uploader/health/storage"} {
		w := httptest.NewRecorder()
		a.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestAppRunStopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := loadConfig(t)
	cfg.Server.Port = 0

	a, err := app.NewApp(context.Background(), cfg, nil, app.WithStorageOptions(storage.WithFs(afero.NewMemMapFs())))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- a.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("app did not stop")
	}
}
