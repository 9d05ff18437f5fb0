package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/fileuploader/pkg/configs"
	ctxpkg "github.com/yeisme/fileuploader/pkg/context"
	"github.com/yeisme/fileuploader/pkg/metrics"
	"github.com/yeisme/fileuploader/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(e *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	return w
}

func TestRequestID(t *testing.T) {
	e := gin.New()
	e.Use(middleware.RequestIDMiddleware())
	e.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, ctxpkg.RequestID(c.Request.Context()))
	})

	w := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	id := w.Header().Get(middleware.RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, w.Body.String())

	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, given)
	w = serve(e, req)
	assert.Equal(t, given, w.Header().Get(middleware.RequestIDHeader))

	// 非 UUID 的请求头会被替换
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "../../etc")
	w = serve(e, req)
	assert.NotEqual(t, "../../etc", w.Header().Get(middleware.RequestIDHeader))
}

func TestBodyLimit(t *testing.T) {
	e := gin.New()
	e.POST("/", middleware.BodyLimitMiddleware(8), func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var mbe *http.MaxBytesError
			assert.ErrorAs(t, err, &mbe)
			c.Status(http.StatusRequestEntityTooLarge)

			return
		}

		c.String(http.StatusOK, string(b))
	})

	w := serve(e, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "small", w.Body.String())

	w = serve(e, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("much too large")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	// 未知长度的请求体在读取时才触发限制
	req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader("much too large")))
	req.ContentLength = -1
	w = serve(e, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestBodyLimitDisabled(t *testing.T) {
	e := gin.New()
	e.POST("/", middleware.BodyLimitMiddleware(0), func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(b))
	})

	w := serve(e, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 4096))))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Body.String(), 4096)
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"global", "global"},
		{"per ip", "ip"},
		{"per header", "header:X-Client"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := gin.New()
			e.GET("/", middleware.RateLimitMiddleware(configs.RateLimitConfig{
				Enabled: true,
				RPS:     0.001,
				Burst:   2,
				Key:     tt.key,
			}), func(c *gin.Context) { c.Status(http.StatusNoContent) })

			codes := make([]int, 0, 3)
			for range 3 {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				req.Header.Set("X-Client", "a")
				codes = append(codes, serve(e, req).Code)
			}

			assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
		})
	}
}

func TestRateLimitSeparatesClients(t *testing.T) {
	e := gin.New()
	e.GET("/", middleware.RateLimitMiddleware(configs.RateLimitConfig{
		Enabled: true,
		RPS:     0.001,
		Burst:   1,
		Key:     "ip",
	}), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := func(addr string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = addr

		return r
	}

	assert.Equal(t, http.StatusNoContent, serve(e, req("10.0.0.1:1234")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(e, req("10.0.0.1:1235")).Code)
	assert.Equal(t, http.StatusNoContent, serve(e, req("10.0.0.2:1234")).Code)
}

func TestRateLimitDisabled(t *testing.T) {
	e := gin.New()
	e.GET("/", middleware.RateLimitMiddleware(configs.RateLimitConfig{}), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for range 20 {
		assert.Equal(t, http.StatusNoContent, serve(e, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestCircuitBreakerTrips(t *testing.T) {
	failing := true

	e := gin.New()
	e.GET("/", middleware.CircuitBreakerMiddleware(configs.CircuitBreakerConfig{
		Enabled:           true,
		FailureRate:       0.5,
		MinRequests:       2,
		TimeoutSeconds:    60,
		MaxRequestsInHalf: 1,
	}), func(c *gin.Context) {
		if failing {
			c.Status(http.StatusInternalServerError)
			return
		}

		c.Status(http.StatusOK)
	})

	get := func() int { return serve(e, httptest.NewRequest(http.MethodGet, "/", nil)).Code }

	assert.Equal(t, http.StatusInternalServerError, get())
	assert.Equal(t, http.StatusInternalServerError, get())

	// 打开后处理器不再执行
	failing = false
	assert.Equal(t, http.StatusServiceUnavailable, get())
}

func TestCircuitBreakerIgnoresClientErrors(t *testing.T) {
	e := gin.New()
	e.GET("/", middleware.CircuitBreakerMiddleware(configs.CircuitBreakerConfig{
		Enabled:           true,
		FailureRate:       0.1,
		MinRequests:       1,
		TimeoutSeconds:    60,
		MaxRequestsInHalf: 1,
	}), func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	for range 5 {
		assert.Equal(t, http.StatusBadRequest, serve(e, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	var m dto.Metric
	require.NoError(t, c.Write(&m))

	return m.GetCounter().GetValue()
}

func TestPrometheusUnmatched(t *testing.T) {
	e := gin.New()
	e.Use(middleware.PrometheusMiddleware())
	e.GET("/known/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	unmatched := metrics.RequestCounter.WithLabelValues(http.MethodGet, "unmatched", "404")
	known := metrics.RequestCounter.WithLabelValues(http.MethodGet, "/known/:id", "200")
	beforeUnmatched := counterValue(t, unmatched)
	beforeKnown := counterValue(t, known)

	serve(e, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	serve(e, httptest.NewRequest(http.MethodGet, "/known/1", nil))
	serve(e, httptest.NewRequest(http.MethodGet, "/known/2", nil))

	assert.InDelta(t, beforeUnmatched+1, counterValue(t, unmatched), 0)
	assert.InDelta(t, beforeKnown+2, counterValue(t, known), 0)
}
