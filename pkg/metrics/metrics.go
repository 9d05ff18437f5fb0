// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集 HTTP、上传流水线和阻塞任务池的指标.
//
// Example:
//
//	import "github.com/yeisme/fileuploader/pkg/metrics"
//
//	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.UploadsTotal.WithLabelValues(metrics.OutcomeCommitted).Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/fileuploader/pkg/configs"
)

const namespace = "fileuploader"

// 上传结果标签值.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// 全局指标变量. 未调用 InitMetrics 时仍可安全使用，只是不会被导出.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// UploadsTotal 按结果统计的上传请求数.
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload requests by outcome",
		},
		[]string{"outcome"},
	)

	// UploadBytes 已提交到上传目录的字节数.
	UploadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes committed to the upload directory",
		},
	)

	// UploadSize 单个已提交文件的大小分布.
	UploadSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_size_bytes",
			Help:      "Size of committed files",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)

	// PoolInFlight 阻塞任务池中正在执行的任务数.
	PoolInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_in_flight",
			Help:      "Blocking tasks currently running on the worker pool",
		},
	)

	// PoolWait 任务等待进入任务池的时间.
	PoolWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pool_wait_seconds",
			Help:      "Time a blocking task waited for a worker slot",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
	)

	// ScratchReaped 回收任务删除的孤儿临时文件数.
	ScratchReaped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scratch_reaped_total",
			Help:      "Orphaned scratch files removed by the cleanup job",
		},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
	initOnce sync.Once
	initErr  error
)

// InitMetrics 初始化Metrics，重复调用只生效一次.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	initOnce.Do(func() {
		reg := prometheus.WrapRegistererWith(prometheus.Labels(config.Labels), registry)

		if config.RuntimeMetrics {
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		for _, c := range []prometheus.Collector{
			RequestCounter, RequestDuration,
			UploadsTotal, UploadBytes, UploadSize,
			PoolInFlight, PoolWait, ScratchReaped,
		} {
			if err := reg.Register(c); err != nil {
				initErr = err

				return
			}
		}
	})

	return initErr
}

// RegisterRoutes 在 gin 引擎上注册 /metrics 与可选的 pprof 端点.
func RegisterRoutes(config configs.MetricsConfig, engine *gin.Engine) {
	if !config.Enabled {
		return
	}

	engine.GET(config.Path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}

// ObserveUpload 记录一次上传结果；size 只在 committed 时计入.
func ObserveUpload(outcome string, size int64) {
	UploadsTotal.WithLabelValues(outcome).Inc()

	if outcome == OutcomeCommitted {
		UploadBytes.Add(float64(size))
		UploadSize.Observe(float64(size))
	}
}
