// Package app 提供应用程序的初始化和运行：按配置组装存储、上传服务、路由和定时任务，
// 并负责 HTTP 服务的优雅关闭.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/fileuploader/pkg/api"
	"github.com/yeisme/fileuploader/pkg/configs"
	"github.com/yeisme/fileuploader/pkg/internal/handle"
	"github.com/yeisme/fileuploader/pkg/internal/jobs"
	"github.com/yeisme/fileuploader/pkg/internal/locale"
	"github.com/yeisme/fileuploader/pkg/internal/router"
	"github.com/yeisme/fileuploader/pkg/internal/service"
	"github.com/yeisme/fileuploader/pkg/internal/storage"
	"github.com/yeisme/fileuploader/pkg/log"
	"github.com/yeisme/fileuploader/pkg/metrics"
	"github.com/yeisme/fileuploader/pkg/scheduler"
	"github.com/yeisme/fileuploader/pkg/tracing"
)

// readHeaderTimeout 读取请求头的超时时间，与 server.timeout 无关.
const readHeaderTimeout = 10 * time.Second

// App 持有进程内的全部组件.
type App struct {
	Engine *gin.Engine
	config *configs.AppConfig
	viper  *viper.Viper
	mgr    *storage.Manager
	sched  *scheduler.Scheduler
	server *http.Server
}

// Option 配置 App.
type Option func(*options)

type options struct {
	storage []storage.Option
}

// WithStorageOptions 传递给 storage.New 的选项，测试中用于替换文件系统.
func WithStorageOptions(opts ...storage.Option) Option {
	return func(o *options) { o.storage = append(o.storage, opts...) }
}

// NewApp 按配置初始化全部组件，但不开始监听.
func NewApp(ctx context.Context, cfg *configs.AppConfig, v *viper.Viper, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	if err := tracing.InitTracer(cfg.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	mgr, err := storage.New(ctx, cfg, o.storage...)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	catalog := locale.New(cfg.Upload.Locale)
	svc := service.NewUploadService(cfg, mgr, catalog)

	if mgr.MQ != nil && cfg.Events.Audit {
		service.RegisterAudit(mgr.MQ, *l)
	}

	h, err := handle.New(cfg, mgr, svc, catalog)
	if err != nil {
		_ = mgr.Close(ctx)
		return nil, err
	}

	engine := api.RegisterGroup(router.NewEngine(cfg), cfg, h)

	sched, err := scheduler.NewScheduler()
	if err != nil {
		_ = mgr.Close(ctx)
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.RegisterCronJobs(sched, cfg, mgr); err != nil {
		_ = mgr.Close(ctx)
		return nil, fmt.Errorf("register jobs: %w", err)
	}

	timeout := cfg.Server.GetTimeoutDuration()

	return &App{
		Engine: engine,
		config: cfg,
		viper:  v,
		mgr:    mgr,
		sched:  sched,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           engine,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       timeout,
			WriteTimeout:      timeout,
			IdleTimeout:       timeout,
		},
	}, nil
}

// Run 启动 HTTP 服务、事件处理器和定时任务，阻塞直到 ctx 结束或服务出错，然后优雅关闭.
func (a *App) Run(ctx context.Context) error {
	l := log.Logger()

	if a.config.Server.ReloadConfig {
		err := configs.Watch(ctx, a.viper, func(e fsnotify.Event) {
			l.Warn().Str("file", e.Name).Str("op", e.Op.String()).Msg("config file changed, restart to apply")
		})
		if err != nil {
			l.Warn().Err(err).Msg("config watch disabled")
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Info().
			Str("addr", a.server.Addr).
			Str("uri", a.config.Upload.IndexPath()).
			Str("upload_dir", a.config.Upload.Path).
			Str("max_file_size", humanize.IBytes(uint64(a.config.Upload.MaxFileSize()))).
			Str("version", configs.AppVersion).
			Msg("http server listening")

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	if a.mgr.MQ != nil {
		g.Go(func() error { return a.mgr.MQ.Run(gctx) })
	}

	a.sched.Start()

	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown()
	})

	return g.Wait()
}

// shutdown 依次关闭 HTTP 服务、定时任务、存储和追踪.
func (a *App) shutdown() error {
	l := log.Logger()
	l.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.GetShutdownTimeout())
	defer cancel()

	errs := []error{a.server.Shutdown(ctx)}

	if err := a.sched.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
	}

	// 等待池中的写入完成后再关闭事件客户端
	if err := a.mgr.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}

	if err := tracing.ShutdownTracer(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
	}

	err := errors.Join(errs...)
	if err != nil {
		l.Error().Err(err).Msg("shutdown finished with errors")
	} else {
		l.Info().Msg("shutdown complete")
	}

	return err
}
