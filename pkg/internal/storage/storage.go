// Package storage 聚合上传流水线使用的存储资源：本地文件系统上的临时目录与上传目录、
// 阻塞任务池以及事件客户端. Manager 在启动时创建一次，显式传给各组件.
//
// Example:
//
//	mgr, err := storage.New(ctx, cfg)
//	if err != nil {
//		// 处理错误
//	}
//	defer mgr.Close(ctx)
//
//	f, path, err := mgr.Scratch.Create()
package storage

import (
	"context"
	"errors"

	"github.com/spf13/afero"

	"github.com/yeisme/fileuploader/pkg/configs"
	"github.com/yeisme/fileuploader/pkg/internal/storage/fs"
	"github.com/yeisme/fileuploader/pkg/internal/storage/mq"
	"github.com/yeisme/fileuploader/pkg/internal/storage/pool"
	nlog "github.com/yeisme/fileuploader/pkg/log"
	"github.com/yeisme/fileuploader/pkg/metrics"
)

// Manager 聚合所有存储资源.
type Manager struct {
	Scratch *fs.Scratch
	Uploads *fs.Dir
	Pool    *pool.Pool
	MQ      *mq.Client // 事件未启用时为 nil
}

// Option 配置 Manager.
type Option func(*managerOptions)

type managerOptions struct {
	fs afero.Fs
}

// WithFs 替换底层文件系统，默认使用 afero.NewOsFs.
func WithFs(fsys afero.Fs) Option {
	return func(o *managerOptions) { o.fs = fsys }
}

// New 按配置初始化存储资源.
func New(ctx context.Context, cfg *configs.AppConfig, opts ...Option) (*Manager, error) {
	o := managerOptions{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(&o)
	}

	scratch, err := fs.NewScratch(o.fs, cfg.Upload.ScratchDir())
	if err != nil {
		return nil, err
	}

	uploads, err := fs.NewDir(o.fs, cfg.Upload.Path)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		Scratch: scratch,
		Uploads: uploads,
		Pool:    pool.New(cfg.Upload.PoolSize()),
	}

	if cfg.Events.Enabled {
		var mqOpts []mq.Option
		if cfg.Metrics.Enabled {
			mqOpts = append(mqOpts, mq.WithMetrics(metrics.GetRegistry()))
		}

		client, err := mq.New(ctx, cfg.MQ, mqOpts...)
		if err != nil {
			return nil, err
		}

		m.MQ = client
	}

	nlog.Logger().Info().
		Str("upload_dir", uploads.Root()).
		Str("scratch_dir", scratch.Dir()).
		Int("workers", cfg.Upload.PoolSize()).
		Bool("events", m.MQ != nil).
		Msg("storage manager initialized")

	return m, nil
}

// Close 等待池中任务结束并关闭事件客户端.
func (m *Manager) Close(ctx context.Context) error {
	var errs []error

	if m.Pool != nil {
		errs = append(errs, m.Pool.Close(ctx))
	}

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	return errors.Join(errs...)
}
