// Package jobs 负责注册与实现定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/yeisme/fileuploader/pkg/configs"
	"github.com/yeisme/fileuploader/pkg/internal/storage"
	"github.com/yeisme/fileuploader/pkg/internal/storage/fs"
	"github.com/yeisme/fileuploader/pkg/log"
	"github.com/yeisme/fileuploader/pkg/metrics"
	"github.com/yeisme/fileuploader/pkg/queue"
	"github.com/yeisme/fileuploader/pkg/scheduler"
)

// RegisterCronJobs 配置定时任务：
//   - 按 cleanup.cron 回收超过 cleanup.max_age 的孤儿临时文件
func RegisterCronJobs(sched *scheduler.Scheduler, cfg *configs.AppConfig, mgr *storage.Manager) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if mgr == nil {
		return errors.New("storage manager is nil")
	}

	if !cfg.Cleanup.Enabled {
		return nil
	}

	var pub queue.Publisher
	if mgr.MQ != nil && cfg.Events.Enabled {
		pub = mgr.MQ
	}

	reaper := NewReaper(mgr.Scratch, cfg.Cleanup.MaxAge, pub)

	return sched.AddCron(JobScratchReap, cfg.Cleanup.Cron, reaper.Run)
}

// Reaper 删除进程异常退出等情况遗留的临时文件.
type Reaper struct {
	scratch *fs.Scratch
	maxAge  time.Duration
	pub     queue.Publisher
	now     func() time.Time
}

// NewReaper 创建回收器，pub 为 nil 时不发布事件.
func NewReaper(scratch *fs.Scratch, maxAge time.Duration, pub queue.Publisher) *Reaper {
	return &Reaper{scratch: scratch, maxAge: maxAge, pub: pub, now: time.Now}
}

// Run 执行一次回收.
func (r *Reaper) Run(_ context.Context) error {
	l := log.Logger().With().Str("job", JobScratchReap).Logger()

	n, err := r.scratch.Reap(r.now(), r.maxAge)
	if n > 0 {
		metrics.ScratchReaped.Add(float64(n))
		l.Info().Int("removed", n).Str("dir", r.scratch.Dir()).Dur("max_age", r.maxAge).Msg("reaped stale scratch files")

		if r.pub != nil {
			if perr := queue.PublishScratchReaped(r.pub, queue.ScratchReapedPayload{
				Dir:     r.scratch.Dir(),
				Removed: n,
			}, queue.WithProducer(configs.DefaultMQClientID)); perr != nil {
				l.Warn().Err(perr).Msg("publish event failed")
			}
		}
	}

	return err
}
