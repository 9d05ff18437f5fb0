// Package scheduler 提供定时任务调度功能，使用 gocron/v2 库.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/yeisme/fileuploader/pkg/log"
)

// JobStatus 表示任务的状态类型.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled" // 任务已调度
	StatusRunning   JobStatus = "running"   // 任务正在运行
	StatusError     JobStatus = "error"     // 上次执行出错
)

// JobFunc 任务函数，返回的错误会记录到 JobInfo.
type JobFunc func(ctx context.Context) error

// JobInfo 表示定时任务的信息，用于日志和监控.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CronExpr    string    `json:"cron_expr"`
	NextRun     time.Time `json:"next_run"`
	LastRun     time.Time `json:"last_run"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	Runs        int       `json:"runs"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Scheduler 是定时任务调度器的实现.
// 任务状态只在锁内读写；NextRun 在查询时从 gocron 读取，不需要后台刷新.
type Scheduler struct {
	scheduler gocron.Scheduler
	mu        sync.RWMutex
	jobs      map[string]gocron.Job // 以任务名称为键
	infos     map[string]*JobInfo   // 以任务名称为键
	logger    *zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler 创建一个新的 Scheduler 实例.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		scheduler: s,
		jobs:      make(map[string]gocron.Job),
		infos:     make(map[string]*JobInfo),
		logger:    log.Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// AddCron 添加一个基于 cron 表达式（5 段）的定时任务. 同一任务不会并发执行，
// 上一次未结束时本次调度被跳过.
func (s *Scheduler) AddCron(name string, cronExpr string, job JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job with name %s already exists", name)
	}

	j, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(s.wrap(name, job), s.ctx),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}

	s.jobs[name] = j
	s.infos[name] = &JobInfo{
		ID:        j.ID().String(),
		Name:      name,
		CronExpr:  cronExpr,
		Status:    StatusScheduled,
		CreatedAt: time.Now(),
	}

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("Added cron job")

	return nil
}

// wrap 包装任务函数，记录执行状态并恢复 panic.
func (s *Scheduler) wrap(name string, job JobFunc) func(ctx context.Context) {
	return func(ctx context.Context) {
		start := time.Now()
		s.update(name, func(info *JobInfo) {
			info.Status = StatusRunning
			info.LastRun = start
		})

		err := run(ctx, job)

		s.update(name, func(info *JobInfo) {
			info.Runs++

			if err != nil {
				info.Status = StatusError
				info.Error = err.Error()

				return
			}

			info.Status = StatusScheduled
			info.Error = ""
			info.LastSuccess = time.Now()
		})

		if err != nil {
			s.logger.Error().Err(err).Str("job", name).Dur("elapsed", time.Since(start)).Msg("Job failed")
			return
		}

		s.logger.Debug().Str("job", name).Dur("elapsed", time.Since(start)).Msg("Job finished")
	}
}

func run(ctx context.Context, job JobFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in job: %v", r)
		}
	}()

	return job(ctx)
}

func (s *Scheduler) update(name string, fn func(info *JobInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, ok := s.infos[name]; ok {
		fn(info)
	}
}

// RunNow 立即执行一次指定任务（异步），不影响后续调度.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	j, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job with name %s does not exist", name)
	}

	return j.RunNow()
}

// RemoveJobByName 通过名称移除任务.
func (s *Scheduler) RemoveJobByName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job with name %s does not exist", name)
	}

	if err := s.scheduler.RemoveJob(job.ID()); err != nil {
		return err
	}

	delete(s.jobs, name)
	delete(s.infos, name)

	s.logger.Info().Str("job", name).Msg("Removed job")

	return nil
}

// GetJobInfoByName 通过名称获取任务信息的副本.
func (s *Scheduler) GetJobInfoByName(name string) (JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, exists := s.infos[name]
	if !exists {
		return JobInfo{}, fmt.Errorf("job with name %s does not exist", name)
	}

	return s.snapshot(name, info), nil
}

// GetJobInfos 返回所有定时任务的信息.
func (s *Scheduler) GetJobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]JobInfo, 0, len(s.infos))
	for name, info := range s.infos {
		jobs = append(jobs, s.snapshot(name, info))
	}

	return jobs
}

// snapshot 复制任务信息并补充下次运行时间，调用方需持有读锁.
func (s *Scheduler) snapshot(name string, info *JobInfo) JobInfo {
	out := *info

	if j, ok := s.jobs[name]; ok {
		if next, err := j.NextRun(); err == nil {
			out.NextRun = next
		}
	}

	return out
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("Starting scheduler")
	s.scheduler.Start()
}

// Stop 停止调度器，并取消正在执行的任务的 context.
func (s *Scheduler) Stop() error {
	s.logger.Info().Msg("Stopping scheduler")
	s.cancel()

	return s.scheduler.Shutdown()
}
