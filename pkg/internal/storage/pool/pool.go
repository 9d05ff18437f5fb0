// Package pool 提供有界的阻塞任务池. 文件写入、拷贝这类阻塞操作提交到池中执行，
// 池满时提交方阻塞等待（背压），并遵守调用方 context 的取消.
//
// Example:
//
//	p := pool.New(16)
//	defer p.Close(ctx)
//
//	err := p.Submit(ctx, func() error {
//		_, err := f.Write(chunk)
//		return err
//	})
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/yeisme/fileuploader/pkg/metrics"
)

var (
	// ErrPoolClosed 池已关闭，不再接受任务.
	ErrPoolClosed = errors.New("pool closed")
	// ErrTaskPanic 任务执行时发生 panic.
	ErrTaskPanic = errors.New("task panicked")
)

// Pool 有界阻塞任务池.
type Pool struct {
	sem  *semaphore.Weighted
	size int64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	inFlight  atomic.Int64
	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
}

// Stats 任务池运行状态快照.
type Stats struct {
	Size      int64  `json:"size"`
	InFlight  int64  `json:"in_flight"`
	Submitted uint64 `json:"submitted"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
	Closed    bool   `json:"closed"`
}

// New 创建大小为 size 的任务池，size < 1 时按 1 处理.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}

	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// Submit 在池中执行 fn 并等待其返回.
// 等待空闲槽位期间 ctx 被取消时返回 ctx.Err()，fn 不会执行；
// fn 一旦开始执行就一定会等到它结束，调用方可以安全地复用 fn 引用的资源.
func (p *Pool) Submit(ctx context.Context, fn func() error) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPoolClosed
	}

	p.wg.Add(1)
	p.mu.RUnlock()

	defer p.wg.Done()

	p.submitted.Add(1)

	// semaphore 在 ctx 已结束但有空位时仍可能获取成功
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	metrics.PoolWait.Observe(time.Since(start).Seconds())

	done := make(chan error, 1)

	go func() {
		defer p.sem.Release(1)

		p.inFlight.Add(1)
		metrics.PoolInFlight.Inc()

		defer func() {
			p.inFlight.Add(-1)
			metrics.PoolInFlight.Dec()
		}()

		done <- run(fn)
	}()

	err := <-done
	if err != nil {
		p.failed.Add(1)
	} else {
		p.completed.Add(1)
	}

	return err
}

// Do 在池中执行返回值的任务，语义同 Submit.
func Do[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var out T

	err := p.Submit(ctx, func() error {
		v, err := fn()
		out = v

		return err
	})

	return out, err
}

// run 执行任务并把 panic 转换为错误，避免单个任务拖垮整个进程.
func run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
		}
	}()

	return fn()
}

// Stats 返回当前状态快照.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()

	return Stats{
		Size:      p.size,
		InFlight:  p.inFlight.Load(),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Closed:    closed,
	}
}

// Close 停止接受新任务，并等待已提交的任务结束或 ctx 超时.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for pool tasks: %w", ctx.Err())
	}
}
