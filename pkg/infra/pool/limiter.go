package pool

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Limiter 限制某类调用的并发数，超出等待上限的调用立即失败。
type Limiter struct {
	pool    *Pool
	running atomic.Int64
}

// NewLimiter 创建并发限制器。maxWaiting 为 0 时池满即拒绝。
func NewLimiter(name string, maxConcurrent, maxWaiting int) (*Limiter, error) {
	if maxWaiting < 0 {
		return nil, fmt.Errorf("limiter %s: max waiting cannot be negative", name)
	}
	p, err := NewPool(name, &Config{
		Capacity:         maxConcurrent,
		ExpiryDuration:   time.Minute,
		Nonblocking:      maxWaiting == 0,
		MaxBlockingTasks: maxWaiting,
	})
	if err != nil {
		return nil, err
	}
	return &Limiter{pool: p}, nil
}

// Do 在池中执行 fn 并等待其结果。
// 排队已满时返回 ErrPoolOverload；ctx 结束时立即返回 ctx.Err()，fn 仍会在池中完成。
func (l *Limiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	err := l.pool.Submit(func() {
		if err := ctx.Err(); err != nil {
			done <- err
			return
		}
		l.running.Add(1)
		err := runGuarded(ctx, fn)
		l.running.Add(-1)
		done <- err
	})
	if err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running 返回正在执行的调用数，不含池中空闲的 worker。
func (l *Limiter) Running() int {
	return int(l.running.Load())
}

// Waiting 返回排队中的调用数。
func (l *Limiter) Waiting() int {
	return l.pool.Waiting()
}

// Stats 返回底层池的统计信息。
func (l *Limiter) Stats() Stats {
	return l.pool.Stats()
}

// Close 关闭限制器，等待进行中的调用最多 timeout。
func (l *Limiter) Close(timeout time.Duration) error {
	return l.pool.Release(timeout)
}

// runGuarded 将 fn 中的 panic 转为错误返回给调用方，避免调用方永久等待。
func runGuarded(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in pooled call: %v", r)
		}
	}()
	return fn(ctx)
}
