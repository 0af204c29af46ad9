package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of background work, such as an absent sweep after a
// session completes.
type Task struct {
	ID      string
	Kind    string
	Payload interface{}
}

// Handler executes a task. A returned error triggers a retry.
type Handler func(context.Context, Task) error

// Options configures the worker pool.
type Options struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Pool runs tasks on a fixed set of goroutines with bounded retry.
type Pool struct {
	name       string
	handler    Handler
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	tasks  chan queuedTask
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

type queuedTask struct {
	Task
	attempt int
}

// NewPool builds a pool that dispatches tasks to the handler.
func NewPool(name string, handler Handler, opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Pool{
		name:       name,
		handler:    handler,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		logger:     opts.Logger,
		tasks:      make(chan queuedTask, opts.Workers*4),
	}
}

// Start launches the workers. Safe to call once.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	workers := cap(p.tasks) / 4
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	p.started = true
	p.logger.Sugar().Infow("worker pool started", "pool", p.name, "workers", workers)
}

// Stop cancels workers and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.mu.Unlock()
	p.wg.Wait()
	p.logger.Sugar().Infow("worker pool stopped", "pool", p.name)
}

// Submit enqueues a task for asynchronous execution.
func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	started := p.started
	ctx := p.ctx
	p.mu.Unlock()

	if !started {
		return fmt.Errorf("pool %s not started", p.name)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("pool %s stopped: %w", p.name, ctx.Err())
	case p.tasks <- queuedTask{Task: task}:
		return nil
	}
}

// run is the worker loop. Failed tasks are retried in place with a
// fixed delay, up to maxRetries attempts.
func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case qt := <-p.tasks:
			for {
				err := p.handler(p.ctx, qt.Task)
				if err == nil {
					break
				}
				qt.attempt++
				if qt.attempt >= p.maxRetries {
					p.logger.Sugar().Errorw("task exceeded retries",
						"pool", p.name, "task_id", qt.ID, "kind", qt.Kind, "error", err)
					break
				}
				p.logger.Sugar().Warnw("task failed, retrying",
					"pool", p.name, "task_id", qt.ID, "kind", qt.Kind, "attempt", qt.attempt, "error", err)
				select {
				case <-p.ctx.Done():
					return
				case <-time.After(p.retryDelay):
				}
			}
		}
	}
}
