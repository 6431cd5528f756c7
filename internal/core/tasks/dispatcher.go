package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskSummarizer runs one summarization and reports progress under taskID.
type TaskSummarizer interface {
	Summarize(ctx context.Context, text, taskID string, maxLength, minLength int) (string, error)
}

type job struct {
	taskID    string
	text      string
	maxLength int
	minLength int
}

// Dispatcher runs summarizations on a bounded pool of workers fed by a
// bounded queue. Callers get a task id back immediately and poll the Registry.
type Dispatcher struct {
	reg     *Registry
	sum     TaskSummarizer
	logger  *zap.Logger
	workers int
	timeout time.Duration

	ch     chan job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

type Option func(*Dispatcher)

func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.ch = make(chan job, n)
		}
	}
}

// WithTaskTimeout bounds the wall-clock time of one task. Zero means no bound.
func WithTaskTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

func NewDispatcher(reg *Registry, sum TaskSummarizer, logger *zap.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		reg:     reg,
		sum:     sum,
		logger:  logger,
		workers: 4,
		ch:      make(chan job, 256),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, o := range opts {
		o(d)
	}
	d.start()
	return d
}

func (d *Dispatcher) start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func(workerID int) {
			defer d.wg.Done()
			d.logger.Debug("summary worker started", zap.Int("worker_id", workerID))

			for j := range d.ch {
				d.process(workerID, j)
			}

			d.logger.Debug("summary worker stopped", zap.Int("worker_id", workerID))
		}(i + 1)
	}
}

// Dispatch registers a processing task and queues it. When the queue is full
// it blocks until there is room or ctx ends; in the latter case the task is
// dropped and ctx's error returned.
func (d *Dispatcher) Dispatch(ctx context.Context, text string, maxLength, minLength int) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return "", ErrDispatcherClosed
	}

	id := d.reg.Create()
	j := job{taskID: id, text: text, maxLength: maxLength, minLength: minLength}

	select {
	case d.ch <- j:
	default:
		d.logger.Warn("summary queue full, applying backpressure", zap.String("task_id", id))
		select {
		case d.ch <- j:
		case <-ctx.Done():
			d.reg.Remove(id)
			return "", ctx.Err()
		}
	}

	d.logger.Info("queued summarization",
		zap.String("task_id", id),
		zap.Int("chars", len(text)),
		zap.Int("max_length", maxLength),
		zap.Int("min_length", minLength),
	)
	return id, nil
}

func (d *Dispatcher) process(workerID int, j job) {
	ctx, cancel := d.ctx, context.CancelFunc(func() {})
	if d.timeout > 0 {
		ctx, cancel = context.WithTimeout(d.ctx, d.timeout)
	}
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.reg.Fail(j.taskID, fmt.Errorf("panic during summarization: %v", r))
			d.logger.Error("summarization panic recovered", zap.String("task_id", j.taskID), zap.Any("panic", r))
		}
	}()

	start := time.Now()
	summary, err := d.sum.Summarize(ctx, j.text, j.taskID, j.maxLength, j.minLength)
	if err != nil {
		d.reg.Fail(j.taskID, err)
		d.logger.Error("summarization failed",
			zap.Int("worker_id", workerID),
			zap.String("task_id", j.taskID),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}

	d.reg.Complete(j.taskID, summary)
	d.logger.Info("summarization completed",
		zap.Int("worker_id", workerID),
		zap.String("task_id", j.taskID),
		zap.Duration("duration", time.Since(start)),
	)
}

// Shutdown stops accepting tasks and waits for queued ones to finish. When ctx
// ends first, in-flight model calls are cancelled and the rest fail fast.
func (d *Dispatcher) Shutdown(ctx context.Context) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.ch)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); d.wg.Wait() }()

	select {
	case <-done:
		d.logger.Info("summary queue drained, shutdown complete")
	case <-ctx.Done():
		d.logger.Warn("shutdown interrupted by context, cancelling in-flight summaries")
		d.cancel()
		<-done
	}
	d.cancel()
}
