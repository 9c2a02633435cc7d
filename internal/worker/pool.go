package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"reviewkit/internal/fs"
)

var (
	ErrPoolStopped     = errors.New("worker pool stopped")
	ErrPoolNotStarted  = errors.New("worker pool not started")
	ErrInvalidCapacity = errors.New("invalid worker capacity")
)

// Task represents a review task to be processed
type Task struct {
	ID     int
	File   *fs.FileInfo
	Result chan<- TaskResult
	Ctx    context.Context
}

// TaskResult represents the result of processing a task
type TaskResult struct {
	TaskID   int
	File     *fs.FileInfo
	Value    any
	Error    error
	Retry    bool
	Duration time.Duration
}

// WorkerPool implements a bounded worker pool for review tasks
type WorkerPool struct {
	capacity      int
	taskQueue     chan Task
	stopChan      chan struct{}
	started       atomic.Bool
	stopped       atomic.Bool
	wg            sync.WaitGroup
	activeWorkers atomic.Int32
	totalTasks    atomic.Int64
	failedTasks   atomic.Int64
}

// WorkerFunc is the function that processes a task
type WorkerFunc func(ctx context.Context, file *fs.FileInfo) (any, error)

func NewWorkerPool(capacity int, queueSize int) (*WorkerPool, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if queueSize < 0 {
		queueSize = capacity * 2
	}

	return &WorkerPool{
		capacity:  capacity,
		taskQueue: make(chan Task, queueSize),
		stopChan:  make(chan struct{}),
	}, nil
}

func (p *WorkerPool) Start(ctx context.Context, workerFunc WorkerFunc) error {
	if p.stopped.Load() {
		return ErrPoolStopped
	}
	if !p.started.CompareAndSwap(false, true) {
		return nil
	}

	for i := 0; i < p.capacity; i++ {
		p.wg.Add(1)
		go p.worker(ctx, workerFunc)
	}

	return nil
}

// Submit queues a task, blocking while the queue is full.
func (p *WorkerPool) Submit(ctx context.Context, taskID int, file *fs.FileInfo, resultChan chan<- TaskResult) error {
	if p.stopped.Load() {
		return ErrPoolStopped
	}
	if !p.started.Load() {
		return ErrPoolNotStarted
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case p.taskQueue <- Task{
		ID:     taskID,
		File:   file,
		Result: resultChan,
		Ctx:    ctx,
	}:
		p.totalTasks.Add(1)
		return nil
	case <-p.stopChan:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitBatch submits multiple tasks; task IDs start at offset.
func (p *WorkerPool) SubmitBatch(ctx context.Context, offset int, files []*fs.FileInfo, resultChan chan<- TaskResult) error {
	for i, file := range files {
		if err := p.Submit(ctx, offset+i, file, resultChan); err != nil {
			return fmt.Errorf("failed to submit task %d: %w", offset+i, err)
		}
	}
	return nil
}

// ActiveWorkers returns the number of currently active workers
func (p *WorkerPool) ActiveWorkers() int {
	return int(p.activeWorkers.Load())
}

// QueueSize returns the current queue size
func (p *WorkerPool) QueueSize() int {
	return len(p.taskQueue)
}

// Stats returns pool statistics
func (p *WorkerPool) Stats() map[string]int64 {
	return map[string]int64{
		"capacity":     int64(p.capacity),
		"queue_size":   int64(len(p.taskQueue)),
		"active":       int64(p.ActiveWorkers()),
		"total_tasks":  p.totalTasks.Load(),
		"failed_tasks": p.failedTasks.Load(),
	}
}

// Stop drains the queue and waits for workers to finish.
func (p *WorkerPool) Stop() error {
	if p.stopped.Swap(true) {
		return nil
	}

	close(p.stopChan)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(30 * time.Second):
		return errors.New("timeout waiting for worker pool to stop")
	}
}

// worker is the goroutine that processes tasks. Once stopped it keeps
// draining whatever is already queued.
func (p *WorkerPool) worker(ctx context.Context, workerFunc WorkerFunc) {
	defer p.wg.Done()

	for {
		select {
		case task := <-p.taskQueue:
			p.processTask(task, workerFunc)
		case <-p.stopChan:
			for {
				select {
				case task := <-p.taskQueue:
					p.processTask(task, workerFunc)
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// processTask processes a single task
func (p *WorkerPool) processTask(task Task, workerFunc WorkerFunc) {
	p.activeWorkers.Add(1)
	defer p.activeWorkers.Add(-1)

	if err := task.Ctx.Err(); err != nil {
		p.failedTasks.Add(1)
		task.Result <- TaskResult{TaskID: task.ID, File: task.File, Error: err}
		return
	}

	start := time.Now()
	value, err := workerFunc(task.Ctx, task.File)
	elapsed := time.Since(start)

	if err != nil {
		p.failedTasks.Add(1)
	}

	task.Result <- TaskResult{
		TaskID:   task.ID,
		File:     task.File,
		Value:    value,
		Error:    err,
		Retry:    err != nil,
		Duration: elapsed,
	}
}
