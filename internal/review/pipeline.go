package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"reviewkit/internal/fs"
	"reviewkit/internal/metrics"
	"reviewkit/internal/worker"
)

// Config holds pipeline configuration
type Config struct {
	MaxWorkers     int
	MaxQueueSize   int
	MaxRetries     int
	TimeoutPerFile time.Duration
	DeadLetterSize int
}

// DefaultConfig returns the default pipeline configuration
func DefaultConfig() Config {
	return Config{
		MaxWorkers:     4,
		MaxQueueSize:   100,
		MaxRetries:     2,
		TimeoutPerFile: 30 * time.Second,
		DeadLetterSize: 1000,
	}
}

// pipeline runs a Reviewer over many files on a worker pool
type pipeline struct {
	config   Config
	reviewer Reviewer
	recorder *metrics.Recorder
	logger   *slog.Logger

	mu         sync.Mutex
	workerPool *worker.WorkerPool
	deadLetter *worker.DeadLetterQueue
	isRunning  atomic.Bool
	retried    atomic.Int64
}

// Option configures a pipeline.
type Option func(*pipeline)

// WithRecorder times each run under the "pipeline" activity.
func WithRecorder(r *metrics.Recorder) Option {
	return func(p *pipeline) { p.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewPipeline(config Config, reviewer Reviewer, opts ...Option) (Pipeline, error) {
	if reviewer == nil {
		return nil, errors.New("reviewer cannot be nil")
	}

	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 4
	}
	if config.MaxQueueSize <= 0 {
		config.MaxQueueSize = config.MaxWorkers * 2
	}
	if config.TimeoutPerFile <= 0 {
		config.TimeoutPerFile = 30 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}

	p := &pipeline{
		config:     config,
		reviewer:   reviewer,
		logger:     slog.Default(),
		deadLetter: worker.NewDeadLetterQueue(config.DeadLetterSize),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run reviews files and returns one FileReview per input file, in input
// order. Files that cannot be read are retried after the main pass and
// reported as failed if they still cannot be read.
func (p *pipeline) Run(ctx context.Context, files []*fs.FileInfo) (*ReviewResult, error) {
	if !p.isRunning.CompareAndSwap(false, true) {
		return nil, errors.New("pipeline is already running")
	}
	defer p.isRunning.Store(false)

	timer := p.recorder.StartTimer("pipeline", "")
	defer timer.Stop()

	result := &ReviewResult{
		TotalFiles:  len(files),
		StartTime:   time.Now(),
		FileReviews: make([]FileReview, len(files)),
	}

	pending := make([]*fs.FileInfo, 0, len(files))
	indexes := make([]int, 0, len(files))
	for i, file := range files {
		result.FileReviews[i] = FileReview{File: file}
		if file.Skip != "" {
			result.FileReviews[i].Skipped = file.Skip
			p.logger.Info("skipping file", "file", file.Relative, "reason", file.Skip)
			continue
		}
		pending = append(pending, file)
		indexes = append(indexes, i)
	}

	if err := p.runPool(ctx, pending, indexes, result); err != nil {
		return nil, err
	}

	p.processDeadLetters(ctx, result)

	p.finalize(result)
	p.logSummary(result)

	return result, nil
}

// runPool reviews pending files on a fresh worker pool. indexes maps each
// pending file to its slot in result.FileReviews.
func (p *pipeline) runPool(ctx context.Context, pending []*fs.FileInfo, indexes []int, result *ReviewResult) error {
	if len(pending) == 0 {
		return nil
	}

	wp, err := worker.NewWorkerPool(p.config.MaxWorkers, p.config.MaxQueueSize)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	p.mu.Lock()
	p.workerPool = wp
	p.mu.Unlock()

	if err := wp.Start(ctx, p.reviewOne); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	// Sized so workers never block on send
	resultChan := make(chan worker.TaskResult, len(pending))

	submitErr := wp.SubmitBatch(ctx, 0, pending, resultChan)

	if err := wp.Stop(); err != nil {
		p.logger.Warn("worker pool did not stop cleanly", "error", err)
	}
	close(resultChan)

	for taskResult := range resultChan {
		p.processTaskResult(ctx, taskResult, &result.FileReviews[indexes[taskResult.TaskID]])
	}

	if submitErr != nil {
		return fmt.Errorf("failed to submit tasks: %w", submitErr)
	}
	return nil
}

func (p *pipeline) reviewOne(ctx context.Context, file *fs.FileInfo) (any, error) {
	fileCtx, cancel := context.WithTimeout(ctx, p.config.TimeoutPerFile)
	defer cancel()
	return p.reviewer.ReviewFile(fileCtx, file)
}

// processTaskResult stores one worker result in its FileReview slot.
func (p *pipeline) processTaskResult(ctx context.Context, taskResult worker.TaskResult, fileReview *FileReview) {
	fileReview.Duration = taskResult.Duration

	if taskResult.Error != nil {
		fileReview.Error = taskResult.Error.Error()
		p.logger.Warn("failed to review file",
			"file", taskResult.File.Relative,
			"error", taskResult.Error)

		if taskResult.Retry && !isContextError(taskResult.Error) {
			p.deadLetter.Push(worker.Task{
				ID:   taskResult.TaskID,
				File: taskResult.File,
				Ctx:  ctx,
			}, taskResult.Error, 1)
		}
		return
	}

	issues, _ := taskResult.Value.([]Issue)
	fileReview.Issues = issues
}

// processDeadLetters retries each failed file up to MaxRetries times.
func (p *pipeline) processDeadLetters(ctx context.Context, result *ReviewResult) {
	letters := p.deadLetter.Drain()
	if len(letters) == 0 || p.config.MaxRetries <= 0 {
		return
	}

	slots := make(map[*fs.FileInfo]int, len(result.FileReviews))
	for i := range result.FileReviews {
		slots[result.FileReviews[i].File] = i
	}

	for _, dl := range letters {
		idx, ok := slots[dl.Task.File]
		if !ok {
			continue
		}
		fileReview := &result.FileReviews[idx]

		for attempt := dl.Attempts; attempt <= p.config.MaxRetries; attempt++ {
			if ctx.Err() != nil {
				return
			}
			p.retried.Add(1)

			start := time.Now()
			value, err := p.reviewOne(ctx, dl.Task.File)
			if err == nil {
				fileReview.Issues, _ = value.([]Issue)
				fileReview.Error = ""
				fileReview.Duration = time.Since(start)
				p.logger.Info("retry succeeded", "file", dl.Task.File.Relative, "attempt", attempt)
				break
			}
			fileReview.Error = err.Error()
		}
	}
}

// finalize fills the counters from the ordered file reviews.
func (p *pipeline) finalize(result *ReviewResult) {
	for _, fr := range result.FileReviews {
		switch {
		case fr.Skipped != "":
			result.SkippedFiles++
		case fr.Error != "":
			result.FailedFiles++
		default:
			result.ReviewedFiles++
		}

		for _, issue := range fr.Issues {
			result.TotalIssues++
			switch issue.Severity {
			case SeverityHigh:
				result.HighCount++
			case SeverityMedium:
				result.MediumCount++
			case SeverityLow:
				result.LowCount++
			}
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
}

// Stop stops any pool still running
func (p *pipeline) Stop() error {
	p.mu.Lock()
	wp := p.workerPool
	p.mu.Unlock()

	if wp == nil {
		return nil
	}
	return wp.Stop()
}

// logSummary logs a summary of the review
func (p *pipeline) logSummary(result *ReviewResult) {
	attrs := []any{
		"total_files", result.TotalFiles,
		"reviewed_files", result.ReviewedFiles,
		"failed_files", result.FailedFiles,
		"skipped_files", result.SkippedFiles,
		"total_issues", result.TotalIssues,
		"high", result.HighCount,
		"medium", result.MediumCount,
		"low", result.LowCount,
		"retries", p.retried.Load(),
		"duration", result.Duration,
	}

	p.mu.Lock()
	wp := p.workerPool
	p.mu.Unlock()
	if wp != nil {
		stats := wp.Stats()
		attrs = append(attrs,
			"pool_total_tasks", stats["total_tasks"],
			"pool_failed_tasks", stats["failed_tasks"])
	}

	p.logger.Info("review completed", attrs...)
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
