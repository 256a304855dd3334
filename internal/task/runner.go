package task

import (
	"log/slog"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: DefaultWorkerPoolConfig().WorkerCount,
		QueueSize:   64,
	}
}

// TaskRunner owns a TaskQueue and the WorkerPool draining it.
type TaskRunner struct {
	queue *TaskQueue
	pool  *WorkerPool
}

// NewTaskRunner creates a new TaskRunner. A non-positive QueueSize falls
// back to the default.
func NewTaskRunner(config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultTaskRunnerConfig().QueueSize
	}

	queue := NewTaskQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger)
	return &TaskRunner{queue: queue, pool: pool}
}

// SetErrorHandler forwards to the worker pool. It must be called before Start.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.pool.SetErrorHandler(handler)
}

// Start launches the workers.
func (r *TaskRunner) Start() {
	r.pool.Start()
}

// Enqueue implements TaskQueueWriter.
func (r *TaskRunner) Enqueue(t Task) error {
	return r.queue.Enqueue(t)
}

// Stop refuses new tasks, cancels running ones and waits for the workers.
func (r *TaskRunner) Stop() {
	r.queue.Close()
	r.pool.Stop()
}
