package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRunner_ProcessesEnqueuedTasks(t *testing.T) {
	runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 2, QueueSize: 4}, setupTestLogger())
	runner.Start()
	defer runner.Stop()

	var done atomic.Int32
	finished := make(chan struct{}, 4)
	for i := 0; i < 4; i++ {
		task := NewMockTask(TaskTypePrayerBatch)
		task.ExecuteFn = func(ctx context.Context) error {
			done.Add(1)
			finished <- struct{}{}
			return nil
		}
		require.NoError(t, runner.Enqueue(task))
	}

	for i := 0; i < 4; i++ {
		select {
		case <-finished:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for tasks")
		}
	}
	assert.Equal(t, int32(4), done.Load())
}

func TestTaskRunner_StopRejectsNewTasks(t *testing.T) {
	runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 1}, setupTestLogger())
	runner.Start()
	runner.Stop()

	err := runner.Enqueue(NewMockTask(TaskTypeVerseBatch))
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestTaskRunner_ErrorHandler(t *testing.T) {
	runner := NewTaskRunner(DefaultTaskRunnerConfig(), setupTestLogger())

	handled := make(chan error, 1)
	runner.SetErrorHandler(func(task Task, err error) { handled <- err })
	runner.Start()
	defer runner.Stop()

	task := NewMockTask(TaskTypeVerseBatch)
	task.ExecuteFn = func(ctx context.Context) error { return context.DeadlineExceeded }
	require.NoError(t, runner.Enqueue(task))

	select {
	case err := <-handled:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("error handler not called")
	}
}
