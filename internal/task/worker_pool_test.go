package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mockTaskQueue implements TaskQueueReader for testing
type mockTaskQueue struct {
	ch chan Task
}

func newMockTaskQueue() *mockTaskQueue {
	return &mockTaskQueue{
		ch: make(chan Task, 10),
	}
}

func (m *mockTaskQueue) GetChannel() <-chan Task {
	return m.ch
}

func TestNewWorkerPool(t *testing.T) {
	logger := setupTestLogger()
	taskQueue := newMockTaskQueue()

	tests := []struct {
		name        string
		workerCount int
		want        int
	}{
		{"configured count", 5, 5},
		{"zero defaults to one", 0, 1},
		{"negative defaults to one", -5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(taskQueue, WorkerPoolConfig{WorkerCount: tt.workerCount}, logger)
			assert.Equal(t, tt.want, pool.workerCount)
			assert.Nil(t, pool.errorHandler)
		})
	}
}

func TestWorkerPool_ProcessTask_Success(t *testing.T) {
	taskQueue := newMockTaskQueue()
	completed := make(chan struct{})

	task := newMockTask()
	task.execFn = func(ctx context.Context) error {
		close(completed)
		return nil
	}

	pool := NewWorkerPool(taskQueue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())
	pool.SetErrorHandler(func(Task, error) {
		t.Error("error handler must not run for a successful task")
	})
	pool.Start()
	defer pool.Stop()

	taskQueue.ch <- task

	select {
	case <-completed:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for task to complete")
	}
}

func TestWorkerPool_ProcessTask_Error(t *testing.T) {
	taskQueue := newMockTaskQueue()
	errorHandled := make(chan error, 1)

	expectedErr := errors.New("ledger unavailable")
	task := newMockTask()
	task.execFn = func(ctx context.Context) error {
		return expectedErr
	}

	pool := NewWorkerPool(taskQueue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())
	pool.SetErrorHandler(func(task Task, err error) {
		errorHandled <- err
	})
	pool.Start()
	defer pool.Stop()

	taskQueue.ch <- task

	select {
	case err := <-errorHandled:
		assert.Equal(t, expectedErr, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for error handler")
	}
}

func TestWorkerPool_ProcessTask_Panic(t *testing.T) {
	taskQueue := newMockTaskQueue()
	errorHandled := make(chan error, 1)

	task := newMockTask()
	task.execFn = func(ctx context.Context) error {
		panic("sheep escaped")
	}

	pool := NewWorkerPool(taskQueue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())
	pool.SetErrorHandler(func(task Task, err error) {
		errorHandled <- err
	})
	pool.Start()
	defer pool.Stop()

	taskQueue.ch <- task

	select {
	case err := <-errorHandled:
		assert.Contains(t, err.Error(), "panic")
		assert.Contains(t, err.Error(), "sheep escaped")
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for error handler after panic")
	}

	// the worker survives the panic
	next := make(chan struct{})
	followUp := newMockTask()
	followUp.execFn = func(ctx context.Context) error {
		close(next)
		return nil
	}
	taskQueue.ch <- followUp

	select {
	case <-next:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("worker did not pick up the next task")
	}
}

func TestWorkerPool_StopCancelsRunningTask(t *testing.T) {
	taskQueue := newMockTaskQueue()
	started := make(chan struct{})
	cancelled := make(chan struct{})

	task := newMockTask()
	task.execFn = func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}

	pool := NewWorkerPool(taskQueue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())
	pool.Start()

	taskQueue.ch <- task

	select {
	case <-started:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for task to start")
	}

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-cancelled:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for task to be cancelled")
	}

	select {
	case <-stopped:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for worker pool to stop")
	}
}

func TestWorkerPool_StopsWhenQueueCloses(t *testing.T) {
	taskQueue := newMockTaskQueue()
	pool := NewWorkerPool(taskQueue, WorkerPoolConfig{WorkerCount: 3}, setupTestLogger())
	pool.Start()

	close(taskQueue.ch)

	done := make(chan struct{})
	go func() {
		pool.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("workers did not exit after the queue closed")
	}
	pool.Stop()
}
