package task

import (
	"context"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of an in-memory task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskTypeGeneration is the hourly passive-income sweep.
const TaskTypeGeneration = "generation"

// Task is background work executed by the worker pool. Tasks live only in
// memory; one lost on shutdown is simply replaced by the next scheduler tick.
type Task interface {
	ID() uuid.UUID
	Type() string

	// Payload is the JSON form of the task's inputs, used for logging.
	Payload() []byte

	Status() TaskStatus
	Execute(ctx context.Context) error
}

// TaskQueueReader is the consumer side of the queue.
type TaskQueueReader interface {
	GetChannel() <-chan Task
}

// TaskQueueWriter is the producer side of the queue. Enqueue never blocks:
// a full or closed queue is reported as an error.
type TaskQueueWriter interface {
	Enqueue(task Task) error
	Close()
}
