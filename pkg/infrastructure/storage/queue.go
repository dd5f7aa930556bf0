package storage

import (
	"context"
	"fmt"

	"github.com/WangYihang/Exposure-Crawler/pkg/domain/entity"
	"github.com/WangYihang/Exposure-Crawler/pkg/domain/repository"
	"github.com/enriquebris/goconcurrentqueue"
)

// TaskQueue implements repository.TaskQueue on top of an unbounded FIFO
type TaskQueue struct {
	fifo *goconcurrentqueue.FIFO
}

// NewTaskQueue creates a new task queue
func NewTaskQueue() repository.TaskQueue {
	return &TaskQueue{
		fifo: goconcurrentqueue.NewFIFO(),
	}
}

// Enqueue adds a task to the queue
func (q *TaskQueue) Enqueue(task *entity.Task) error {
	if task == nil {
		return fmt.Errorf("cannot enqueue nil task")
	}
	return q.fifo.Enqueue(task)
}

// Dequeue removes and returns the next task, waiting until one is available
// or ctx is done
func (q *TaskQueue) Dequeue(ctx context.Context) (*entity.Task, error) {
	item, err := q.fifo.DequeueOrWaitForNextElementContext(ctx)
	if err != nil {
		return nil, err
	}

	task, ok := item.(*entity.Task)
	if !ok {
		return nil, fmt.Errorf("unexpected queue item %T", item)
	}
	return task, nil
}

// Len returns the current queue length
func (q *TaskQueue) Len() int {
	return q.fifo.GetLen()
}
