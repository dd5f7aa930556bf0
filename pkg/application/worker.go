package application

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/WangYihang/Exposure-Crawler/pkg/domain/entity"
	"github.com/WangYihang/Exposure-Crawler/pkg/domain/repository"
	"github.com/WangYihang/Exposure-Crawler/pkg/domain/service"
	"github.com/sirupsen/logrus"
)

// Worker processes probing tasks until it dequeues a termination token
type Worker struct {
	id                 int
	useCase            *CrawlUseCase
	taskQueue          repository.TaskQueue
	prober             service.Prober
	store              repository.ResultStore
	checkpointer       repository.Checkpointer
	progress           service.ProgressReporter
	recorder           service.MetricsRecorder
	logger             *logrus.Entry
	checkpointInterval int

	currentTask atomic.Value // stores string
	isActive    atomic.Bool
}

// Run starts the worker processing loop. A panic stops this worker only,
// its termination token stays in the queue.
func (w *Worker) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer func() {
		if r := recover(); r != nil {
			w.isActive.Store(false)
			w.logger.WithField("stack", string(debug.Stack())).Errorf("worker crashed: %v", r)
			w.useCase.incrementWorkerCrashes()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, err := w.taskQueue.Dequeue(ctx)
		if err != nil {
			return
		}

		if task.IsTerminate() {
			w.logger.Trace("Received termination token")
			return
		}

		if err := w.processTask(ctx, task); err != nil {
			w.useCase.fail(err)
			return
		}
	}
}

// IsActive returns whether the worker is currently processing a task
func (w *Worker) IsActive() bool {
	return w.isActive.Load()
}

// GetCurrentTask returns the task currently being processed
func (w *Worker) GetCurrentTask() string {
	if v := w.currentTask.Load(); v != nil {
		return v.(string)
	}
	return ""
}

// processTask probes a single task and records its finding. Only errors
// that must stop the run are returned.
func (w *Worker) processTask(ctx context.Context, task *entity.Task) error {
	w.isActive.Store(true)
	w.currentTask.Store(task.String())
	defer func() {
		w.isActive.Store(false)
		w.currentTask.Store("")
	}()

	w.logger.Tracef("Trying %s", task)

	result := w.prober.Probe(ctx, task)
	w.recorder.ObserveProbe(result)

	if result.Found {
		finding := task.String()
		w.logger.Infof("Found %s", finding)
		if err := w.store.Add(task.Domain(), finding); err != nil {
			return fmt.Errorf("failed to record %s: %w", finding, err)
		}
		w.useCase.addFinding(finding)
	} else {
		w.logger.WithFields(logrus.Fields{
			"reason": result.Reason,
			"status": result.StatusCode,
			"error":  result.Err,
		}).Debugf("Nothing at %s", task)
	}

	w.useCase.incrementTasksProcessed(result)

	depth := w.taskQueue.Len()
	w.progress.Update(depth)

	if w.checkpointInterval > 0 && w.checkpointer.Rewindable() && depth%w.checkpointInterval == 0 {
		err := w.checkpointer.Save()
		w.recorder.ObserveCheckpoint(err)
		if err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}
		w.useCase.incrementCheckpoints()
		w.logger.Debugf("Checkpoint saved at queue length %d", depth)
	}

	return nil
}
