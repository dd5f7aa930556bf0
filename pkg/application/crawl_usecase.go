package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WangYihang/Exposure-Crawler/pkg/domain/entity"
	"github.com/WangYihang/Exposure-Crawler/pkg/domain/repository"
	"github.com/WangYihang/Exposure-Crawler/pkg/domain/service"
	"github.com/sirupsen/logrus"
)

// ErrWorkerCrashed is returned when tasks are left in the queue after all
// workers have exited
var ErrWorkerCrashed = errors.New("exiting due to a crashed worker")

// DefaultNumWorkers is the default size of the worker pool
const DefaultNumWorkers = 8

// CrawlUseCase orchestrates the probing of all sites
type CrawlUseCase struct {
	config Config

	// Services
	factory  *TaskFactory
	prober   service.Prober
	progress service.ProgressReporter
	recorder service.MetricsRecorder
	logger   logrus.FieldLogger

	// Repositories
	taskQueue    repository.TaskQueue
	store        repository.ResultStore
	checkpointer repository.Checkpointer

	// State
	metrics          *entity.Metrics
	metricsLock      sync.RWMutex
	workers          []*Worker
	wg               sync.WaitGroup
	metricsObservers []MetricsObserver
	fatalErr         error
	fatalOnce        sync.Once
	cancel           context.CancelFunc
}

// Config holds the use case configuration
type Config struct {
	NumWorkers int
	// CheckpointInterval triggers a checkpoint whenever the queue length is a
	// multiple of it, 0 disables periodic checkpoints
	CheckpointInterval int

	Sites          []string
	SearchForFiles []string
	FakeHostNames  []string
}

// MetricsObserver observes metrics changes
type MetricsObserver interface {
	OnMetricsUpdate(metrics *entity.Metrics)
	AddFinding(finding string) // Notify when a probe produced a finding
}

// NewCrawlUseCase creates a new crawl use case. progress, recorder and
// logger may be nil.
func NewCrawlUseCase(
	config Config,
	factory *TaskFactory,
	prober service.Prober,
	progress service.ProgressReporter,
	recorder service.MetricsRecorder,
	logger logrus.FieldLogger,
	taskQueue repository.TaskQueue,
	store repository.ResultStore,
	checkpointer repository.Checkpointer,
) *CrawlUseCase {
	if config.NumWorkers <= 0 {
		config.NumWorkers = DefaultNumWorkers
	}
	if progress == nil {
		progress = nopProgress{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		discard := logrus.New()
		discard.SetLevel(logrus.PanicLevel)
		logger = discard
	}

	return &CrawlUseCase{
		config:           config,
		factory:          factory,
		prober:           prober,
		progress:         progress,
		recorder:         recorder,
		logger:           logger,
		taskQueue:        taskQueue,
		store:            store,
		checkpointer:     checkpointer,
		metrics:          &entity.Metrics{TotalWorkers: config.NumWorkers},
		metricsObservers: make([]MetricsObserver, 0),
	}
}

// RegisterMetricsObserver registers a metrics observer
func (uc *CrawlUseCase) RegisterMetricsObserver(observer MetricsObserver) {
	uc.metricsObservers = append(uc.metricsObservers, observer)
}

// notifyMetricsObservers notifies all registered observers
func (uc *CrawlUseCase) notifyMetricsObservers() {
	metrics := uc.GetMetrics()
	for _, observer := range uc.metricsObservers {
		observer.OnMetricsUpdate(metrics)
	}
}

// Execute generates the tasks, runs the worker pool until every worker has
// consumed its termination token and writes the final results.
func (uc *CrawlUseCase) Execute(ctx context.Context) error {
	tasks, err := uc.factory.Build(uc.config.Sites, uc.config.SearchForFiles, uc.config.FakeHostNames)
	if err != nil {
		return err
	}

	uc.metricsLock.Lock()
	uc.metrics.StartTime = time.Now()
	uc.metrics.TasksTotal = int64(len(tasks))
	uc.metricsLock.Unlock()

	uc.logger.Infof("Probing %d domains with %d tasks", len(uc.store.Domains()), len(tasks))

	// Enqueue real tasks followed by one termination token per worker
	for _, task := range tasks {
		if err := uc.taskQueue.Enqueue(task); err != nil {
			return fmt.Errorf("failed to enqueue %s: %w", task, err)
		}
	}
	for i := 0; i < uc.config.NumWorkers; i++ {
		if err := uc.taskQueue.Enqueue(entity.NewTerminateTask()); err != nil {
			return fmt.Errorf("failed to enqueue termination token: %w", err)
		}
	}
	uc.progress.Start(len(tasks), uc.config.NumWorkers)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	uc.cancel = cancel

	if len(uc.metricsObservers) > 0 {
		go uc.updateMetricsPeriodically(runCtx)
	}

	uc.startWorkers(runCtx)
	uc.wg.Wait()
	uc.progress.Finish()
	uc.notifyMetricsObservers()

	if uc.fatalErr != nil {
		return uc.fatalErr
	}

	if err := ctx.Err(); err != nil {
		uc.logger.Warn("Interrupted, saving partial results")
		if saveErr := uc.save(); saveErr != nil {
			return saveErr
		}
		return err
	}

	if remaining := uc.taskQueue.Len(); remaining != 0 {
		uc.logger.WithField("remaining", remaining).Error("[x] Exiting due to exception in worker")
		return ErrWorkerCrashed
	}

	return uc.save()
}

// save writes the final unconditional checkpoint
func (uc *CrawlUseCase) save() error {
	err := uc.checkpointer.Save()
	uc.recorder.ObserveCheckpoint(err)
	if err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	atomic.AddInt64(&uc.metrics.Checkpoints, 1)
	return nil
}

// fail records the first fatal error and stops the remaining workers
func (uc *CrawlUseCase) fail(err error) {
	uc.fatalOnce.Do(func() {
		uc.fatalErr = err
		if uc.cancel != nil {
			uc.cancel()
		}
	})
}

// startWorkers starts all worker goroutines
func (uc *CrawlUseCase) startWorkers(ctx context.Context) {
	workers := make([]*Worker, uc.config.NumWorkers)
	for i := range workers {
		worker := &Worker{
			id:                 i,
			useCase:            uc,
			taskQueue:          uc.taskQueue,
			prober:             uc.prober,
			store:              uc.store,
			checkpointer:       uc.checkpointer,
			progress:           uc.progress,
			recorder:           uc.recorder,
			logger:             uc.logger.WithField("worker", i),
			checkpointInterval: uc.config.CheckpointInterval,
		}
		workers[i] = worker
	}

	uc.metricsLock.Lock()
	uc.workers = workers
	uc.metricsLock.Unlock()

	for _, worker := range workers {
		uc.wg.Add(1)
		go worker.Run(ctx, &uc.wg)
	}
}

// updateMetricsPeriodically periodically updates and notifies observers
func (uc *CrawlUseCase) updateMetricsPeriodically(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			uc.notifyMetricsObservers()
		}
	}
}

// GetMetrics returns the current metrics
func (uc *CrawlUseCase) GetMetrics() *entity.Metrics {
	uc.metricsLock.RLock()
	defer uc.metricsLock.RUnlock()

	metrics := entity.Metrics{
		TotalWorkers:   uc.metrics.TotalWorkers,
		TasksTotal:     uc.metrics.TasksTotal,
		TasksProcessed: atomic.LoadInt64(&uc.metrics.TasksProcessed),
		Findings:       atomic.LoadInt64(&uc.metrics.Findings),
		ProbeFailures:  atomic.LoadInt64(&uc.metrics.ProbeFailures),
		Checkpoints:    atomic.LoadInt64(&uc.metrics.Checkpoints),
		WorkerCrashes:  atomic.LoadInt64(&uc.metrics.WorkerCrashes),
		StartTime:      uc.metrics.StartTime,
		LastUpdateTime: time.Now(),
		QueueLength:    uc.taskQueue.Len(),
	}

	// Count active workers and collect their current tasks
	for _, worker := range uc.workers {
		if worker != nil && worker.IsActive() {
			metrics.ActiveWorkers++
			if task := worker.GetCurrentTask(); task != "" {
				metrics.ActiveTasks = append(metrics.ActiveTasks, task)
			}
		}
	}

	return &metrics
}

// Results returns a snapshot of the findings per domain
func (uc *CrawlUseCase) Results() map[string][]string {
	return uc.store.Snapshot()
}

// incrementTasksProcessed counts a probed task
func (uc *CrawlUseCase) incrementTasksProcessed(result *service.ProbeResult) {
	atomic.AddInt64(&uc.metrics.TasksProcessed, 1)
	if result.Err != nil {
		atomic.AddInt64(&uc.metrics.ProbeFailures, 1)
	}
}

// addFinding counts a finding and notifies observers
func (uc *CrawlUseCase) addFinding(finding string) {
	atomic.AddInt64(&uc.metrics.Findings, 1)
	for _, observer := range uc.metricsObservers {
		observer.AddFinding(finding)
	}
}

// incrementCheckpoints counts a periodic checkpoint
func (uc *CrawlUseCase) incrementCheckpoints() {
	atomic.AddInt64(&uc.metrics.Checkpoints, 1)
}

// incrementWorkerCrashes counts a worker stopped by a panic
func (uc *CrawlUseCase) incrementWorkerCrashes() {
	atomic.AddInt64(&uc.metrics.WorkerCrashes, 1)
	uc.recorder.ObserveWorkerCrash()
}

type nopProgress struct{}

func (nopProgress) Start(int, int) {}
func (nopProgress) Update(int)     {}
func (nopProgress) Finish()        {}

type nopRecorder struct{}

func (nopRecorder) ObserveProbe(*service.ProbeResult) {}
func (nopRecorder) ObserveCheckpoint(error)           {}
func (nopRecorder) ObserveWorkerCrash()               {}
