package entity

import "time"

// Metrics represents crawling metrics
type Metrics struct {
	QueueLength    int
	TotalWorkers   int
	ActiveWorkers  int
	TasksTotal     int64
	TasksProcessed int64
	Findings       int64
	ProbeFailures  int64
	Checkpoints    int64
	WorkerCrashes  int64
	StartTime      time.Time
	LastUpdateTime time.Time
	ActiveTasks    []string
}

// Progress returns the fraction of real tasks already dequeued
func (m Metrics) Progress() float64 {
	if m.TasksTotal <= 0 {
		return 1
	}
	return float64(m.TasksProcessed) / float64(m.TasksTotal)
}
