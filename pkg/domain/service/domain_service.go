package service

import (
	"context"
	"time"

	"github.com/WangYihang/Exposure-Crawler/pkg/domain/entity"
)

// PatternExpander expands file and host name patterns for a domain
type PatternExpander interface {
	// Expand replaces the {domain} and {root} placeholders in pattern
	Expand(pattern, domain string) string
	// GetRoot extracts the root domain (eTLD+1)
	GetRoot(domain string) (string, error)
}

// Prober issues the HTTP request described by a task
type Prober interface {
	// Probe runs a task and classifies the response
	Probe(ctx context.Context, task *entity.Task) *ProbeResult
}

// ProbeResult represents the classification of a single probe
type ProbeResult struct {
	Task        *entity.Task
	Found       bool
	StatusCode  int
	ContentType string
	Reason      string
	Err         error
	Duration    time.Duration
}

// ProgressReporter renders crawl progress
type ProgressReporter interface {
	// Start sets the number of real tasks and trailing termination tokens
	Start(taskCount, terminators int)
	// Update renders progress given the current queue depth
	Update(queueLength int)
	// Finish terminates the progress output
	Finish()
}

// MetricsRecorder records probe and checkpoint events
type MetricsRecorder interface {
	// ObserveProbe records the outcome of a probe
	ObserveProbe(result *ProbeResult)
	// ObserveCheckpoint records a checkpoint write
	ObserveCheckpoint(err error)
	// ObserveWorkerCrash records a worker that stopped on a panic
	ObserveWorkerCrash()
}
