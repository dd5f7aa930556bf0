package repository

import (
	"context"

	"github.com/WangYihang/Exposure-Crawler/pkg/domain/entity"
)

// TaskQueue manages probe tasks
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(task *entity.Task) error
	// Dequeue removes and returns the next task, blocking until one is available
	Dequeue(ctx context.Context) (*entity.Task, error)
	// Len returns the current queue length
	Len() int
}

// ResultStore aggregates findings per domain
type ResultStore interface {
	// Seed registers a domain with an empty finding list
	Seed(domain string)
	// Add appends a finding to a seeded domain
	Add(domain, finding string) error
	// Snapshot returns a copy of all findings
	Snapshot() map[string][]string
	// Domains returns the seeded domains
	Domains() []string
}

// Checkpointer persists result store snapshots
type Checkpointer interface {
	// Save writes the full result store to the sink
	Save() error
	// Rewindable reports whether the sink may be rewritten mid-run
	Rewindable() bool
	// Close closes the sink
	Close() error
}
