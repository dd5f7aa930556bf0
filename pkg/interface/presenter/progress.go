package presenter

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/WangYihang/Exposure-Crawler/pkg/domain/service"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/muesli/termenv"
)

const (
	fullBlock = '█'
	halfBlock = "▌"
	// minBarWidth keeps the bar readable on very narrow terminals
	minBarWidth = 10
)

// ProgressReporter implements service.ProgressReporter. It renders an
// overwriting bar, or a plain percentage per line in verbose mode where
// redraws would interleave with log lines.
type ProgressReporter struct {
	out         io.Writer
	taskCount   int
	terminators int
	verbose     bool
	width       func() int

	mu       sync.Mutex
	finished bool
	dirty    bool
}

// ProgressConfig holds progress reporter configuration
type ProgressConfig struct {
	Verbose bool
	// Width returns the terminal width
	Width func() int
}

// NewProgressReporter creates a progress reporter writing to out
func NewProgressReporter(out io.Writer, config ProgressConfig) *ProgressReporter {
	width := config.Width
	if width == nil {
		width = func() int { return 80 }
	}
	return &ProgressReporter{
		out:     out,
		verbose: config.Verbose,
		width:   width,
	}
}

// Start implements service.ProgressReporter. taskCount is the number of real
// tasks and terminators the number of termination tokens queued behind them.
func (r *ProgressReporter) Start(taskCount, terminators int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.taskCount = taskCount
	r.terminators = terminators
	r.finished = false
	r.dirty = false
}

// Progress computes 1 - remaining/taskCount from the queue depth
func (r *ProgressReporter) Progress(queueLength int) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taskCount <= 0 {
		return 1
	}
	remaining := queueLength - r.terminators
	if remaining < 0 {
		remaining = 0
	}
	if remaining > r.taskCount {
		remaining = r.taskCount
	}
	return 1 - float64(remaining)/float64(r.taskCount)
}

// Update implements service.ProgressReporter
func (r *ProgressReporter) Update(queueLength int) {
	progress := r.Progress(queueLength)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.verbose {
		fmt.Fprintf(r.out, "progress: %.1f%%\n", progress*100)
		return
	}
	if r.finished {
		return
	}

	fmt.Fprintf(r.out, "\r%s", RenderBar(progress, r.width()))
	r.dirty = true
	if progress >= 1 {
		fmt.Fprintln(r.out)
		r.finished = true
		r.dirty = false
	}
}

// Finish implements service.ProgressReporter
func (r *ProgressReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dirty {
		fmt.Fprintln(r.out)
		r.dirty = false
	}
	r.finished = true
}

// RenderBar renders a bar filling width columns including the percentage.
// Whole cells come from the bubbles progress model; a remaining half cell or
// more is drawn as a half block.
func RenderBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	label := fmt.Sprintf(" %5.1f%%", progress*100)
	cells := width - len(label) - 2
	if cells < minBarWidth {
		cells = minBarWidth
	}

	halves := int(progress * float64(cells) * 2)
	full := halves / 2

	bar := newBar(cells)
	view := bar.ViewAs(float64(full) / float64(cells))
	if halves%2 == 1 {
		view = strings.Replace(view, " ", halfBlock, 1)
	}
	return "[" + view + "]" + label
}

// newBar creates an uncolored bubbles bar of the given width
func newBar(width int) progress.Model {
	return progress.New(
		progress.WithFillCharacters(fullBlock, ' '),
		progress.WithoutPercentage(),
		progress.WithColorProfile(termenv.Ascii),
		progress.WithWidth(width),
	)
}

// NopReporter discards progress updates
type NopReporter struct{}

// Start implements service.ProgressReporter
func (NopReporter) Start(int, int) {}

// Update implements service.ProgressReporter
func (NopReporter) Update(int) {}

// Finish implements service.ProgressReporter
func (NopReporter) Finish() {}

var (
	_ service.ProgressReporter = (*ProgressReporter)(nil)
	_ service.ProgressReporter = NopReporter{}
)
