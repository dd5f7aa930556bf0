package presenter

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/WangYihang/Exposure-Crawler/pkg/domain/entity"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxRecentFindings bounds the findings kept for display
const maxRecentFindings = 50

// Dashboard is a TUI dashboard for probing progress
type Dashboard struct {
	metrics        *entity.Metrics
	recentFindings []string
	bar            progress.Model
	width          int
	height         int
	startTime      time.Time
	mu             sync.RWMutex
}

type tickMsg time.Time

// NewDashboard creates a new TUI dashboard
func NewDashboard() *Dashboard {
	return &Dashboard{
		metrics:   &entity.Metrics{},
		bar:       progress.New(progress.WithDefaultGradient()),
		startTime: time.Now(),
	}
}

// Init initializes the dashboard
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

// Update handles dashboard updates
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			return d, tea.Quit
		}

	case tea.WindowSizeMsg:
		d.mu.Lock()
		d.width = msg.Width
		d.height = msg.Height
		d.mu.Unlock()
		return d, nil

	case tickMsg:
		// Continue ticking to keep the display updating
		return d, tickCmd()
	}

	return d, nil
}

// View renders the dashboard
func (d *Dashboard) View() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.width == 0 {
		return "Initializing..."
	}

	var sections []string

	header := d.renderHeader()
	sections = append(sections, header)
	headerHeight := lipgloss.Height(header)

	bar := d.renderProgress()
	sections = append(sections, bar)
	barHeight := lipgloss.Height(bar)

	footer := d.renderFooter()
	footerHeight := lipgloss.Height(footer)

	// Calculate dimensions for grid
	availableHeight := d.height - headerHeight - barHeight - footerHeight
	if availableHeight < 0 {
		availableHeight = 0
	}
	halfHeight := availableHeight / 2

	leftWidth := d.width / 2
	rightWidth := d.width - leftWidth

	// Row 1: General Stats (Left) | Probe Stats (Right)
	row1 := lipgloss.JoinHorizontal(
		lipgloss.Top,
		d.renderGeneralStats(leftWidth, halfHeight),
		d.renderProbeStats(rightWidth, halfHeight),
	)
	sections = append(sections, row1)

	// Row 2: Active Tasks (Left) | Recent Findings (Right)
	remainingHeight := availableHeight - halfHeight
	row2 := lipgloss.JoinHorizontal(
		lipgloss.Top,
		d.renderActiveTasks(leftWidth, remainingHeight),
		d.renderRecentFindings(rightWidth, remainingHeight),
	)
	sections = append(sections, row2)

	sections = append(sections, footer)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// OnMetricsUpdate implements application.MetricsObserver
func (d *Dashboard) OnMetricsUpdate(metrics *entity.Metrics) {
	d.mu.Lock()
	d.metrics = metrics
	d.mu.Unlock()
}

// AddFinding implements application.MetricsObserver
func (d *Dashboard) AddFinding(finding string) {
	d.mu.Lock()
	d.recentFindings = append(d.recentFindings, finding)

	// Keep only the last ones for memory efficiency
	if len(d.recentFindings) > maxRecentFindings {
		d.recentFindings = d.recentFindings[len(d.recentFindings)-maxRecentFindings:]
	}
	d.mu.Unlock()
}

func (d *Dashboard) renderHeader() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7D56F4")).
		Padding(0, 1)

	timeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#999999"))

	now := time.Now().Format("15:04:05")

	title := titleStyle.Render("🔍 Exposure Crawler")
	timeInfo := timeStyle.Render(fmt.Sprintf(" Running: %s | Time: %s", formatElapsed(time.Since(d.startTime)), now))

	return title + timeInfo
}

func (d *Dashboard) renderProgress() string {
	bar := d.bar
	bar.Width = d.width - 4
	if bar.Width < minBarWidth {
		bar.Width = minBarWidth
	}
	return lipgloss.NewStyle().Padding(1, 1, 0, 1).Render(bar.ViewAs(d.metrics.Progress()))
}

func panelStyle(color string, width, height int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(color)).
		Padding(1, 2).
		Width(max(width-2, 0)).  // Adjust for border
		Height(max(height-2, 0)) // Adjust for border
}

func (d *Dashboard) renderGeneralStats(width, height int) string {
	stats := []string{
		"📊 General Statistics",
		"",
		fmt.Sprintf("Queue Length:      %d", d.metrics.QueueLength),
		fmt.Sprintf("Active Workers:    %d / %d", d.metrics.ActiveWorkers, d.metrics.TotalWorkers),
		fmt.Sprintf("Tasks:             %d / %d", d.metrics.TasksProcessed, d.metrics.TasksTotal),
		fmt.Sprintf("Checkpoints:       %d", d.metrics.Checkpoints),
	}

	elapsed := time.Since(d.startTime).Seconds()
	if elapsed > 0 {
		taskRate := float64(d.metrics.TasksProcessed) / elapsed
		stats = append(stats,
			"",
			fmt.Sprintf("Task Rate:         %.1f tasks/s", taskRate),
		)
	}

	return panelStyle("#874BFD", width, height).Render(strings.Join(stats, "\n"))
}

func (d *Dashboard) renderProbeStats(width, height int) string {
	stats := []string{
		"🌐 Probe Statistics",
		"",
		fmt.Sprintf("Findings:          %d", d.metrics.Findings),
		fmt.Sprintf("Request Failures:  %d", d.metrics.ProbeFailures),
		fmt.Sprintf("Worker Crashes:    %d", d.metrics.WorkerCrashes),
	}

	if d.metrics.TasksProcessed > 0 {
		hitRate := float64(d.metrics.Findings) / float64(d.metrics.TasksProcessed) * 100
		stats = append(stats,
			"",
			fmt.Sprintf("Hit Rate:          %.1f%%", hitRate),
		)
	}

	return panelStyle("#FF6B6B", width, height).Render(strings.Join(stats, "\n"))
}

func (d *Dashboard) renderActiveTasks(width, height int) string {
	lines := []string{"⚙️  Active Tasks", ""}
	if len(d.metrics.ActiveTasks) == 0 {
		lines = append(lines, "Idle")
	} else {
		lines = append(lines, tail(d.metrics.ActiveTasks, height-6, "  › ")...)
	}

	return panelStyle("#4ECDC4", width, height).Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) renderRecentFindings(width, height int) string {
	lines := []string{
		fmt.Sprintf("🔓 Recent Findings (Total: %d)", d.metrics.Findings),
		"",
	}

	if len(d.recentFindings) == 0 {
		lines = append(lines, "Nothing exposed yet...")
	} else {
		// Height - 2 (border) - 2 (padding) - 2 (title + empty line)
		lines = append(lines, tail(d.recentFindings, height-6, "  • ")...)
	}

	return panelStyle("#04B575", width, height).Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) renderFooter() string {
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#626262")).
		Padding(1, 0)

	return footerStyle.Render("Press 'q' or 'Ctrl+C' to quit")
}

// tail returns the last n items prefixed for display
func tail(items []string, n int, prefix string) []string {
	if n < 0 {
		n = 0
	}
	start := 0
	if len(items) > n {
		start = len(items) - n
	}
	lines := make([]string, 0, len(items)-start)
	for _, item := range items[start:] {
		lines = append(lines, prefix+item)
	}
	return lines
}

func formatElapsed(elapsed time.Duration) string {
	hours := int(elapsed.Hours())
	minutes := int(elapsed.Minutes()) % 60
	seconds := int(elapsed.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*500, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
