package presenter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/WangYihang/Exposure-Crawler/pkg/domain/entity"
	"github.com/charmbracelet/lipgloss"
)

// Summary is the final report of a run
type Summary struct {
	Metrics    *entity.Metrics
	Domains    int
	OutputFile string
	Err        error
}

// RenderSummary renders the final statistics
func RenderSummary(s Summary) string {
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true).
		Padding(1, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11")).
		Bold(true)

	divider := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render(strings.Repeat("─", 70))

	row := func(key string, value any) string {
		return fmt.Sprintf("  %s %-22s %s\n", keyStyle.Render("✓"), key, valueStyle.Render(fmt.Sprint(value)))
	}

	output := s.OutputFile
	if output == "-" {
		output = "stdout"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("✨ Probing Complete"))
	b.WriteString("\n" + divider + "\n📊 Statistics:\n")
	b.WriteString(row("Domains", s.Domains))
	b.WriteString(row("Tasks Processed", fmt.Sprintf("%d / %d", s.Metrics.TasksProcessed, s.Metrics.TasksTotal)))
	b.WriteString(row("Findings", s.Metrics.Findings))
	b.WriteString(row("Request Failures", s.Metrics.ProbeFailures))
	b.WriteString(row("Checkpoints", s.Metrics.Checkpoints))
	if !s.Metrics.StartTime.IsZero() {
		b.WriteString(row("Elapsed", time.Since(s.Metrics.StartTime).Round(time.Millisecond)))
	}
	b.WriteString("\n📁 Output:\n")
	b.WriteString(row("Results", output))
	b.WriteString(divider + "\n")

	if s.Err != nil {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true).
			Render(fmt.Sprintf("❌ Probing stopped: %v", s.Err)))
	} else {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true).
			Render("✅ Probing finished successfully!"))
	}
	b.WriteString("\n")

	return b.String()
}

// PrintSummary writes the final statistics to out
func PrintSummary(out io.Writer, s Summary) {
	fmt.Fprint(out, RenderSummary(s))
}
