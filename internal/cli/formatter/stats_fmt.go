package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/elementalai/elemental/internal/domain"
	"github.com/elementalai/elemental/internal/service"
)

const barWidth = 20

// FormatStats renders the dashboard summary of one board.
func FormatStats(projectName string, s service.BoardStats) string {
	var b strings.Builder

	b.WriteString(Bold(projectName) + "\n\n")

	rows := make([][]string, 0, len(domain.Lists))
	for _, l := range domain.Lists {
		n := s.PerList[l]
		style := lipgloss.NewStyle().Foreground(ListColor(l))
		rows = append(rows, []string{
			style.Render(l.Title()),
			fmt.Sprintf("%d", n),
			style.Render(bar(n, s.Total)),
		})
	}
	b.WriteString(RenderTable([]string{"LIST", "ITEMS", ""}, rows))
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s  %s  %s  %s\n", Dim("CLASSIFIED"),
		StyleBlue.Render(fmt.Sprintf("%d fix", s.Fix)),
		StylePurple.Render(fmt.Sprintf("%d pivot", s.Pivot)),
		Dim(fmt.Sprintf("%d unclassified", s.Unclassified)))
	fmt.Fprintf(&b, "%s  %d/%d (%.1f%%)\n", Dim("COMPLETED "), s.Completed, s.Total, s.CompletionPct)
	fmt.Fprintf(&b, "%s  %.1f\n", Dim("CONFIDENCE"), s.AvgConfidence)
	fmt.Fprintf(&b, "%s  %.1f%%\n", Dim("GROWTH    "), s.AvgGrowthRate)
	if s.EstimatedFields > 0 {
		b.WriteString(Dim(fmt.Sprintf("%d metric values are estimates", s.EstimatedFields)) + "\n")
	}
	if s.Pending != "" {
		fmt.Fprintf(&b, "%s  %s\n", StyleYellow.Render("⚑ PENDING "), shortID(s.Pending))
	}

	return RenderBox("Board Stats", strings.TrimRight(b.String(), "\n"))
}

func bar(n, total int) string {
	if total <= 0 {
		return Dim(strings.Repeat("░", barWidth))
	}
	filled := n * barWidth / total
	return strings.Repeat("█", filled) + Dim(strings.Repeat("░", barWidth-filled))
}
