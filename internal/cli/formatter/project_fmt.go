package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/elementalai/elemental/internal/domain"
)

// FormatProjectList renders the project table inside a bordered box. The
// active project is marked with an arrow.
func FormatProjectList(projects []*domain.Project, activeID string, now time.Time) string {
	headers := []string{"", "ID", "NAME", "STATUS", "UPDATED"}
	rows := make([][]string, 0, len(projects))

	for _, p := range projects {
		marker := " "
		if p.ID == activeID {
			marker = StyleHeader.Render("→")
		}
		id := TruncID(p.ID)
		if strings.TrimSpace(p.ID) == "" {
			id = Dim("--")
		}
		rows = append(rows, []string{
			marker,
			id,
			Bold(p.Name),
			StatusPill(p.Status),
			Dim(HumanTimestampFrom(p.UpdatedAt, now)),
		})
	}

	return RenderBox("Projects", RenderTable(headers, rows))
}

// FormatProjectCreated is the confirmation printed after "project add".
func FormatProjectCreated(p *domain.Project, seeded []string, source string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Created project %s %s\n", StyleGreen.Render("✔"), Bold(p.Name), TruncID(p.ID))
	if len(seeded) == 0 {
		return b.String()
	}
	label := fmt.Sprintf("Discovery seeded with %d strategies", len(seeded))
	if source != "" {
		label += Dim(" (" + source + ")")
	}
	b.WriteString(label + "\n")
	for _, name := range seeded {
		fmt.Fprintf(&b, "  %s %s\n", StyleBlue.Render("•"), name)
	}
	return b.String()
}
