package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/elementalai/elemental/internal/board"
	"github.com/elementalai/elemental/internal/domain"
)

const (
	minColumnWidth     = 18
	defaultColumnWidth = 28
)

// BoardLayout carries the interactive decorations of a board render. The
// zero value renders a plain board.
type BoardLayout struct {
	Width    int // total width; 0 uses the default column width
	Selected string
	Grabbed  string
	Preview  *board.Preview
}

// ColumnWidth returns the width of one of the four columns.
func (l BoardLayout) ColumnWidth() int {
	if l.Width <= 0 {
		return defaultColumnWidth
	}
	return max((l.Width-len(domain.Lists)*colGap)/len(domain.Lists), minColumnWidth)
}

// FormatBoard renders the four lists side by side.
func FormatBoard(s board.Snapshot, layout BoardLayout) string {
	width := layout.ColumnWidth()
	cols := make([]string, 0, len(domain.Lists)*2)
	for i, l := range domain.Lists {
		if i > 0 {
			cols = append(cols, strings.Repeat(" ", colGap))
		}
		cols = append(cols, renderColumn(l, s.Lists[l], s.Pending, layout, width))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func renderColumn(l domain.ListID, items []domain.StrategyItem, pending string, layout BoardLayout, width int) string {
	accent := lipgloss.NewStyle().Foreground(ListColor(l)).Bold(true)
	title := fmt.Sprintf("%s %s", strings.ToUpper(l.Title()), Dim(fmt.Sprintf("(%d)", len(items))))

	lines := []string{accent.Render(title), StyleDim.Render(strings.Repeat("─", width))}
	for i := range items {
		if layout.Preview != nil && layout.Preview.List == l && layout.Preview.Index == i {
			lines = append(lines, dropMarker(width))
		}
		lines = append(lines, renderCard(&items[i], pending, layout, width))
	}
	if layout.Preview != nil && layout.Preview.List == l && layout.Preview.Index >= len(items) {
		lines = append(lines, dropMarker(width))
	}
	if len(items) == 0 && layout.Preview == nil {
		lines = append(lines, Dim("(empty)"))
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func renderCard(it *domain.StrategyItem, pending string, layout BoardLayout, width int) string {
	prefix := "  "
	switch it.ID {
	case layout.Grabbed:
		prefix = StyleHeader.Render("✋")
	case layout.Selected:
		prefix = StyleHeader.Render("▸ ")
	}

	badge := ClassificationBadge(it.Classification)
	title := it.Title
	if it.Completed {
		title = "✔ " + title
	}
	room := width - lipgloss.Width(prefix) - lipgloss.Width(badge) - 1
	line := prefix + badge + " " + Truncate(title, room)
	if it.ID == layout.Selected || it.ID == layout.Grabbed {
		line = prefix + badge + " " + Bold(Truncate(title, room))
	}

	meta := "    " + TruncID(it.ID)
	if it.ID == pending {
		meta += " " + StyleYellow.Render("⚑ fix/pivot?")
	}
	return line + "\n" + meta
}

func dropMarker(width int) string {
	return StyleHeader.Render(strings.Repeat("┄", width))
}

// FormatItem renders the details of one strategy.
func FormatItem(it domain.StrategyItem, list domain.ListID) string {
	m := it.EffectiveMetrics()

	growth := fmt.Sprintf("%.1f%%", m.GrowthRate)
	if it.GrowthRate == nil {
		growth += Dim(" (est.)")
	}
	conf := fmt.Sprintf("%d", m.Confidence)
	if it.Confidence == nil {
		conf += Dim(" (est.)")
	}
	impact := ImpactPill(m.Impact)
	if it.Impact == domain.ImpactNone {
		impact += Dim(" (est.)")
	}

	var b strings.Builder
	b.WriteString(Bold(it.Title) + "  " + ClassificationBadge(it.Classification) + "\n")
	if it.Description != "" {
		b.WriteString(StyleFg.Render(it.Description) + "\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s  %s\n", Dim("ID        "), it.ID)
	fmt.Fprintf(&b, "%s  %s\n", Dim("LIST      "), lipgloss.NewStyle().Foreground(ListColor(list)).Render(list.Title()))
	fmt.Fprintf(&b, "%s  %s\n", Dim("IMPACT    "), impact)
	fmt.Fprintf(&b, "%s  %s\n", Dim("GROWTH    "), growth)
	fmt.Fprintf(&b, "%s  %s\n", Dim("CONFIDENCE"), conf)
	if it.Completed {
		fmt.Fprintf(&b, "%s  %s\n", Dim("STATUS    "), StyleGreen.Render("✔ Completed"))
	}
	return RenderBox("", strings.TrimRight(b.String(), "\n"))
}

// FormatItemMoved is the one-line confirmation of a move.
func FormatItemMoved(title string, from, to domain.ListID) string {
	if from == to {
		return fmt.Sprintf("%s Reordered %s in %s", StyleGreen.Render("✔"), Bold(title), to.Title())
	}
	return fmt.Sprintf("%s Moved %s %s %s %s", StyleGreen.Render("✔"), Bold(title),
		from.Title(), Dim("→"), to.Title())
}

// FormatGatePrompt tells the user a Fix/Pivot decision is outstanding.
func FormatGatePrompt(title, itemID string) string {
	return fmt.Sprintf("%s %s entered Validation. Is it a fix or a pivot?\n  %s",
		StyleYellow.Render("⚑"), Bold(title),
		Dim(fmt.Sprintf("elemental board classify %s fix|pivot", shortID(itemID))))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
