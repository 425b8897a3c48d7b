package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/elementalai/elemental/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// ListColor returns the accent color of a board column.
func ListColor(l domain.ListID) lipgloss.Color {
	switch l {
	case domain.ListDiscovery:
		return ColorBlue
	case domain.ListValidation:
		return ColorYellow
	case domain.ListGrowth:
		return ColorPurple
	case domain.ListSuccess:
		return ColorGreen
	default:
		return ColorDim
	}
}

// ClassificationBadge returns a short colored marker such as "[FIX]".
func ClassificationBadge(c domain.Classification) string {
	switch c {
	case domain.ClassFix:
		return StyleBlue.Render("[FIX]")
	case domain.ClassPivot:
		return StylePurple.Render("[PIVOT]")
	default:
		return StyleDim.Render("[?]")
	}
}

// ImpactPill renders the impact level, or a dim placeholder.
func ImpactPill(i domain.Impact) string {
	switch i {
	case domain.ImpactHigh:
		return StyleRed.Render("▲ high")
	case domain.ImpactMedium:
		return StyleYellow.Render("● medium")
	case domain.ImpactLow:
		return StyleGreen.Render("▼ low")
	default:
		return StyleDim.Render("--")
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
