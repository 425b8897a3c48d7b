package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/elementalai/elemental/internal/cli/formatter"
	"github.com/elementalai/elemental/internal/domain"
)

// elementalHuhTheme is the Gruvbox huh theme shared by every form.
func elementalHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// classifyOptions are the choices offered when an item enters Validation.
// The empty value means "decide later".
func classifyOptions() []huh.Option[domain.Classification] {
	return []huh.Option[domain.Classification]{
		huh.NewOption("Fix: refine the current approach", domain.ClassFix),
		huh.NewOption("Pivot: change direction", domain.ClassPivot),
		huh.NewOption("Decide later", domain.Classification("")),
	}
}

// newClassifyForm asks whether title is a fix or a pivot and stores the
// answer in result. Fix is preselected.
func newClassifyForm(title string, result *domain.Classification) *huh.Form {
	*result = domain.ClassFix
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[domain.Classification]().
				Title(fmt.Sprintf("%q entered Validation", title)).
				Description("Is this strategy a fix or a pivot?").
				Options(classifyOptions()...).
				Value(result),
		),
	).WithTheme(elementalHuhTheme()).WithShowHelp(false)
}
