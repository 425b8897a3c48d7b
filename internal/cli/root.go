package cli

import (
	"github.com/spf13/cobra"

	"github.com/elementalai/elemental/internal/config"
	"github.com/elementalai/elemental/internal/intelligence"
	"github.com/elementalai/elemental/internal/service"
)

// App holds references to all services used by CLI commands.
type App struct {
	Config *config.Config

	Projects    service.ProjectService
	Stats       service.StatsService
	Workspace   *service.Workspace
	Deconstruct intelligence.DeconstructService

	// Wire builds the services once flags are parsed. It is nil when the
	// services are assembled up front, as in tests.
	Wire func(app *App) error

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool
}

// NewRootCmd creates the top-level "elemental" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	if app.Config == nil {
		cfg := config.Default()
		app.Config = &cfg
	}

	root := &cobra.Command{
		Use:           "elemental",
		Short:         "Strategy board for testing business ideas",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Wire == nil || app.Projects != nil {
				return nil
			}
			return app.Wire(app)
		},
	}
	app.Config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newProjectCmd(app),
		newBoardCmd(app),
	)

	return root
}
