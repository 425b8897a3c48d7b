package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/elementalai/elemental/internal/cli/formatter"
	"github.com/elementalai/elemental/internal/domain"
	"github.com/elementalai/elemental/internal/intelligence"
	"github.com/elementalai/elemental/internal/service"
)

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		newProjectAddCmd(app),
		newProjectListCmd(app),
		newProjectUseCmd(app),
		newProjectRenameCmd(app),
		newProjectArchiveCmd(app),
		newProjectUnarchiveCmd(app),
		newProjectRemoveCmd(app),
	)

	return cmd
}

func newProjectAddCmd(app *App) *cobra.Command {
	var name, idea string
	var seeds []string
	var noDeconstruct, use bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a project and seed its Discovery list",
		Long: "Create a project. With --idea and no --seed, the idea is broken down into\n" +
			"candidate strategies (by the model when enabled, otherwise a fixed playbook).",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p := &domain.Project{Name: name, Idea: strings.TrimSpace(idea)}

			source := ""
			if len(seeds) == 0 && p.Idea != "" && !noDeconstruct && app.Deconstruct != nil {
				d, err := app.Deconstruct.Deconstruct(ctx, p.Idea)
				if err != nil {
					return fmt.Errorf("deconstructing idea: %w", err)
				}
				seeds = d.Names()
				source = string(d.Source)
				if d.Source == intelligence.SourceFallback && d.Warning != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), formatter.Dim("model unavailable, using playbook: "+d.Warning))
				}
			}

			if err := app.Projects.Create(ctx, p, seeds); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProjectCreated(p, seeds, source))

			if use {
				return useProject(ctx, app, p.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&idea, "idea", "", "Business idea to deconstruct into strategies")
	cmd.Flags().StringSliceVar(&seeds, "seed", nil, "Strategy name to add to Discovery (repeatable)")
	cmd.Flags().BoolVar(&noDeconstruct, "no-deconstruct", false, "Do not derive strategies from --idea")
	cmd.Flags().BoolVar(&use, "use", true, "Make the new project the active one")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newProjectListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			projects, err := app.Projects.List(ctx, all)
			if err != nil {
				return err
			}

			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects found.")
				return nil
			}

			active, err := app.Workspace.ActiveProjectID(ctx)
			if err != nil && !errors.Is(err, service.ErrNoActiveProject) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProjectList(projects, active, time.Now().UTC()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include archived projects")

	return cmd
}

func newProjectUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use PROJECT",
		Short: "Set the project that board commands work on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := app.Projects.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if err := useProject(ctx, app, p.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Now using %s %s\n", formatter.Bold(p.Name), formatter.TruncID(p.ID))
			return nil
		},
	}
}

// useProject records projectID as active by opening and closing its board.
func useProject(ctx context.Context, app *App, projectID string) error {
	if err := app.Workspace.Open(ctx, projectID); err != nil {
		return err
	}
	return app.Workspace.Close(ctx)
}

func newProjectRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename PROJECT NAME",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := app.Projects.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if err := app.Projects.Rename(ctx, p.ID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s %s %s\n", p.Name, formatter.Dim("→"), formatter.Bold(strings.TrimSpace(args[1])))
			return nil
		},
	}
}

func newProjectArchiveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "archive PROJECT",
		Short: "Archive a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := app.Projects.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if err := app.Projects.Archive(ctx, p.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived project %s\n", p.Name)
			return nil
		},
	}
}

func newProjectUnarchiveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unarchive PROJECT",
		Short: "Restore an archived project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := app.Projects.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if err := app.Projects.Unarchive(ctx, p.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored project %s\n", p.Name)
			return nil
		},
	}
}

func newProjectRemoveCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove PROJECT",
		Short: "Delete a project and its board",
		Long:  "Delete a project. Projects must be archived first unless --force is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := app.Projects.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if err := app.Projects.Delete(ctx, p.ID, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed project %s\n", p.Name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Delete even if the project is not archived")

	return cmd
}
