package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elementalai/elemental/internal/board"
	"github.com/elementalai/elemental/internal/cli/formatter"
	"github.com/elementalai/elemental/internal/domain"
	"github.com/elementalai/elemental/internal/intelligence"
)

func newBoardCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Work with the strategy board of the active project",
	}
	cmd.PersistentFlags().StringVarP(&projectRef, "project", "p", "", "Project id, id prefix or name (default: active project)")

	cmd.AddCommand(
		newBoardShowCmd(app, &projectRef),
		newBoardAddCmd(app, &projectRef),
		newBoardMoveCmd(app, &projectRef),
		newBoardReorderCmd(app, &projectRef),
		newBoardClassifyCmd(app, &projectRef),
		newBoardCancelCmd(app, &projectRef),
		newBoardPromptCmd(app, &projectRef),
		newBoardCompleteCmd(app, &projectRef),
		newBoardEditCmd(app, &projectRef),
		newBoardRemoveCmd(app, &projectRef),
		newBoardInspectCmd(app, &projectRef),
		newBoardDescribeCmd(app, &projectRef),
		newBoardSeedCmd(app, &projectRef),
		newBoardStatsCmd(app, &projectRef),
		newBoardUICmd(app, &projectRef),
	)

	return cmd
}

// openBoard opens the referenced project, or the active one when ref is
// empty, and returns a func that flushes and closes it.
func openBoard(ctx context.Context, app *App, ref string) (*board.Board, func() error, error) {
	var err error
	if ref != "" {
		var p *domain.Project
		p, err = app.Projects.Resolve(ctx, ref)
		if err != nil {
			return nil, nil, err
		}
		err = app.Workspace.Open(ctx, p.ID)
	} else {
		err = app.Workspace.OpenActive(ctx)
	}
	if err != nil {
		return nil, nil, err
	}
	return app.Workspace.Board(), func() error { return app.Workspace.Close(ctx) }, nil
}

// withBoard runs fn against an open board and reports persistence failures
// alongside fn's own error.
func withBoard(app *App, ref string, fn func(ctx context.Context, b *board.Board) error) (err error) {
	ctx := context.Background()
	b, closeFn, err := openBoard(ctx, app, ref)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(ctx, b)
}

// resolveProject returns the referenced project, or the active one.
func resolveProject(ctx context.Context, app *App, ref string) (*domain.Project, error) {
	if ref != "" {
		return app.Projects.Resolve(ctx, ref)
	}
	id, err := app.Workspace.ActiveProjectID(ctx)
	if err != nil {
		return nil, err
	}
	return app.Projects.GetByID(ctx, id)
}

func newBoardShowCmd(app *App, projectRef *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the four lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(app, *projectRef, func(ctx context.Context, b *board.Board) error {
				snap := b.Snapshot()
				out := cmd.OutOrStdout()
				if asJSON {
					data, err := json.MarshalIndent(snap, "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintln(out, string(data))
					return nil
				}

				p := app.Workspace.Project()
				fmt.Fprintln(out, formatter.Header(p.Name))
				fmt.Fprintln(out, formatter.FormatBoard(snap, formatter.BoardLayout{}))
				if pending, ok := b.Pending(); ok {
					it, err := b.Item(pending)
					if err == nil {
						fmt.Fprintln(out)
						fmt.Fprintln(out, formatter.FormatGatePrompt(it.Title, it.ID))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the board snapshot as JSON")

	return cmd
}

func newBoardAddCmd(app *App, projectRef *string) *cobra.Command {
	var f itemFlags

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a strategy to Discovery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := domain.NewItem{Title: args[0]}
			patch, err := f.patch(cmd)
			if err != nil {
				return err
			}
			if patch.Description != nil {
				data.Description = *patch.Description
			}
			if patch.Impact != nil {
				data.Impact = *patch.Impact
			}
			data.GrowthRate = patch.GrowthRate
			data.Confidence = patch.Confidence

			return withBoard(app, *projectRef, func(ctx context.Context, b *board.Board) error {
				id, err := app.Workspace.AddItem(ctx, data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Added %s to Discovery %s\n",
					formatter.StyleGreen.Render("✔"), formatter.Bold(strings.TrimSpace(args[0])), formatter.TruncID(id))
				return nil
			})
		},
	}

	f.register(cmd, false)

	return cmd
}

func newBoardMoveCmd(app *App, projectRef *string) *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:   "move ITEM LIST",
		Short: "Move a strategy to another list",
		Long:  "Move a strategy to discovery, validation, growth or success. --index sets its position (default: end).",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := domain.ParseListID(strings.ToLower(args[1]))
			if err != nil {
				return err
			}
			return withBoard(app, *projectRef, func(ctx context.Context, b *board.Board) error {
				it, err := resolveItem(b, args[0])
				if err != nil {
					return err
				}
				return moveAndPrompt(ctx, cmd, app, b, it, target, index)
			})
		},
	}

	cmd.Flags().IntVar(&index, "index", -1, "Zero-based position in the target list")

	return cmd
}

func newBoardReorderCmd(app *App, projectRef *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder ITEM INDEX",
		Short: "Change a strategy's position within its list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil || index < 0 {
				return fmt.Errorf("%w: index must be a non-negative integer", domain.ErrValidation)
			}
			return withBoard(app, *projectRef, func(ctx context.Context, b *board.Board) error {
				it, err := resolveItem(b, args[0])
				if err != nil {
					return err
				}
				l, _, err := b.Locate(it.ID)
				if err != nil {
					return err
				}
				return moveAndPrompt(ctx, cmd, app, b, it, l, index)
			})
		},
	}
}

// moveAndPrompt moves it and, when the move leaves it awaiting a Fix/Pivot
// decision, asks for one on a terminal or prints how to give it.
func moveAndPrompt(ctx context.Context, cmd *cobra.Command, app *App, b *board.Board, it domain.StrategyItem, target domain.ListID, index int) error {
	from, _, err := b.Locate(it.ID)
	if err != nil {
		return err
	}
	if index < 0 {
		items, _ := b.List(target)
		index = len(items)
	}
	moveErr := app.Workspace.MoveItem(ctx, it.ID, target, index)
	if moveErr == nil {
		fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatItemMoved(it.Title, from, target))
	}
	if pending, ok := b.Pending(); ok && pending == it.ID {
		if err := promptClassification(ctx, cmd, app, it); err != nil {
			return errors.Join(moveErr, err)
		}
	}
	return moveErr
}

// promptClassification runs the Fix/Pivot form on a terminal. Elsewhere it
// prints the command that answers it.
func promptClassification(ctx context.Context, cmd *cobra.Command, app *App, it domain.StrategyItem) error {
	if app.IsInteractive == nil || !app.IsInteractive() {
		fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatGatePrompt(it.Title, it.ID))
		return nil
	}

	var kind domain.Classification
	if err := newClassifyForm(it.Title, &kind).Run(); err != nil {
		return err
	}
	if kind == "" {
		fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatGatePrompt(it.Title, it.ID))
		return nil
	}
	if err := app.Workspace.Classify(ctx, it.ID, kind); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s is a %s\n", formatter.StyleGreen.Render("✔"), formatter.Bold(it.Title), kind)
	return nil
}

func newBoardClassifyCmd(app *App, projectRef *string) *cobra.Command {
	return &cobra.Command{
		Use:       "classify ITEM fix|pivot",
		Short:     "Record whether a strategy is a fix or a pivot",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"fix", "pivot"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseClassification(strings.ToLower(args[1]))
			if err != nil {
				return err
			}
			return withBoard(app, *projectRef, func(ctx context.Context, b *board.Board) error {
				it, err := resolveItem(b, args[0])
				if err != nil {
					return err
				}
				if err := app.Workspace.Classify(ctx, it.ID, kind); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", formatter.StyleGreen.Render("✔"),
					formatter.Bold(it.Title), formatter.ClassificationBadge(kind))
				return nil
			})
		},
	}
}

func newBoardCancelCmd(app *App, projectRef *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Dismiss the pending Fix/Pivot prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(app, *projectRef, func(ctx context.Context, b *board.Board) error {
				id, err := app.Workspace.CancelClassification(ctx)
				if err != nil {
					return err
				}
				if id == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "No classification pending.")
					return nil
				}
				title := id
				if it, err := b.Item(id); err == nil {
					title = it.Title
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Dismissed prompt for %s %s\n", formatter.Bold(title),
					formatter.Dim("(still unclassified in Validation)"))
				return nil
			})
		},
	}
}

func newBoardPromptCmd(app *App, projectRef *string) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt ITEM",
		Short: "Reopen the Fix/Pivot prompt for an unclassified Validation item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(app, *projectRef, func(ctx context.Context, b *board.Board) error {
				it, err := resolveItem(b, args[0])
				if err != nil {
					return err
				}
				if err := app.Workspace.RequestClassification(ctx, it.ID); err != nil {
					return err
				}
				return promptClassification(ctx, cmd, app, it)
			})
		},
	}
}

func newBoardCompleteCmd(app *App, projectRef *string) *cobra.Command {
	return &cobra.Command{
		Use:   "complete ITEM",
		Short: "Toggle a strategy between Success and Discovery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(app, *projectRef, func(ctx context.Context, b *board.Board) error {
				it, err := resolveItem(b, args[0])
				if err != nil {
					return err
				}
				if err := app.Workspace.ToggleComplete(ctx, it.ID); err != nil {
					return err
				}
				after, err := b.Item(it.ID)
				if err != nil {
					return err
				}
				if after.Completed {
					fmt.Fprintf(cmd.OutOrStdout(), "%s Completed %s\n", formatter.StyleGreen.Render("✔"), formatter.Bold(it.Title))
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Reopened %s in Discovery\n", formatter.Bold(it.Title))
				}
				return nil
			})
		},
	}
}

func newBoardEditCmd(app *App, projectRef *string) *cobra.Command {
	var f itemFlags

	cmd := &cobra.Command{
		Use:   "edit ITEM",
		Short: "Change a strategy's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := f.patch(cmd)
			if err != nil {
				return err
			}
			if patch.IsEmpty() {
				return fmt.Errorf("%w: nothing to change (use --title, --desc, --impact, --growth or --confidence)", domain.ErrValidation)
			}
			return withBoard(app, *projectRef, func(ctx context.Context, b *board.Board) error {
				it, err := resolveItem(b, args[0])
				if err != nil {
					return err
				}
				if err := app.Workspace.UpdateItem(ctx, it.ID, patch); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Updated %s\n", formatter.StyleGreen.Render("✔"), formatter.TruncID(it.ID))
				return nil
			})
		},
	}

	f.register(cmd, true)

	return cmd
}

func newBoardRemoveCmd(app *App, projectRef *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ITEM",
		Short: "Delete a strategy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(app, *projectRef, func(ctx context.Context, b *board.Board) error {
				it, err := resolveItem(b, args[0])
				if err != nil {
					return err
				}
				if err := app.Workspace.RemoveItem(ctx, it.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", formatter.Bold(it.Title))
				return nil
			})
		},
	}
}

func newBoardInspectCmd(app *App, projectRef *string) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect ITEM",
		Short: "Show a strategy's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(app, *projectRef, func(ctx context.Context, b *board.Board) error {
				it, err := resolveItem(b, args[0])
				if err != nil {
					return err
				}
				l, _, err := b.Locate(it.ID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatItem(it, l))
				return nil
			})
		},
	}
}

func newBoardDescribeCmd(app *App, projectRef *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "describe ITEM",
		Short: "Ask the model for a one-sentence hypothesis of a strategy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Deconstruct == nil {
				return fmt.Errorf("model is not configured (set ELEMENTAL_LLM_ENABLED=true)")
			}
			return withBoard(app, *projectRef, func(ctx context.Context, b *board.Board) error {
				it, err := resolveItem(b, args[0])
				if err != nil {
					return err
				}
				if it.Description != "" && !force {
					return fmt.Errorf("%w: %s already has a description (use --force to replace it)", domain.ErrValidation, it.Title)
				}
				text, err := app.Deconstruct.Describe(ctx, app.Workspace.Project().Idea, it.Title)
				if err != nil {
					return err
				}
				if err := app.Workspace.UpdateItem(ctx, it.ID, domain.ItemPatch{Description: &text}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n  %s\n", formatter.Bold(it.Title), text)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing description")

	return cmd
}

func newBoardSeedCmd(app *App, projectRef *string) *cobra.Command {
	var idea string

	cmd := &cobra.Command{
		Use:   "seed [NAME...]",
		Short: "Add candidate strategies to Discovery",
		Long: "Add the given names to Discovery. Without names, the project idea (or --idea)\n" +
			"is broken down into candidate strategies. Titles already on the board are skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(app, *projectRef, func(ctx context.Context, b *board.Board) error {
				names := args
				source := ""
				if len(names) == 0 {
					d, err := deconstruct(ctx, cmd, app, domain.Coalesce(idea, app.Workspace.Project().Idea))
					if err != nil {
						return err
					}
					names = d.Names()
					source = string(d.Source)
				}

				added, err := app.Workspace.Seed(ctx, names)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(added) == 0 {
					fmt.Fprintln(out, "Nothing new to add.")
					return nil
				}
				label := fmt.Sprintf("Added %d strategies to Discovery", len(added))
				if source != "" {
					label += formatter.Dim(" (" + source + ")")
				}
				fmt.Fprintln(out, label)
				for _, id := range added {
					if it, err := b.Item(id); err == nil {
						fmt.Fprintf(out, "  %s %s\n", formatter.StyleBlue.Render("•"), it.Title)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&idea, "idea", "", "Idea to deconstruct instead of the project's")

	return cmd
}

func deconstruct(ctx context.Context, cmd *cobra.Command, app *App, idea string) (*intelligence.Deconstruction, error) {
	if strings.TrimSpace(idea) == "" {
		return nil, fmt.Errorf("%w: no names given and the project has no idea to deconstruct (use --idea)", domain.ErrValidation)
	}
	if app.Deconstruct == nil {
		return nil, fmt.Errorf("no deconstruction service configured")
	}
	d, err := app.Deconstruct.Deconstruct(ctx, idea)
	if err != nil {
		return nil, err
	}
	if d.Source == intelligence.SourceFallback && d.Warning != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), formatter.Dim("model unavailable, using playbook: "+d.Warning))
	}
	return d, nil
}

func newBoardStatsCmd(app *App, projectRef *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarise the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := resolveProject(ctx, app, *projectRef)
			if err != nil {
				return err
			}
			stats, err := app.Stats.BoardStats(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatStats(p.Name, *stats))
			return nil
		},
	}
}

// itemFlags are the editable strategy fields shared by add and edit.
type itemFlags struct {
	title      string
	desc       string
	impact     string
	growth     float64
	confidence int
}

func (f *itemFlags) register(cmd *cobra.Command, withTitle bool) {
	if withTitle {
		cmd.Flags().StringVar(&f.title, "title", "", "Strategy title")
	}
	cmd.Flags().StringVar(&f.desc, "desc", "", "Hypothesis or description")
	cmd.Flags().StringVar(&f.impact, "impact", "", "Impact: low, medium or high")
	cmd.Flags().Float64Var(&f.growth, "growth", 0, "Expected growth rate in percent")
	cmd.Flags().IntVar(&f.confidence, "confidence", 0, "Confidence from 0 to 100")
}

// patch holds only the flags that were set on the command line.
func (f *itemFlags) patch(cmd *cobra.Command) (domain.ItemPatch, error) {
	var p domain.ItemPatch
	flags := cmd.Flags()
	if flags.Changed("title") {
		p.Title = &f.title
	}
	if flags.Changed("desc") {
		p.Description = &f.desc
	}
	if flags.Changed("impact") {
		impact := domain.Impact(strings.ToLower(f.impact))
		if !domain.ValidImpacts[string(impact)] {
			return p, fmt.Errorf("%w: impact %q must be low, medium or high", domain.ErrValidation, f.impact)
		}
		p.Impact = &impact
	}
	if flags.Changed("growth") {
		p.GrowthRate = &f.growth
	}
	if flags.Changed("confidence") {
		p.Confidence = &f.confidence
	}
	return p, nil
}
