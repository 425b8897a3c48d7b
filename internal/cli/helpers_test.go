package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/elementalai/elemental/internal/board"
	"github.com/elementalai/elemental/internal/domain"
	"github.com/elementalai/elemental/internal/intelligence"
	"github.com/elementalai/elemental/internal/persist"
	"github.com/elementalai/elemental/internal/repository"
	"github.com/elementalai/elemental/internal/service"
	"github.com/elementalai/elemental/internal/testutil"
)

// testApp wires a full App backed by an in-memory DB. The model client is
// left out, so deconstruction always uses the playbook.
func testApp(t *testing.T) *App {
	t.Helper()
	database := testutil.NewTestDB(t)

	projects := repository.NewSQLiteProjectRepo(database)
	boards := repository.NewSQLiteBoardRepo(database, testutil.NewTestUoW(database))
	settings := repository.NewSQLiteSettingsRepo(database)

	cfg := persist.DefaultConfig()
	cfg.Debounce = 0
	cfg.InitialRetry = time.Millisecond

	app := &App{
		Projects:    service.NewProjectService(projects, boards),
		Stats:       service.NewStatsService(boards),
		Workspace:   service.NewWorkspace(boards, projects, settings, service.WithPersistConfig(cfg)),
		Deconstruct: intelligence.NewDeconstructService(nil, 0),
	}
	t.Cleanup(func() { _ = app.Workspace.Close(context.Background()) })
	return app
}

// seedProject creates a project holding seeds in Discovery and makes it
// the active one.
func seedProject(t *testing.T, app *App, name string, seeds ...string) *domain.Project {
	t.Helper()
	ctx := context.Background()
	p := &domain.Project{Name: name}
	require.NoError(t, app.Projects.Create(ctx, p, seeds))
	require.NoError(t, useProject(ctx, app, p.ID))
	return p
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// boardJSON reads the active board through "board show --json".
func boardJSON(t *testing.T, app *App) board.Snapshot {
	t.Helper()
	out, err := executeCmd(t, app, "board", "show", "--json")
	require.NoError(t, err)
	var snap board.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	return snap
}

func titles(items []domain.StrategyItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

// itemByTitle finds the item titled title anywhere on snap.
func itemByTitle(t *testing.T, snap board.Snapshot, title string) (domain.StrategyItem, domain.ListID) {
	t.Helper()
	for _, l := range domain.Lists {
		for _, it := range snap.Lists[l] {
			if it.Title == title {
				return it, l
			}
		}
	}
	t.Fatalf("item %q not on board", title)
	return domain.StrategyItem{}, ""
}
