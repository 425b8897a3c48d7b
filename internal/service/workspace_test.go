package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/elementalai/elemental/internal/board"
	"github.com/elementalai/elemental/internal/domain"
	"github.com/elementalai/elemental/internal/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openWorkspace(t *testing.T, r testRepos, projectID string, opts ...WorkspaceOption) *Workspace {
	t.Helper()
	opts = append([]WorkspaceOption{WithPersistConfig(fastPersist())}, opts...)
	w := NewWorkspace(r.boards, r.projects, r.settings, opts...)
	require.NoError(t, w.Open(context.Background(), projectID))
	t.Cleanup(func() { _ = w.Close(context.Background()) })
	return w
}

func TestWorkspace_OperationsPersistOnClose(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	p := createProject(t, r, "Coffee", "Referral loop", "Annual plan")
	w := openWorkspace(t, r, p.ID)

	snap, err := w.Snapshot()
	require.NoError(t, err)
	discovery := snap.Lists[domain.ListDiscovery]
	require.Len(t, discovery, 2)
	first := discovery[0].ID

	// Scenario: move into Validation opens the gate, classify resolves it.
	require.NoError(t, w.MoveItem(ctx, first, domain.ListValidation, 0))
	pending, ok := w.Board().Pending()
	require.True(t, ok)
	assert.Equal(t, first, pending)
	require.NoError(t, w.Classify(ctx, first, domain.ClassPivot))
	require.NoError(t, w.MoveItem(ctx, first, domain.ListGrowth, 0))

	id, err := w.AddItem(ctx, domain.NewItem{Title: "Cold email"})
	require.NoError(t, err)
	conf := 70
	require.NoError(t, w.UpdateItem(ctx, id, domain.ItemPatch{Confidence: &conf}))
	require.NoError(t, w.ToggleComplete(ctx, id))

	rev := w.Board().Revision()
	require.NoError(t, w.Close(ctx))
	assert.Nil(t, w.Board())

	stored, err := r.boards.LoadBoard(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, rev, stored.Revision)
	assert.Equal(t, []string{first}, idsOf(stored.Lists[domain.ListGrowth]))
	assert.Equal(t, domain.ClassPivot, stored.Lists[domain.ListGrowth][0].Classification)
	require.Len(t, stored.Lists[domain.ListSuccess], 1)
	done := stored.Lists[domain.ListSuccess][0]
	assert.Equal(t, id, done.ID)
	assert.True(t, done.Completed)
	require.NotNil(t, done.Confidence)
	assert.Equal(t, 70, *done.Confidence)
}

func TestWorkspace_ReopenRestoresPendingGate(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	p := createProject(t, r, "Gate", "a")

	w := NewWorkspace(r.boards, r.projects, r.settings, WithPersistConfig(fastPersist()))
	require.NoError(t, w.Open(ctx, p.ID))
	snap, _ := w.Snapshot()
	a := snap.Lists[domain.ListDiscovery][0].ID
	require.NoError(t, w.MoveItem(ctx, a, domain.ListValidation, 0))
	require.NoError(t, w.Close(ctx))

	require.NoError(t, w.OpenActive(ctx))
	defer w.Close(ctx)
	assert.Equal(t, p.ID, w.Project().ID)
	pending, ok := w.Board().Pending()
	require.True(t, ok)
	assert.Equal(t, a, pending)

	dismissed, err := w.CancelClassification(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, dismissed)
	assert.Equal(t, board.GateIdle, w.Board().GateState())
	require.NoError(t, w.RequestClassification(ctx, a))
	assert.Equal(t, board.GateAwaiting, w.Board().GateState())
}

func TestWorkspace_SwitchFlushesAndDiscards(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	p1 := createProject(t, r, "One")
	p2 := createProject(t, r, "Two", "x")
	w := openWorkspace(t, r, p1.ID)

	id, err := w.AddItem(ctx, domain.NewItem{Title: "Only in one"})
	require.NoError(t, err)
	old := w.Board()

	require.NoError(t, w.Switch(ctx, p2.ID))
	assert.NotSame(t, old, w.Board())
	assert.Equal(t, p2.ID, w.Board().ProjectID())
	_, err = w.Board().Item(id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, err := r.boards.LoadBoard(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, idsOf(stored.Lists[domain.ListDiscovery]))

	active, ok, err := r.settings.Get(ctx, ActiveProjectKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p2.ID, active)
}

func TestWorkspace_ReopenSameProjectKeepsUnsavedEdits(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	p := createProject(t, r, "Same", "a")

	cfg := fastPersist()
	cfg.Debounce = time.Hour
	w := openWorkspace(t, r, p.ID, WithPersistConfig(cfg))

	for _, title := range []string{"one", "two"} {
		_, err := w.AddItem(ctx, domain.NewItem{Title: title})
		require.NoError(t, err)
	}
	rev := w.Board().Revision()

	require.NoError(t, w.Switch(ctx, p.ID))
	assert.Equal(t, rev, w.Board().Revision())
	snap, err := w.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "one", "two"}, titlesOf(snap.Lists[domain.ListDiscovery]))

	_, err = w.AddItem(ctx, domain.NewItem{Title: "three"})
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	stored, err := r.boards.LoadBoard(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, rev+1, stored.Revision)
	assert.Equal(t, []string{"a", "one", "two", "three"}, titlesOf(stored.Lists[domain.ListDiscovery]))
}

func TestWorkspace_DragDropThroughGate(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	p := createProject(t, r, "Drag", "s1", "s2")
	w := openWorkspace(t, r, p.ID)

	snap, _ := w.Snapshot()
	s1 := snap.Lists[domain.ListDiscovery][0].ID

	require.NoError(t, w.DragStart(s1))
	preview, err := w.DragOver(s1, string(domain.ListValidation))
	require.NoError(t, err)
	assert.Equal(t, board.Preview{List: domain.ListValidation, Index: 0}, preview)
	require.NoError(t, w.DragEnd(ctx, s1, string(domain.ListValidation)))

	pending, ok := w.Board().Pending()
	require.True(t, ok)
	assert.Equal(t, s1, pending)

	require.NoError(t, w.DragStart(s1))
	err = w.DragEnd(ctx, s1, string(domain.ListGrowth))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	w.DragCancel()
}

func TestWorkspace_ErrorsWhenNothingOpen(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	w := NewWorkspace(r.boards, r.projects, r.settings)

	assert.ErrorIs(t, w.MoveItem(ctx, "x", domain.ListGrowth, 0), ErrNoBoard)
	_, err := w.AddItem(ctx, domain.NewItem{Title: "x"})
	assert.ErrorIs(t, err, ErrNoBoard)
	assert.ErrorIs(t, w.DragStart("x"), ErrNoBoard)
	assert.ErrorIs(t, w.Flush(ctx), ErrNoBoard)
	_, err = w.Snapshot()
	assert.ErrorIs(t, err, ErrNoBoard)
	assert.ErrorIs(t, w.OpenActive(ctx), ErrNoActiveProject)
	assert.NoError(t, w.Close(ctx))
	assert.Zero(t, w.SavedRevision())
}

func TestWorkspace_OpenRejectsArchivedAndUnknown(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	p := createProject(t, r, "Archived")
	require.NoError(t, r.projects.Archive(ctx, p.ID))

	w := NewWorkspace(r.boards, r.projects, r.settings)
	assert.ErrorIs(t, w.Open(ctx, p.ID), domain.ErrValidation)
	assert.ErrorIs(t, w.Open(ctx, "ghost"), domain.ErrNotFound)
	assert.Nil(t, w.Board())
}

func TestWorkspace_PersistFailureDoesNotFailMutation(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	p := createProject(t, r, "Flaky")
	sink := &recordingSink{fails: 1}
	var logs bytes.Buffer
	w := NewWorkspace(r.boards, r.projects, r.settings,
		WithPersistConfig(fastPersist()),
		WithExtraSink(sink),
		WithPersistLog(&logs),
	)
	require.NoError(t, w.Open(ctx, p.ID))

	id, err := w.AddItem(ctx, domain.NewItem{Title: "Still added"})
	require.NoError(t, err)
	_, err = w.Board().Item(id)
	require.NoError(t, err)

	err = w.Close(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, persist.ErrPermanent)
	assert.Contains(t, logs.String(), "board_persist_failed")
	assert.NotEmpty(t, sink.saved())
}

func TestWorkspace_ObservesUseCases(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	p := createProject(t, r, "Observed", "a")
	obs := &recordingObserver{}
	w := openWorkspace(t, r, p.ID, WithObserver(obs))

	snap, _ := w.Snapshot()
	a := snap.Lists[domain.ListDiscovery][0].ID
	require.NoError(t, w.MoveItem(ctx, a, domain.ListValidation, 0))
	err := w.MoveItem(ctx, "ghost", domain.ListGrowth, 0)
	require.Error(t, err)

	assert.Equal(t, []string{"open-board", "move-item", "move-item"}, obs.names())
	e := obs.last()
	assert.False(t, e.Success)
	assert.ErrorIs(t, e.Err, domain.ErrNotFound)
	assert.Equal(t, "ghost", e.Fields["item_id"])
}
