package repository

import (
	"context"
	"testing"

	"github.com/elementalai/elemental/internal/board"
	"github.com/elementalai/elemental/internal/domain"
	"github.com/elementalai/elemental/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBoardRepo(t *testing.T) (*SQLiteBoardRepo, *SQLiteProjectRepo, *domain.Project) {
	t.Helper()
	database := testutil.NewTestDB(t)
	projects := NewSQLiteProjectRepo(database)
	proj := testutil.NewTestProject("Board Owner")
	require.NoError(t, projects.Create(context.Background(), proj))
	return NewSQLiteBoardRepo(database, testutil.NewTestUoW(database)), projects, proj
}

func TestBoardRepo_LoadEmpty(t *testing.T) {
	repo, _, proj := setupBoardRepo(t)

	s, err := repo.LoadBoard(context.Background(), proj.ID)
	require.NoError(t, err)
	assert.Equal(t, proj.ID, s.ProjectID)
	assert.Equal(t, int64(0), s.Revision)
	assert.Equal(t, 0, s.Count())
	for _, l := range domain.Lists {
		assert.NotNil(t, s.Lists[l])
	}
}

func TestBoardRepo_LoadUnknownProject(t *testing.T) {
	repo, _, _ := setupBoardRepo(t)

	_, err := repo.LoadBoard(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBoardRepo_SaveAndLoadRoundTrip(t *testing.T) {
	repo, _, proj := setupBoardRepo(t)
	ctx := context.Background()

	s := testutil.NewTestSnapshot(proj.ID, map[domain.ListID][]domain.StrategyItem{
		domain.ListDiscovery: {
			testutil.NewTestItem(proj.ID, "c"),
			testutil.NewTestItem(proj.ID, "a"),
			testutil.NewTestItem(proj.ID, "b"),
		},
		domain.ListValidation: {
			testutil.NewTestItem(proj.ID, "pending"),
		},
		domain.ListGrowth: {
			testutil.NewTestItem(proj.ID, "grow",
				testutil.WithClassification(domain.ClassPivot),
				testutil.WithConfidence(80),
				testutil.WithGrowthRate(12.5),
				testutil.WithDescription("upsell")),
		},
		domain.ListSuccess: {
			testutil.NewTestItem(proj.ID, "won", testutil.WithClassification(domain.ClassFix)),
		},
	})
	s.Revision = 6
	s.Pending = s.Lists[domain.ListValidation][0].ID

	require.NoError(t, repo.SaveBoard(ctx, s))

	loaded, err := repo.LoadBoard(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, s.IDs(), loaded.IDs(), "list membership and order survive")
	assert.Equal(t, int64(6), loaded.Revision)
	assert.Equal(t, s.Pending, loaded.Pending)

	grow := loaded.Lists[domain.ListGrowth][0]
	assert.Equal(t, domain.ClassPivot, grow.Classification)
	assert.Equal(t, "upsell", grow.Description)
	require.NotNil(t, grow.Confidence)
	assert.Equal(t, 80, *grow.Confidence)
	require.NotNil(t, grow.GrowthRate)
	assert.Equal(t, 12.5, *grow.GrowthRate)
	assert.True(t, grow.CreatedAt.Equal(s.Lists[domain.ListGrowth][0].CreatedAt))

	assert.True(t, loaded.Lists[domain.ListSuccess][0].Completed)
	assert.Nil(t, loaded.Lists[domain.ListDiscovery][0].Confidence)

	b, err := board.FromSnapshot(loaded)
	require.NoError(t, err)
	pending, ok := b.Pending()
	assert.True(t, ok)
	assert.Equal(t, s.Pending, pending)
}

func TestBoardRepo_SaveReplacesPreviousState(t *testing.T) {
	repo, _, proj := setupBoardRepo(t)
	ctx := context.Background()

	a := testutil.NewTestItem(proj.ID, "a")
	b := testutil.NewTestItem(proj.ID, "b")
	first := testutil.NewTestSnapshot(proj.ID, map[domain.ListID][]domain.StrategyItem{
		domain.ListDiscovery: {a, b},
	})
	first.Revision = 1
	require.NoError(t, repo.SaveBoard(ctx, first))

	second := testutil.NewTestSnapshot(proj.ID, map[domain.ListID][]domain.StrategyItem{
		domain.ListValidation: {b},
	})
	second.Revision = 2
	require.NoError(t, repo.SaveBoard(ctx, second))

	loaded, err := repo.LoadBoard(ctx, proj.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Lists[domain.ListDiscovery])
	assert.Equal(t, []string{b.ID}, loaded.IDs()[domain.ListValidation])
}

func TestBoardRepo_IgnoresStaleSnapshot(t *testing.T) {
	repo, _, proj := setupBoardRepo(t)
	ctx := context.Background()

	newer := testutil.NewTestSnapshot(proj.ID, map[domain.ListID][]domain.StrategyItem{
		domain.ListDiscovery: {testutil.NewTestItem(proj.ID, "kept")},
	})
	newer.Revision = 10
	require.NoError(t, repo.SaveBoard(ctx, newer))

	older := board.EmptySnapshot(proj.ID)
	older.Revision = 3
	require.NoError(t, repo.SaveBoard(ctx, older))

	loaded, err := repo.LoadBoard(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), loaded.Revision)
	assert.Equal(t, 1, loaded.Count())
}

func TestBoardRepo_FailedSaveRollsBack(t *testing.T) {
	database := testutil.NewTestDB(t)
	projects := NewSQLiteProjectRepo(database)
	ctx := context.Background()
	proj := testutil.NewTestProject("Rollback")
	require.NoError(t, projects.Create(ctx, proj))

	good := NewSQLiteBoardRepo(database, testutil.NewTestUoW(database))
	original := testutil.NewTestSnapshot(proj.ID, map[domain.ListID][]domain.StrategyItem{
		domain.ListDiscovery: {testutil.NewTestItem(proj.ID, "a"), testutil.NewTestItem(proj.ID, "b")},
	})
	original.Revision = 1
	require.NoError(t, good.SaveBoard(ctx, original))

	// Exec 1 clears the rows, exec 2 inserts the first item, exec 3 fails.
	failing := NewSQLiteBoardRepo(database, testutil.NewFailingUoW(database, 3))
	next := testutil.NewTestSnapshot(proj.ID, map[domain.ListID][]domain.StrategyItem{
		domain.ListGrowth: {testutil.NewTestItem(proj.ID, "x"), testutil.NewTestItem(proj.ID, "y")},
	})
	next.Revision = 2
	err := failing.SaveBoard(ctx, next)
	assert.ErrorIs(t, err, testutil.ErrInjected)

	loaded, err := good.LoadBoard(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, original.IDs(), loaded.IDs())
	assert.Equal(t, int64(1), loaded.Revision)
}

func TestBoardRepo_DeletingProjectDropsBoard(t *testing.T) {
	repo, projects, proj := setupBoardRepo(t)
	ctx := context.Background()

	s := testutil.NewTestSnapshot(proj.ID, map[domain.ListID][]domain.StrategyItem{
		domain.ListDiscovery: {testutil.NewTestItem(proj.ID, "a")},
	})
	s.Revision = 1
	require.NoError(t, repo.SaveBoard(ctx, s))
	require.NoError(t, projects.Delete(ctx, proj.ID))

	_, err := repo.LoadBoard(ctx, proj.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
