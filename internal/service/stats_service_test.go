package service

import (
	"context"
	"testing"

	"github.com/elementalai/elemental/internal/board"
	"github.com/elementalai/elemental/internal/domain"
	"github.com/elementalai/elemental/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	p := "p1"
	snap := testutil.NewTestSnapshot(p, map[domain.ListID][]domain.StrategyItem{
		domain.ListDiscovery: {
			testutil.NewTestItem(p, "d1", testutil.WithConfidence(50), testutil.WithGrowthRate(10)),
		},
		domain.ListValidation: {
			testutil.NewTestItem(p, "v1", testutil.WithConfidence(70), testutil.WithGrowthRate(20)),
		},
		domain.ListGrowth: {
			testutil.NewTestItem(p, "g1", testutil.WithClassification(domain.ClassFix),
				testutil.WithConfidence(90), testutil.WithGrowthRate(30)),
		},
		domain.ListSuccess: {
			testutil.NewTestItem(p, "s1", testutil.WithClassification(domain.ClassPivot),
				testutil.WithConfidence(30), testutil.WithGrowthRate(40)),
		},
	})
	snap.Pending = snap.Lists[domain.ListValidation][0].ID

	stats := ComputeStats(snap)
	assert.Equal(t, 4, stats.Total)
	for _, l := range domain.Lists {
		assert.Equal(t, 1, stats.PerList[l], l)
	}
	assert.Equal(t, 1, stats.Fix)
	assert.Equal(t, 1, stats.Pivot)
	assert.Equal(t, 2, stats.Unclassified)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 25.0, stats.CompletionPct)
	assert.Equal(t, 60.0, stats.AvgConfidence)
	assert.Equal(t, 25.0, stats.AvgGrowthRate)
	assert.Zero(t, stats.EstimatedFields)
	assert.Equal(t, snap.Pending, stats.Pending)
}

func TestComputeStats_EstimatesMissingMetrics(t *testing.T) {
	snap := testutil.NewTestSnapshot("p1", map[domain.ListID][]domain.StrategyItem{
		domain.ListDiscovery: {testutil.NewTestItem("p1", "bare")},
	})
	stats := ComputeStats(snap)

	est := domain.EstimateMetrics(snap.Lists[domain.ListDiscovery][0].ID)
	assert.Equal(t, 2, stats.EstimatedFields)
	assert.Equal(t, float64(est.Confidence), stats.AvgConfidence)
	assert.Equal(t, est.GrowthRate, stats.AvgGrowthRate)
}

func TestComputeStats_EmptyBoard(t *testing.T) {
	stats := ComputeStats(board.EmptySnapshot("p1"))
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.CompletionPct)
	assert.Len(t, stats.PerList, 4)
}

func TestStatsService_LoadsStoredBoard(t *testing.T) {
	r := setupRepos(t)
	p := createProject(t, r, "Stats", "a", "b", "c")

	stats, err := NewStatsService(r.boards).BoardStats(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.PerList[domain.ListDiscovery])
	assert.Equal(t, 3, stats.Unclassified)

	_, err = NewStatsService(r.boards).BoardStats(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
