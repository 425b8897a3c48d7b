package repository

import (
	"context"
	"testing"

	"github.com/elementalai/elemental/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepo_SetGetDelete(t *testing.T) {
	repo := NewSQLiteSettingsRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "active_project")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, "active_project", "p1"))
	require.NoError(t, repo.Set(ctx, "active_project", "p2"))
	v, ok, err := repo.Get(ctx, "active_project")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "p2", v)

	require.NoError(t, repo.Delete(ctx, "active_project"))
	_, ok, err = repo.Get(ctx, "active_project")
	require.NoError(t, err)
	assert.False(t, ok)
}
