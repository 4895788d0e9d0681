package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/obra/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressHeadRepo_MissingRowIsVersionZero(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := seedTree(t, db)

	v, err := NewSQLiteProgressHeadRepo(db).Get(context.Background(), s.Project.ID, s.Slab.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestProgressHeadRepo_CompareAndBump(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := seedTree(t, db)
	repo := NewSQLiteProgressHeadRepo(db)
	ctx := context.Background()

	ok, err := repo.CompareAndBump(ctx, s.Project.ID, s.Slab.ID, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	// A second writer holding the old version loses.
	ok, err = repo.CompareAndBump(ctx, s.Project.ID, s.Slab.ID, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := repo.Get(ctx, s.Project.ID, s.Slab.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	ok, err = repo.CompareAndBump(ctx, s.Project.ID, s.Slab.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProgressHeadRepo_BumpIsUnconditional(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := seedTree(t, db)
	repo := NewSQLiteProgressHeadRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Bump(ctx, s.Project.ID, s.Columns.ID))
	require.NoError(t, repo.Bump(ctx, s.Project.ID, s.Columns.ID))

	v, err := repo.Get(ctx, s.Project.ID, s.Columns.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	other, err := repo.Get(ctx, s.Project.ID, s.Slab.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, other, "heads are per node")
}
