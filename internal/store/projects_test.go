package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/extvars/internal/ir"
)

func TestProjects_ListedByKey(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	got, err := s.Projects(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Save(ctx, "zeta", ir.Registry{}))
	require.NoError(t, s.Save(ctx, "alpha", testRegistry()))

	got, err = s.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0].Key)
	assert.Equal(t, 3, got[0].Variables)
	assert.Equal(t, "zeta", got[1].Key)
}

func TestDeleteProject_Cascades(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Save(ctx, "proj", testRegistry(), entry(1, ir.OpAdd, "EV_0001", "score")))

	require.NoError(t, s.DeleteProject(ctx, "proj"))
	require.NoError(t, s.DeleteProject(ctx, "proj"), "deleting twice is a no-op")

	_, found, err := s.Load(ctx, "proj")
	require.NoError(t, err)
	assert.False(t, found)

	journal, err := s.ReadJournal(ctx, "proj")
	require.NoError(t, err)
	assert.Empty(t, journal)

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM shadow_variables`).Scan(&n))
	assert.Zero(t, n)
}
