package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/extvars/internal/ir"
)

func testRegistry() ir.Registry {
	return ir.Registry{
		"Global": {
			{ID: "EV_0001", Name: "score", Category: "Global"},
			{ID: "EV_0003", Name: "round", Category: "Global"},
		},
		"Player": {{ID: "EV_0002", Name: "kills", Category: "Player"}},
	}
}

func TestLoad_UnknownProject(t *testing.T) {
	s := openTestStore(t)

	reg, found, err := s.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, reg)
}

func TestSaveLoad_RoundTripPreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Save(ctx, "proj", testRegistry()))

	reg, found, err := s.Load(ctx, "proj")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, testRegistry(), reg)
}

func TestSave_ReplacesRegistry(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Save(ctx, "proj", testRegistry()))

	smaller := ir.Registry{"Team": {{ID: "EV_0009", Name: "flag", Category: "Team"}}}
	require.NoError(t, s.Save(ctx, "proj", smaller))

	reg, _, err := s.Load(ctx, "proj")
	require.NoError(t, err)
	assert.Equal(t, smaller, reg)
}

func TestSave_EmptyRegistry(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Save(ctx, "proj", ir.Registry{}))

	reg, found, err := s.Load(ctx, "proj")
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotNil(t, reg)
	assert.Zero(t, reg.Len())
}

func TestSave_ProjectsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Save(ctx, "a", testRegistry()))
	require.NoError(t, s.Save(ctx, "b", ir.Registry{"Team": {{ID: "EV_0001", Name: "flag", Category: "Team"}}}))

	reg, _, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, testRegistry(), reg)
}

func TestSave_DuplicateIDRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Save(ctx, "proj", testRegistry()))

	bad := ir.Registry{
		"Global": {{ID: "EV_0001", Name: "a", Category: "Global"}},
		"Team":   {{ID: "EV_0001", Name: "b", Category: "Team"}},
	}
	require.Error(t, s.Save(ctx, "proj", bad))

	reg, _, err := s.Load(ctx, "proj")
	require.NoError(t, err)
	assert.Equal(t, testRegistry(), reg, "failed save leaves previous state")
}

func TestSave_RecordsDigest(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Save(ctx, "proj", testRegistry(),
		ir.JournalEntry{Seq: 1, Session: "s", Op: ir.OpAdd, VarID: "EV_0001", Name: "score", Category: "Global"},
	))

	p, found, err := s.GetProject(ctx, "proj")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, ir.MustRegistryDigest(testRegistry()), p.Digest)
	assert.Equal(t, int64(1), p.UpdatedSeq)
	assert.Equal(t, 3, p.Variables)
}

func TestSave_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Save(ctx, "proj", testRegistry()))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	reg, found, err := s2.Load(ctx, "proj")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, testRegistry(), reg)
}
