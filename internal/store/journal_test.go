package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/extvars/internal/ir"
)

func entry(seq int64, op string, id ir.VarID, name string) ir.JournalEntry {
	return ir.JournalEntry{Seq: seq, Session: "session-1", Op: op, VarID: id, Name: name, Category: "Global"}
}

func TestJournal_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.AppendJournal(ctx, "proj",
		entry(2, ir.OpRename, "EV_0001", "points"),
		entry(1, ir.OpAdd, "EV_0001", "score"),
	))

	got, err := s.ReadJournal(ctx, "proj")
	require.NoError(t, err)
	assert.Equal(t, []ir.JournalEntry{
		entry(1, ir.OpAdd, "EV_0001", "score"),
		entry(2, ir.OpRename, "EV_0001", "points"),
	}, got)
}

func TestJournal_DuplicateSeqIgnored(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.AppendJournal(ctx, "proj", entry(1, ir.OpAdd, "EV_0001", "score")))
	require.NoError(t, s.AppendJournal(ctx, "proj", entry(1, ir.OpAdd, "EV_0001", "other")))

	got, err := s.ReadJournal(ctx, "proj")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "score", got[0].Name)
}

func TestJournal_EmptyIsNotNil(t *testing.T) {
	s := openTestStore(t)

	got, err := s.ReadJournal(context.Background(), "proj")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	require.NoError(t, s.AppendJournal(context.Background(), "proj"))
}

func TestJournal_ReadVariable(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.AppendJournal(ctx, "proj",
		entry(1, ir.OpAdd, "EV_0001", "score"),
		entry(2, ir.OpAdd, "EV_0002", "round"),
		entry(3, ir.OpRemove, "EV_0001", "score"),
	))

	got, err := s.ReadVariableJournal(ctx, "proj", "EV_0001")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ir.OpRemove, got[1].Op)
}

func TestJournal_LastSeq(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	seq, err := s.LastSeq(ctx, "proj")
	require.NoError(t, err)
	assert.Zero(t, seq)

	require.NoError(t, s.Save(ctx, "proj", ir.Registry{},
		entry(4, ir.OpAdd, "EV_0001", "a"),
		entry(9, ir.OpRemove, "EV_0001", "a"),
	))
	seq, err = s.LastSeq(ctx, "proj")
	require.NoError(t, err)
	assert.Equal(t, int64(9), seq)
}

func TestJournal_AppendDoesNotClobberRegistry(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Save(ctx, "proj", testRegistry()))

	require.NoError(t, s.AppendJournal(ctx, "proj", entry(5, ir.OpAdd, "EV_0004", "x")))

	reg, _, err := s.Load(ctx, "proj")
	require.NoError(t, err)
	assert.Equal(t, testRegistry(), reg)

	p, _, err := s.GetProject(ctx, "proj")
	require.NoError(t, err)
	assert.Equal(t, ir.MustRegistryDigest(testRegistry()), p.Digest)
	assert.Equal(t, int64(5), p.UpdatedSeq)
}
