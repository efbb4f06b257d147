package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/extvars/internal/ir"
)

func TestReplay_OrdersBySeq(t *testing.T) {
	entries := []ir.JournalEntry{
		{Seq: 3, Op: ir.OpRename, VarID: "EV_0001", Name: "points", Category: "Global"},
		{Seq: 1, Op: ir.OpAdd, VarID: "EV_0001", Name: "score", Category: "Global"},
		{Seq: 2, Op: ir.OpAdopt, VarID: "host-1", Name: "speed", Category: "Vehicle"},
	}

	reg, err := Replay(entries)
	require.NoError(t, err)

	assert.Equal(t, ir.Registry{
		"Global":  {{ID: "EV_0001", Name: "points", Category: "Global"}},
		"Vehicle": {{ID: "host-1", Name: "speed", Category: "Vehicle"}},
	}, reg)
}

func TestReplay_RemoveIsIdempotent(t *testing.T) {
	reg, err := Replay([]ir.JournalEntry{
		{Seq: 1, Op: ir.OpAdd, VarID: "EV_0001", Name: "a", Category: "Global"},
		{Seq: 2, Op: ir.OpRemove, VarID: "EV_0001"},
		{Seq: 3, Op: ir.OpRemove, VarID: "EV_0001"},
	})
	require.NoError(t, err)
	assert.Zero(t, reg.Len())
}

func TestReplay_Errors(t *testing.T) {
	_, err := Replay([]ir.JournalEntry{{Seq: 7, Op: "explode"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replay seq 7")

	_, err = Replay([]ir.JournalEntry{{Seq: 1, Op: ir.OpRename, VarID: "EV_0001", Name: "x"}})
	assert.True(t, IsNotFound(err))

	_, err = Replay([]ir.JournalEntry{
		{Seq: 1, Op: ir.OpAdd, VarID: "EV_0001", Name: "a", Category: "Global"},
		{Seq: 2, Op: ir.OpAdd, VarID: "EV_0002", Name: "A", Category: "Global"},
	})
	assert.True(t, IsDuplicateName(err))
}

func TestReplay_Empty(t *testing.T) {
	reg, err := Replay(nil)
	require.NoError(t, err)
	assert.Empty(t, reg)
}
