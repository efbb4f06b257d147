package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/extvars/internal/engine"
	"github.com/roach88/extvars/internal/host/memhost"
	"github.com/roach88/extvars/internal/ir"
)

var _ engine.Persister = (*Store)(nil)

func TestEngineSession_SaveReplayVerify(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	ws := memhost.New()

	e := engine.New(ws, engine.WithPersister(s, "proj"), engine.WithSessionGenerator(engine.NewFixedGenerator("s1")))
	_, err := e.Open(ctx)
	require.NoError(t, err)

	score, err := e.Add("Global", "score")
	require.NoError(t, err)
	_, err = e.Add("Vehicle", "speed")
	require.NoError(t, err)
	_, err = e.Rename(score.ID, "points")
	require.NoError(t, err)
	require.NoError(t, e.Save(ctx))

	// Second session continues the clock and journal.
	e2 := engine.New(ws, engine.WithPersister(s, "proj"), engine.WithSessionGenerator(engine.NewFixedGenerator("s2")))
	_, err = e2.Open(ctx)
	require.NoError(t, err)
	_, _, err = e2.Remove(score.ID)
	require.NoError(t, err)
	require.NoError(t, e2.Save(ctx))

	journal, err := s.ReadJournal(ctx, "proj")
	require.NoError(t, err)
	require.Len(t, journal, 4)
	for i, en := range journal {
		assert.Equal(t, int64(i+1), en.Seq)
	}
	assert.Equal(t, "s2", journal[3].Session)

	replayed, err := engine.Replay(journal)
	require.NoError(t, err)

	p, found, err := s.GetProject(ctx, "proj")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, p.Digest, ir.MustRegistryDigest(replayed))
}
