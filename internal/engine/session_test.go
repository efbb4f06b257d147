package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator_ValidFormat(t *testing.T) {
	token := UUIDv7Generator{}.Generate()

	assert.Len(t, token, 36)
	parsed, err := uuid.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestUUIDv7Generator_Uniqueness(t *testing.T) {
	gen := UUIDv7Generator{}
	const iterations = 1000

	tokens := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		token := gen.Generate()
		require.False(t, tokens[token], "token %s generated twice", token)
		tokens[token] = true
	}
}

func TestFixedGenerator_Sequential(t *testing.T) {
	gen := NewFixedGenerator("session-1", "session-2")

	assert.Equal(t, "session-1", gen.Generate())
	assert.Equal(t, "session-2", gen.Generate())
	assert.PanicsWithValue(t, "FixedGenerator: all tokens exhausted", func() {
		gen.Generate()
	})
}

func TestEngine_UsesSessionToken(t *testing.T) {
	e := New(nil, WithSessionGenerator(NewFixedGenerator("abc")))
	_, err := e.Add("Global", "x")
	require.NoError(t, err)

	pending := e.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "abc", pending[0].Session)
}
