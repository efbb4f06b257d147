package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/extvars/internal/host"
)

func TestCycles_DAG(t *testing.T) {
	leaf := plain("leaf")
	root := plain("root").AddChild(leaf).SetNext(plain("after"))

	assert.Empty(t, Capture(roots(root)).Cycles())
}

func TestCycles_SelfLoop(t *testing.T) {
	a := &stub{id: "a"}
	a.next = a

	warnings := Capture([]host.BlockNode{a}).Cycles()
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"a", "a"}, warnings[0].Path)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "a → a")
}

func TestCycles_TwoNode(t *testing.T) {
	a := &stub{id: "a"}
	b := &stub{id: "b"}
	a.children = []host.BlockNode{b}
	b.next = a

	warnings := Capture([]host.BlockNode{a}).Cycles()
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"a", "b", "a"}, warnings[0].Path)
	assert.Equal(t, "block cycle detected: a → b → a", warnings[0].Message)
}

func TestCycles_Independent(t *testing.T) {
	a := &stub{id: "a"}
	a.next = a
	b := &stub{id: "b"}
	c := &stub{id: "c"}
	b.children = []host.BlockNode{c}
	c.children = []host.BlockNode{b}

	warnings := Capture([]host.BlockNode{b, a}).Cycles()
	require.Len(t, warnings, 2)
	assert.Equal(t, []string{"b", "c", "b"}, warnings[0].Path)
	assert.Equal(t, []string{"a", "a"}, warnings[1].Path)
}
