package host

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/extvars/internal/ir"
)

type panickingStore struct{ VariableStore }

func (panickingStore) List() ([]ir.VariableRecord, error) { panic("boom") }

type panickingGraph struct{}

func (panickingGraph) AllRootNodes() ([]BlockNode, error) { panic("boom") }

type failingGraph struct{}

func (failingGraph) AllRootNodes() ([]BlockNode, error) { return nil, errors.New("detached") }

func TestLiveRegistryUnavailable(t *testing.T) {
	_, err := LiveRegistry(nil)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = LiveRegistry(panickingStore{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "boom")
}

func TestRootsUnavailable(t *testing.T) {
	_, err := Roots(nil)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = Roots(panickingGraph{})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = Roots(failingGraph{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "detached")
}

type listStore struct {
	VariableStore
	vars []ir.VariableRecord
}

func (s listStore) List() ([]ir.VariableRecord, error) { return s.vars, nil }

func TestLiveRegistryNormalizesCategories(t *testing.T) {
	store := listStore{vars: []ir.VariableRecord{
		{ID: "EV_0001", Name: "score", Category: "Player"},
		{ID: "EV_0002", Name: "flag", Category: ""},
		{ID: "EV_0003", Name: "odd", Category: "Nope"},
	}}

	reg, err := LiveRegistry(store)
	assert.NoError(t, err)
	assert.Equal(t, []ir.VariableRecord{{ID: "EV_0001", Name: "score", Category: "Player"}}, reg["Player"])
	assert.Equal(t, []ir.VariableRecord{
		{ID: "EV_0002", Name: "flag", Category: "Global"},
		{ID: "EV_0003", Name: "odd", Category: "Global"},
	}, reg["Global"])
	assert.NotContains(t, reg, ir.Category("Nope"))
	assert.Equal(t, ir.Category(""), store.vars[1].Category)
}
