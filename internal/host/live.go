package host

import (
	"fmt"

	"github.com/roach88/extvars/internal/catalog"
	"github.com/roach88/extvars/internal/ir"
)

// LiveRegistry derives the live registry by scanning the host store.
//
// Records are filed under catalog.Normalize of their raw tag, so a missing or
// unknown tag lands in Global. Every catalog category is present in the
// result, possibly with an empty list. A panicking store is reported as
// ErrUnavailable.
func LiveRegistry(vs VariableStore) (reg ir.Registry, err error) {
	defer func() {
		if r := recover(); r != nil {
			reg, err = nil, fmt.Errorf("%w: panic listing variables: %v", ErrUnavailable, r)
		}
	}()

	if vs == nil {
		return nil, fmt.Errorf("%w: no variable store", ErrUnavailable)
	}
	vars, err := vs.List()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	reg = make(ir.Registry, catalog.Len())
	for _, cat := range catalog.All() {
		reg[cat] = []ir.VariableRecord{}
	}
	for _, v := range vars {
		cat := catalog.Normalize(string(v.Category))
		v.Category = cat
		reg[cat] = append(reg[cat], v)
	}
	return reg, nil
}

// Roots returns the graph's root nodes, converting a panic or missing graph
// into ErrUnavailable.
func Roots(g BlockGraph) (roots []BlockNode, err error) {
	defer func() {
		if r := recover(); r != nil {
			roots, err = nil, fmt.Errorf("%w: panic enumerating blocks: %v", ErrUnavailable, r)
		}
	}()

	if g == nil {
		return nil, fmt.Errorf("%w: no block graph", ErrUnavailable)
	}
	roots, err = g.AllRootNodes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return roots, nil
}
