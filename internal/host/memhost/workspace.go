// Package memhost is an in-memory host: a variable store plus block graph
// that satisfies host.Host. It backs the CLI (loaded from workspace
// documents), the scenario harness, and tests.
package memhost

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/extvars/internal/host"
	"github.com/roach88/extvars/internal/ir"
)

// Failures switches individual host operations into failure mode.
type Failures struct {
	Create bool `yaml:"create,omitempty"`
	Delete bool `yaml:"delete,omitempty"`
	Rename bool `yaml:"rename,omitempty"`
	List   bool `yaml:"list,omitempty"`
	Graph  bool `yaml:"graph,omitempty"`
}

// Workspace is an in-memory host workspace.
// Variables keep their raw category tag exactly as given.
type Workspace struct {
	vars     []ir.VariableRecord
	blocks   []*Block
	byID     map[string]*Block
	roots    []string
	failures Failures
}

var _ host.Host = (*Workspace)(nil)

var errListFailed = errors.New("variable map unavailable")

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{byID: make(map[string]*Block)}
}

// SetFailures replaces the failure switches.
func (w *Workspace) SetFailures(f Failures) { w.failures = f }

// PutVariable stores a record without validation. Used when loading
// documents that may contain host states the store itself would reject.
func (w *Workspace) PutVariable(rec ir.VariableRecord) {
	w.vars = append(w.vars, rec)
}

// Variables returns a copy of the live variables in insertion order.
func (w *Workspace) Variables() []ir.VariableRecord {
	return slices.Clone(w.vars)
}

// AddBlock registers a block (and nothing reachable from it).
func (w *Workspace) AddBlock(b *Block) error {
	if b == nil || b.id == "" {
		return fmt.Errorf("block id is required")
	}
	if _, exists := w.byID[b.id]; exists {
		return fmt.Errorf("duplicate block id %q", b.id)
	}
	w.byID[b.id] = b
	w.blocks = append(w.blocks, b)
	return nil
}

// MustAddBlocks registers blocks, panicking on error. For tests.
func (w *Workspace) MustAddBlocks(blocks ...*Block) *Workspace {
	for _, b := range blocks {
		if err := w.AddBlock(b); err != nil {
			panic(err)
		}
	}
	return w
}

// Block returns a registered block.
func (w *Workspace) Block(id string) (*Block, bool) {
	b, ok := w.byID[id]
	return b, ok
}

// Blocks returns the registered blocks in registration order.
func (w *Workspace) Blocks() []*Block {
	return slices.Clone(w.blocks)
}

// SetRoots pins the root set. With no pinned roots, AllRootNodes computes
// them from the graph shape.
func (w *Workspace) SetRoots(ids ...string) {
	w.roots = slices.Clone(ids)
}

// PinnedRoots returns the explicitly pinned root ids.
func (w *Workspace) PinnedRoots() []string {
	return slices.Clone(w.roots)
}

// Create implements host.VariableStore.
func (w *Workspace) Create(name string, category ir.Category, id ir.VarID) (ir.VariableRecord, bool) {
	if w.failures.Create || id == "" {
		return ir.VariableRecord{}, false
	}
	key := ir.NameKey(name)
	for _, v := range w.vars {
		if v.ID == id {
			return ir.VariableRecord{}, false
		}
		if v.Category == category && ir.NameKey(v.Name) == key {
			return ir.VariableRecord{}, false
		}
	}
	rec := ir.VariableRecord{ID: id, Name: name, Category: category}
	w.vars = append(w.vars, rec)
	return rec, true
}

// DeleteByID implements host.VariableStore.
func (w *Workspace) DeleteByID(id ir.VarID) bool {
	if w.failures.Delete {
		return false
	}
	for i, v := range w.vars {
		if v.ID == id {
			w.vars = slices.Delete(w.vars, i, i+1)
			return true
		}
	}
	return false
}

// DeleteByName implements host.VariableStore.
func (w *Workspace) DeleteByName(name string) bool {
	if w.failures.Delete {
		return false
	}
	for i, v := range w.vars {
		if v.Name == name {
			w.vars = slices.Delete(w.vars, i, i+1)
			return true
		}
	}
	return false
}

// Rename implements host.VariableStore.
func (w *Workspace) Rename(id ir.VarID, newName string) bool {
	if w.failures.Rename {
		return false
	}
	for i, v := range w.vars {
		if v.ID == id {
			w.vars[i].Name = newName
			return true
		}
	}
	return false
}

// List implements host.VariableStore.
func (w *Workspace) List() ([]ir.VariableRecord, error) {
	if w.failures.List {
		return nil, errListFailed
	}
	return slices.Clone(w.vars), nil
}

// AllRootNodes implements host.BlockGraph.
//
// Pinned roots are returned as-is (unknown ids skipped). Otherwise the roots
// are every block that is nobody's child or next, in registration order,
// followed by any block those roots cannot reach (members of a pure cycle).
func (w *Workspace) AllRootNodes() ([]host.BlockNode, error) {
	if w.failures.Graph {
		return nil, errors.New("block graph unavailable")
	}

	var roots []*Block
	if len(w.roots) > 0 {
		for _, id := range w.roots {
			if b, ok := w.byID[id]; ok {
				roots = append(roots, b)
			}
		}
	} else {
		roots = w.computeRoots()
	}

	out := make([]host.BlockNode, len(roots))
	for i, b := range roots {
		out[i] = b
	}
	return out, nil
}

func (w *Workspace) computeRoots() []*Block {
	referenced := make(map[*Block]bool)
	for _, b := range w.blocks {
		for _, c := range b.children {
			referenced[c] = true
		}
		if b.next != nil {
			referenced[b.next] = true
		}
	}

	var roots []*Block
	for _, b := range w.blocks {
		if !referenced[b] {
			roots = append(roots, b)
		}
	}

	reached := make(map[*Block]bool)
	var walk func(*Block)
	walk = func(b *Block) {
		if b == nil || reached[b] {
			return
		}
		reached[b] = true
		for _, c := range b.children {
			walk(c)
		}
		walk(b.next)
	}
	for _, r := range roots {
		walk(r)
	}
	for _, b := range w.blocks {
		if !reached[b] {
			roots = append(roots, b)
			walk(b)
		}
	}
	return roots
}
