// Package host defines the adapter contract between extvars and the block
// editor that owns the live variable store and the block graph.
//
// A concrete host integration implements these interfaces once; the rest of
// extvars assumes the contract holds. All VariableStore calls are best
// effort: failures are reported as false/error results, never as panics.
// Callers still recover panics at their boundary because hosts are external
// code.
package host

import (
	"errors"

	"github.com/roach88/extvars/internal/ir"
)

// ErrUnavailable is returned (wrapped) when the host store or graph API is
// missing or broken.
var ErrUnavailable = errors.New("host unavailable")

// VariableStore is the host's live variable store.
type VariableStore interface {
	// Create adds a variable with the given id. Returns false if the host
	// rejected it (id or name already taken, store unavailable).
	Create(name string, category ir.Category, id ir.VarID) (ir.VariableRecord, bool)

	// DeleteByID removes the variable with the given id.
	DeleteByID(id ir.VarID) bool

	// DeleteByName removes the first variable with the given name.
	DeleteByName(name string) bool

	// Rename changes the name of the variable with the given id.
	Rename(id ir.VarID, newName string) bool

	// List returns every live variable. Category holds the raw host tag,
	// which may be empty or outside the catalog.
	List() ([]ir.VariableRecord, error)
}

// BlockGraph enumerates the host's block graph.
type BlockGraph interface {
	// AllRootNodes returns the entry points of the graph. Every node of
	// interest must be reachable from the returned set.
	AllRootNodes() ([]BlockNode, error)
}

// BlockNode is a read-only view of one block.
type BlockNode interface {
	// ID returns the node identity used for cycle detection.
	ID() string

	// VariableField returns the variable this block references, if any.
	VariableField() (ir.VarID, bool)

	// ChildNodes returns blocks plugged into this block's input slots.
	ChildNodes() []BlockNode

	// NextNode returns the block chained after this one, or nil.
	NextNode() BlockNode
}

// Reassignable is implemented by nodes whose variable field can be written.
// Writing the same id back is how a host with cached labels is told to redraw.
type Reassignable interface {
	SetVariableField(id ir.VarID) bool
}

// Host is the complete adapter: live store plus block graph.
type Host interface {
	VariableStore
	BlockGraph
}
