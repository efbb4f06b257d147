package engine

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roach88/extvars/internal/ir"
	"github.com/roach88/extvars/internal/registry"
)

// Replay rebuilds a shadow registry from journal entries.
//
// Entries are applied in seq order, whatever order they are passed in. Add
// and adopt entries import the record with its journaled id, rename entries
// rename by id, and remove entries delete by id. Capacity is not enforced:
// the journal only holds mutations that were admitted when they happened.
//
// Replaying a complete journal yields a registry whose digest equals that of
// the saved shadow registry.
func Replay(entries []ir.JournalEntry) (ir.Registry, error) {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b ir.JournalEntry) int {
		return cmp.Compare(a.Seq, b.Seq)
	})

	s := registry.NewStore()
	for _, en := range sorted {
		var err error
		switch en.Op {
		case ir.OpAdd, ir.OpAdopt:
			err = s.Import(ir.VariableRecord{ID: en.VarID, Name: en.Name, Category: en.Category})
		case ir.OpRename:
			_, err = s.Rename(en.VarID, en.Name)
		case ir.OpRemove:
			s.Remove(en.VarID)
		default:
			err = fmt.Errorf("unknown journal op %q", en.Op)
		}
		if err != nil {
			return nil, fmt.Errorf("replay seq %d: %w", en.Seq, classify(err, en.VarID, en.Category))
		}
	}
	return s.Registry(), nil
}
