package reconcile

import (
	"fmt"

	"github.com/roach88/extvars/internal/host"
	"github.com/roach88/extvars/internal/ir"
)

// Host calls are wrapped so a misbehaving adapter surfaces as a refusal.

func create(live host.VariableStore, rec ir.VariableRecord) (ok bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			ok, reason = false, fmt.Sprintf("panic: %v", r)
		}
	}()
	if _, ok := live.Create(rec.Name, rec.Category, rec.ID); !ok {
		return false, "host rejected create"
	}
	return true, ""
}

func deleteByID(live host.VariableStore, id ir.VarID) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return live.DeleteByID(id)
}

func deleteByName(live host.VariableStore, name string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return live.DeleteByName(name)
}

func rename(live host.VariableStore, id ir.VarID, name string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return live.Rename(id, name)
}

// remove deletes rec from the host, by id first and by name as a fallback.
// Resync deletes every live variable, so a name shared across categories is
// harmless here.
func remove(live host.VariableStore, rec ir.VariableRecord) bool {
	if deleteByID(live, rec.ID) {
		return true
	}
	return rec.Name != "" && deleteByName(live, rec.Name)
}
