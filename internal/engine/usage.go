package engine

import (
	"log/slog"

	"github.com/roach88/extvars/internal/host"
	"github.com/roach88/extvars/internal/ir"
	"github.com/roach88/extvars/internal/usage"
)

// Details describes one variable for an inspection view.
type Details struct {
	Record ir.VariableRecord `json:"record"`

	// Usages is the non-nested reference count.
	Usages int `json:"usages"`

	// References lists every referencing block id, nested ones included.
	References []string `json:"references"`

	// InLive reports whether the host store currently holds the variable.
	InLive bool `json:"in_live"`
}

// snapshot captures the host graph. An unavailable graph yields an empty
// snapshot and an error the caller may surface as a warning.
func (e *Engine) snapshot() (*usage.Snapshot, error) {
	roots, err := host.Roots(e.host)
	if err != nil {
		slog.Warn("block graph unavailable, usage counts are empty", "error", err)
		return usage.Capture(nil), classify(err, "", "")
	}
	return usage.Capture(roots), nil
}

// UsageCount returns the number of non-nested references to id in the host
// graph. The graph is scanned on every call. When the graph is unavailable
// the count is 0 and a HOST_UNAVAILABLE error is returned alongside it.
func (e *Engine) UsageCount(id ir.VarID) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.snapshot()
	return snap.Count(id), err
}

// UsageCounts returns the usage count of every shadow variable, computed in
// one scan of the graph. Variables with no references map to 0.
func (e *Engine) UsageCounts() (map[ir.VarID]int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.snapshot()
	counts := snap.CountAll()
	out := make(map[ir.VarID]int, e.shadow.Len())
	for _, rec := range e.shadow.Registry().Records() {
		out[rec.ID] = counts[rec.ID]
	}
	return out, err
}

// Details returns the record, usage count and referencing blocks of id.
func (e *Engine) Details(id ir.VarID) (Details, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.shadow.Get(id)
	if !ok {
		return Details{}, newNotFound(id)
	}

	d := Details{Record: rec, References: []string{}}
	if live, err := host.LiveRegistry(e.host); err == nil {
		_, d.InLive = live.Find(id)
	}

	snap, err := e.snapshot()
	d.Usages = snap.Count(id)
	if refs := snap.ReferenceIDs(id); refs != nil {
		d.References = refs
	}
	return d, err
}

// Cycles reports loops in the host block graph.
func (e *Engine) Cycles() ([]usage.CycleWarning, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.snapshot()
	return snap.Cycles(), err
}
