package reconcile

import (
	"log/slog"

	"github.com/roach88/extvars/internal/host"
	"github.com/roach88/extvars/internal/ir"
	"github.com/roach88/extvars/internal/usage"
)

// RefreshHook runs after a rename so blocks showing the old name redraw.
// It returns the number of blocks refreshed.
type RefreshHook interface {
	Refresh(graph host.BlockGraph, id ir.VarID) (int, error)
}

// HookFunc adapts a function to RefreshHook.
type HookFunc func(graph host.BlockGraph, id ir.VarID) (int, error)

// Refresh implements RefreshHook.
func (f HookFunc) Refresh(graph host.BlockGraph, id ir.VarID) (int, error) { return f(graph, id) }

// ReassignHook writes the same id back into every block that references it,
// nested references included. Hosts that cache rendered labels redraw on the
// write. Blocks that are not host.Reassignable are skipped.
type ReassignHook struct{}

// Refresh implements RefreshHook.
func (ReassignHook) Refresh(graph host.BlockGraph, id ir.VarID) (int, error) {
	roots, err := host.Roots(graph)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, node := range usage.Capture(roots).References(id) {
		r, ok := node.(host.Reassignable)
		if !ok {
			continue
		}
		if reassign(r, id) {
			refreshed++
		}
	}
	slog.Debug("refreshed blocks after rename", "id", id, "blocks", refreshed)
	return refreshed, nil
}

// NoopHook does nothing. For hosts that resolve names at render time.
type NoopHook struct{}

// Refresh implements RefreshHook.
func (NoopHook) Refresh(host.BlockGraph, ir.VarID) (int, error) { return 0, nil }

func reassign(r host.Reassignable, id ir.VarID) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
		}
	}()
	return r.SetVariableField(id)
}
