package usage

import (
	"log/slog"

	"github.com/roach88/extvars/internal/host"
	"github.com/roach88/extvars/internal/ir"
)

// The helpers below isolate every call into host code. A panic is logged at
// debug level and replaced by the zero answer. A node without an identity
// cannot be tracked through a cycle, so it is dropped with its subtree; that
// loses references and is logged at warn level.

func safeID(b host.BlockNode) (id string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("block without identity skipped, references below it are not counted", "panic", r)
			id, ok = "", false
		}
	}()
	id = b.ID()
	if id == "" {
		slog.Warn("block without identity skipped, references below it are not counted", "reason", "empty id")
		return "", false
	}
	return id, true
}

func safeVariable(b host.BlockNode) (id ir.VarID, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("block inspection failed", "call", "VariableField", "panic", r)
			id, ok = "", false
		}
	}()
	return b.VariableField()
}

func safeChildren(b host.BlockNode) (children []host.BlockNode) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("block inspection failed", "call", "ChildNodes", "panic", r)
			children = nil
		}
	}()
	return b.ChildNodes()
}

func safeNext(b host.BlockNode) (next host.BlockNode) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("block inspection failed", "call", "NextNode", "panic", r)
			next = nil
		}
	}()
	return b.NextNode()
}
