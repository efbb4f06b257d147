package usage

import (
	"github.com/roach88/extvars/internal/host"
	"github.com/roach88/extvars/internal/ir"
)

// node is one captured block.
type node struct {
	block    host.BlockNode
	id       string
	varID    ir.VarID
	hasVar   bool
	children []int
	next     int // -1 when absent
}

// Snapshot is an immutable capture of the part of a block graph reachable
// from a root set.
type Snapshot struct {
	nodes []node
	index map[string]int

	// skipped counts nodes dropped for lack of an identity.
	skipped int
}

// pending holds the raw edges of a discovered node until every node has an
// index.
type pending struct {
	childIDs []string
	nextID   string
}

// Capture walks the graph from roots and returns a snapshot.
// Nodes are indexed in depth-first preorder (roots first, children before
// next), which makes every derived result deterministic.
func Capture(roots []host.BlockNode) *Snapshot {
	s := &Snapshot{index: make(map[string]int)}
	var edges []pending

	type frame struct {
		block host.BlockNode
		id    string
	}
	var stack []frame
	push := func(b host.BlockNode) (string, bool) {
		if b == nil {
			return "", false
		}
		id, ok := safeID(b)
		if !ok {
			s.skipped++
			return "", false
		}
		stack = append(stack, frame{block: b, id: id})
		return id, true
	}

	for i := len(roots) - 1; i >= 0; i-- {
		push(roots[i])
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := s.index[f.id]; seen {
			continue
		}

		n := node{block: f.block, id: f.id, next: -1}
		n.varID, n.hasVar = safeVariable(f.block)
		s.index[f.id] = len(s.nodes)
		s.nodes = append(s.nodes, n)

		var p pending
		// Push next first so children are visited before it.
		if nextID, ok := push(safeNext(f.block)); ok {
			p.nextID = nextID
		}
		children := safeChildren(f.block)
		ids := make([]string, len(children))
		for i := len(children) - 1; i >= 0; i-- {
			if id, ok := push(children[i]); ok {
				ids[i] = id
			}
		}
		for _, id := range ids {
			if id != "" {
				p.childIDs = append(p.childIDs, id)
			}
		}
		edges = append(edges, p)
	}

	for i, p := range edges {
		for _, cid := range p.childIDs {
			if ci, ok := s.index[cid]; ok {
				s.nodes[i].children = append(s.nodes[i].children, ci)
			}
		}
		if p.nextID != "" {
			if ni, ok := s.index[p.nextID]; ok {
				s.nodes[i].next = ni
			}
		}
	}
	return s
}

// Len returns the number of distinct nodes captured.
func (s *Snapshot) Len() int { return len(s.nodes) }

// Skipped returns how many times the walk met a node without an identity.
// Neither that node nor anything below it was captured.
func (s *Snapshot) Skipped() int { return s.skipped }

// Count returns the number of non-nested references to target.
func (s *Snapshot) Count(target ir.VarID) int {
	if target == "" {
		return 0
	}
	excluded := s.nested(target)
	count := 0
	for i, n := range s.nodes {
		if n.hasVar && n.varID == target && !excluded[i] {
			count++
		}
	}
	return count
}

// CountAll returns the non-nested reference count of every variable that is
// referenced at least once.
func (s *Snapshot) CountAll() map[ir.VarID]int {
	out := make(map[ir.VarID]int)
	for _, n := range s.nodes {
		if n.hasVar && n.varID != "" {
			if _, done := out[n.varID]; !done {
				out[n.varID] = s.Count(n.varID)
			}
		}
	}
	return out
}

// References returns every node whose variable field is target, nested or
// not, in capture order.
func (s *Snapshot) References(target ir.VarID) []host.BlockNode {
	var out []host.BlockNode
	for _, n := range s.nodes {
		if n.hasVar && n.varID == target {
			out = append(out, n.block)
		}
	}
	return out
}

// ReferenceIDs returns the node ids of References(target).
func (s *Snapshot) ReferenceIDs(target ir.VarID) []string {
	var out []string
	for _, n := range s.nodes {
		if n.hasVar && n.varID == target {
			out = append(out, n.id)
		}
	}
	return out
}

// nested marks every matching node contained by another matching node.
func (s *Snapshot) nested(target ir.VarID) map[int]bool {
	excluded := make(map[int]bool)
	for i, n := range s.nodes {
		if !n.hasVar || n.varID != target {
			continue
		}
		for _, d := range s.contained(i) {
			m := s.nodes[d]
			if d != i && m.hasVar && m.varID == target {
				excluded[d] = true
			}
		}
	}
	return excluded
}

// contained returns every node reachable from the child slots of node i.
func (s *Snapshot) contained(i int) []int {
	seen := make(map[int]bool)
	queue := append([]int(nil), s.nodes[i].children...)
	var out []int
	for len(queue) > 0 {
		j := queue[0]
		queue = queue[1:]
		if seen[j] {
			continue
		}
		seen[j] = true
		out = append(out, j)
		queue = append(queue, s.nodes[j].children...)
		if nx := s.nodes[j].next; nx >= 0 {
			queue = append(queue, nx)
		}
	}
	return out
}

// CountUsages returns the number of non-nested references to target in the
// graph reachable from roots. Empty roots or an absent target yield 0.
func CountUsages(roots []host.BlockNode, target ir.VarID) int {
	if len(roots) == 0 {
		return 0
	}
	return Capture(roots).Count(target)
}
