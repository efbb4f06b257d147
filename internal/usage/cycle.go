package usage

import (
	"fmt"
	"slices"
	"strings"
)

// CycleWarning reports a loop in the block graph.
//
// Cycles are warnings, not errors. The analyzer handles them, but a host
// graph that loops usually indicates a corrupted workspace.
type CycleWarning struct {
	Path    []string `json:"path"`    // block ids: ["a", "b", "a"]
	Message string   `json:"message"`
	Level   string   `json:"level"` // always "warning"
}

// Cycles finds every strongly connected component of the captured graph
// (child and next edges) with more than one node, plus self-loops.
//
// Components are reported in capture order of their first node, so the
// result is stable for a given graph.
func (s *Snapshot) Cycles() []CycleWarning {
	warnings := []CycleWarning{}
	for _, scc := range s.tarjanSCC() {
		if len(scc) > 1 || s.hasSelfLoop(scc[0]) {
			warnings = append(warnings, s.sccToWarning(scc))
		}
	}
	return warnings
}

// successors returns the outgoing edges of node v.
func (s *Snapshot) successors(v int) []int {
	out := s.nodes[v].children
	if nx := s.nodes[v].next; nx >= 0 {
		out = append(append([]int(nil), out...), nx)
	}
	return out
}

func (s *Snapshot) hasSelfLoop(v int) bool {
	for _, w := range s.successors(v) {
		if w == v {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Each component is sorted by capture index; components are sorted by their
// first member.
func (s *Snapshot) tarjanSCC() [][]int {
	var (
		index   = 0
		stack   []int
		indices = make(map[int]int)
		lowlink = make(map[int]int)
		onStack = make(map[int]bool)
		sccs    [][]int
	)

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range s.successors(v) {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := range s.nodes {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}

	for _, scc := range sccs {
		slices.Sort(scc)
	}
	slices.SortFunc(sccs, func(a, b []int) int { return a[0] - b[0] })
	return sccs
}

func (s *Snapshot) sccToWarning(scc []int) CycleWarning {
	if len(scc) == 1 {
		id := s.nodes[scc[0]].id
		return CycleWarning{
			Path:    []string{id, id},
			Message: fmt.Sprintf("block links to itself: %s → %s", id, id),
			Level:   "warning",
		}
	}

	path := s.reconstructCyclePath(scc)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("block cycle detected: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath follows edges inside the component from its first
// member until it returns to the start.
func (s *Snapshot) reconstructCyclePath(scc []int) []string {
	member := make(map[int]bool, len(scc))
	for _, v := range scc {
		member[v] = true
	}

	start := scc[0]
	current := start
	path := []string{s.nodes[start].id}
	visited := make(map[int]bool)

	for {
		visited[current] = true
		next := -1
		for _, w := range s.successors(current) {
			if member[w] && (!visited[w] || w == start) {
				next = w
				break
			}
		}
		if next < 0 {
			break
		}
		path = append(path, s.nodes[next].id)
		if next == start {
			break
		}
		current = next
	}
	return path
}
