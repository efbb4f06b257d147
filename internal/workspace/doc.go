// Package workspace loads and saves workspace documents: a serialized host
// (live variables plus a block graph) that backs the in-memory host used by
// the CLI and the scenario harness.
//
// Documents are YAML, JSON or CUE:
//
//	variables:
//	  - {id: EV_0001, name: score, category: Global}
//	blocks:
//	  - id: set-score
//	    type: SetVariable
//	    variable: EV_0001
//	    children: [add]
//	    next: wait
//	  - {id: add, type: Add}
//	  - {id: wait, type: Wait}
//	roots: [set-score]   # optional
//
// Blocks reference each other by id, so cycles and shared nodes are
// expressible. CUE documents are unified with the embedded #Workspace schema
// before decoding; YAML and JSON documents are decoded strictly.
package workspace
