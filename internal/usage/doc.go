// Package usage counts meaningful references to a variable in a block graph.
//
// ALGORITHM:
//
//  1. Capture: walk every node reachable from the roots through child slots
//     and next links. A visited set keyed by node identity (BlockNode.ID)
//     bounds the walk to O(distinct nodes) even when the graph is cyclic.
//  2. Match: a node matches when its variable field equals the target id.
//  3. Nesting: a matching node is excluded when another matching node
//     contains it. Node A contains N when N is reachable from one of A's
//     child slots (through further child slots or next links). A next link
//     on its own is sequencing, not containment, so two matching blocks in
//     one statement chain both count.
//  4. The count is the number of matching nodes that survive step 3.
//
// Containment is evaluated over the whole captured graph, so the result does
// not depend on root order. In a cycle where two matching nodes contain each
// other, both are excluded; the result is still deterministic.
//
// The analyzer never panics: a node whose inspection panics is treated as
// "no match" for the failing call, and a node whose identity cannot be read
// is skipped entirely. Counts are advisory, so the walk fails open.
//
// Nothing is cached. Callers capture a fresh snapshot for every question
// because the host graph may change between calls.
package usage
