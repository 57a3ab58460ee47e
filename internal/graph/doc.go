// Package graph builds lazy expression graphs.
//
// A Node is one unit of deferred computation: an IR code fragment, the
// literal inputs it names, and the nodes it depends on. Nodes are created
// through a Builder, which owns two pieces of shared state:
//
//   - a Registry that gives every distinct literal (by canonical text) exactly
//     one symbolic name, so equal literals are declared once per program
//   - a Clock that hands out node identities ("obj100", "obj101", ...)
//
// Both are safe for concurrent use. Nodes are immutable once finished and may
// be shared as dependencies by any number of other nodes.
//
// Typical use:
//
//	b := graph.NewBuilder(graph.NewRegistry())
//	d := b.Draft()
//	x, _ := d.Register(ir.Int64s(1, 2, 3))
//	sum := d.Finish(fmt.Sprintf("result(for(%s, merger[i64,+], |b,i,e| merge(b,e)))", x))
package graph
