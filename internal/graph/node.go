package graph

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/weldgraph/internal/ir"
)

// NodePrefix prefixes every node identity.
const NodePrefix = "obj"

// Node is one unit of lazy computation.
//
// INVARIANTS:
//   - id is unique for the lifetime of the Clock that produced it
//   - code references only keys of inputs or ids of nodes reachable via deps
//   - the dependency relation is acyclic (checked at flattening time)
//   - a Node never changes after Draft.Finish returns it
type Node struct {
	id     string
	seq    int64
	code   string
	inputs map[string]ir.Value // literal name -> host value
	types  map[string]ir.Type  // literal name -> explicit IR type
	deps   map[string]*Node    // local key -> dependency
}

// ID returns the node's symbolic identity, e.g. "obj104".
func (n *Node) ID() string { return n.id }

// Seq returns the clock value the identity was built from.
func (n *Node) Seq() int64 { return n.seq }

// Code returns the node's IR fragment.
func (n *Node) Code() string { return n.code }

// Inputs returns a copy of the literal inputs this node names.
func (n *Node) Inputs() map[string]ir.Value { return maps.Clone(n.inputs) }

// Types returns a copy of the explicit literal types this node declares.
func (n *Node) Types() map[string]ir.Type { return maps.Clone(n.types) }

// Input returns a single literal input.
func (n *Node) Input(name string) (ir.Value, bool) {
	v, ok := n.inputs[name]
	return v, ok
}

// DeclaredType returns the explicit type declared for a literal, if any.
func (n *Node) DeclaredType(name string) (ir.Type, bool) {
	t, ok := n.types[name]
	return t, ok
}

// DependencyKeys returns the local dependency keys in sorted order.
func (n *Node) DependencyKeys() []string {
	return slices.Sorted(maps.Keys(n.deps))
}

// Dependency returns the dependency stored under key.
func (n *Node) Dependency(key string) (*Node, bool) {
	d, ok := n.deps[key]
	return d, ok
}

// Dependencies returns the direct dependencies ordered by key.
func (n *Node) Dependencies() []*Node {
	keys := n.DependencyKeys()
	out := make([]*Node, len(keys))
	for i, k := range keys {
		out[i] = n.deps[k]
	}
	return out
}

// String renders the node for debugging: code, inputs and dependency ids.
func (n *Node) String() string {
	names := slices.SortedFunc(maps.Keys(n.inputs), ir.CompareNames)
	ins := make([]string, len(names))
	for i, name := range names {
		ins[i] = name + "=" + ir.Format(n.inputs[name])
	}
	deps := make([]string, 0, len(n.deps))
	for _, d := range n.Dependencies() {
		deps = append(deps, d.id)
	}
	return fmt.Sprintf("%s = (%s) inputs{%s} deps[%s]",
		n.id, n.code, strings.Join(ins, ", "), strings.Join(deps, ", "))
}

// Lazy pairs a node with the IR type of its result. Client operations
// return Lazy values so callers know how to decode them later.
type Lazy struct {
	Node *Node
	Type ir.Type
}

// ID returns the wrapped node's identity.
func (l Lazy) ID() string { return l.Node.ID() }
