package program

import (
	"container/heap"
	"fmt"
	"strings"

	"github.com/roach88/weldgraph/internal/graph"
	"github.com/roach88/weldgraph/internal/ir"
)

// Binding is one "let name = (code);" statement.
type Binding struct {
	Name string
	Code string
	Deps []string // identities of direct dependencies, ordered by key
}

// Statement renders the binding as IR text.
func (b Binding) Statement() string {
	return fmt.Sprintf("let %s = (%s);", b.Name, b.Code)
}

// Input is one literal input aggregated from the whole graph.
type Input struct {
	Name  string
	Value ir.Value
	Type  ir.Type // explicit type, or nil to let the encoder infer it
}

// Program is a flattened graph: ordered bindings, the aggregated literal
// inputs in signature order, and the identity of the target node.
type Program struct {
	Target   string
	Bindings []Binding
	Inputs   []Input
}

// Body renders the bindings followed by the trailing reference to the target:
//
//	let obj100 = (code);
//	let obj101 = (code);
//	obj101
func (p *Program) Body() string {
	var b strings.Builder
	for _, binding := range p.Bindings {
		b.WriteString(binding.Statement())
		b.WriteByte('\n')
	}
	b.WriteString(p.Target)
	return b.String()
}

// Position returns the index of the named binding, or -1.
func (p *Program) Position(name string) int {
	for i, b := range p.Bindings {
		if b.Name == name {
			return i
		}
	}
	return -1
}

// Flatten produces the ordered program for target.
//
// Guarantees:
//   - exactly one binding per node reachable from target
//   - every dependency's binding precedes each binding that references it
//   - the target's binding is last
//   - identical graph shapes built in the same order flatten identically
//
// Returns CycleError for cyclic graphs, ErrDuplicateIdentity if two distinct
// nodes share an identity, and ErrTypeConflict for inconsistent explicit
// literal types.
func Flatten(target *graph.Node) (*Program, error) {
	if target == nil {
		return nil, fmt.Errorf("flatten: nil target")
	}

	nodes, err := collect(target)
	if err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}

	order, err := topoOrder(indexOf(nodes))
	if err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}

	bindings := make([]Binding, len(order))
	for i, id := range order {
		n := nodes[id]
		deps := make([]string, 0)
		for _, d := range n.Dependencies() {
			deps = append(deps, d.ID())
		}
		bindings[i] = Binding{Name: id, Code: n.Code(), Deps: deps}
	}

	inputs, err := aggregateInputs(order, nodes)
	if err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}

	return &Program{
		Target:   target.ID(),
		Bindings: bindings,
		Inputs:   inputs,
	}, nil
}

// collect walks the dependency closure iteratively, visiting each identity
// once. The visited set also guarantees termination on cyclic input.
func collect(target *graph.Node) (map[string]*graph.Node, error) {
	nodes := make(map[string]*graph.Node)
	stack := []*graph.Node{target}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if seen, ok := nodes[cur.ID()]; ok {
			if seen != cur {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentity, cur.ID())
			}
			continue
		}
		nodes[cur.ID()] = cur

		for _, d := range cur.Dependencies() {
			if d == nil {
				return nil, fmt.Errorf("node %s has a nil dependency", cur.ID())
			}
			stack = append(stack, d)
		}
	}
	return nodes, nil
}

// dagIndex is the identity-level view of a graph used for ordering.
type dagIndex struct {
	seq  map[string]int64    // identity -> sequence number
	deps map[string][]string // identity -> direct dependency identities
}

func indexOf(nodes map[string]*graph.Node) dagIndex {
	idx := dagIndex{
		seq:  make(map[string]int64, len(nodes)),
		deps: make(map[string][]string, len(nodes)),
	}
	for id, n := range nodes {
		idx.seq[id] = n.Seq()
		var deps []string
		for _, d := range n.Dependencies() {
			deps = append(deps, d.ID())
		}
		idx.deps[id] = deps
	}
	return idx
}

// topoOrder runs Kahn's algorithm over idx. Among nodes that are ready at the
// same time the one with the smallest sequence number goes first.
func topoOrder(idx dagIndex) ([]string, error) {
	indegree := make(map[string]int, len(idx.seq))
	dependents := make(map[string][]string, len(idx.seq))

	for id, deps := range idx.deps {
		unique := make(map[string]bool, len(deps))
		for _, d := range deps {
			if unique[d] {
				continue
			}
			unique[d] = true
			indegree[id]++
			dependents[d] = append(dependents[d], id)
		}
	}

	ready := &readyQueue{seq: idx.seq}
	for id := range idx.seq {
		if indegree[id] == 0 {
			ready.ids = append(ready.ids, id)
		}
	}
	heap.Init(ready)

	order := make([]string, 0, len(idx.seq))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(string)
		order = append(order, id)
		for _, dependent := range dependents[id] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}

	if len(order) < len(idx.seq) {
		return nil, &CycleError{Path: findCycle(idx, order)}
	}
	return order, nil
}

// readyQueue is a min-heap of identities keyed by (seq, identity).
type readyQueue struct {
	ids []string
	seq map[string]int64
}

func (q *readyQueue) Len() int { return len(q.ids) }

func (q *readyQueue) Less(i, j int) bool {
	a, b := q.ids[i], q.ids[j]
	if q.seq[a] != q.seq[b] {
		return q.seq[a] < q.seq[b]
	}
	return ir.CompareNames(a, b) < 0
}

func (q *readyQueue) Swap(i, j int) { q.ids[i], q.ids[j] = q.ids[j], q.ids[i] }

func (q *readyQueue) Push(x any) { q.ids = append(q.ids, x.(string)) }

func (q *readyQueue) Pop() any {
	n := len(q.ids)
	id := q.ids[n-1]
	q.ids = q.ids[:n-1]
	return id
}

// aggregateInputs merges literal inputs of all nodes into one list ordered by
// ir.CompareNames.
func aggregateInputs(order []string, nodes map[string]*graph.Node) ([]Input, error) {
	byName := make(map[string]*Input)
	var names []string

	for _, id := range order {
		n := nodes[id]
		for name, value := range n.Inputs() {
			in, ok := byName[name]
			if !ok {
				in = &Input{Name: name, Value: value}
				byName[name] = in
				names = append(names, name)
			} else if err := sameLiteral(name, in.Value, value); err != nil {
				return nil, err
			}
			if t, ok := n.DeclaredType(name); ok {
				if in.Type != nil && !ir.TypesEqual(in.Type, t) {
					return nil, fmt.Errorf("%w: %s declared as %s and %s", ErrTypeConflict, name, in.Type, t)
				}
				in.Type = t
			}
		}
	}

	ir.SortNames(names)
	inputs := make([]Input, len(names))
	for i, name := range names {
		inputs[i] = *byName[name]
	}
	return inputs, nil
}

// sameLiteral reports ErrLiteralConflict unless a and b are the same value.
func sameLiteral(name string, a, b ir.Value) error {
	ca, err := ir.Canonical(a)
	if err != nil {
		return fmt.Errorf("literal %s: %w", name, err)
	}
	cb, err := ir.Canonical(b)
	if err != nil {
		return fmt.Errorf("literal %s: %w", name, err)
	}
	if ca != cb {
		return fmt.Errorf("%w: %s bound to %s and %s", ErrLiteralConflict, name, ca, cb)
	}
	return nil
}
