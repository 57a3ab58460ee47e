package graph

import (
	"errors"
	"fmt"
	"maps"

	"github.com/roach88/weldgraph/internal/ir"
)

// ErrTypeMismatch is returned when an explicit type does not describe the
// value it is declared for. Only Raw values may carry a foreign type.
var ErrTypeMismatch = errors.New("explicit type does not match value")

// Builder creates nodes that share one Registry and one Clock.
//
// Thread-safety: a Builder may be shared across goroutines. Individual
// Drafts may not.
type Builder struct {
	reg   *Registry
	clock *Clock
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock sets the clock used for node identities.
// Default: NewClock() (first identity "obj100").
func WithClock(c *Clock) BuilderOption {
	return func(b *Builder) {
		b.clock = c
	}
}

// NewBuilder creates a Builder backed by reg.
func NewBuilder(reg *Registry, opts ...BuilderOption) *Builder {
	b := &Builder{
		reg:   reg,
		clock: NewClock(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Registry returns the literal registry shared by this builder's nodes.
func (b *Builder) Registry() *Registry {
	return b.reg
}

// Draft starts a new node. The identity is assigned now, so it can be
// used while composing the node's own code.
func (b *Builder) Draft() *Draft {
	seq := b.clock.Next()
	return &Draft{
		reg: b.reg,
		node: &Node{
			id:     fmt.Sprintf("%s%d", NodePrefix, seq),
			seq:    seq,
			inputs: make(map[string]ir.Value),
			types:  make(map[string]ir.Type),
			deps:   make(map[string]*Node),
		},
	}
}

// Literal creates a node whose value is the literal v itself.
func (b *Builder) Literal(v ir.Value) (*Node, error) {
	d := b.Draft()
	name, err := d.Register(v)
	if err != nil {
		return nil, err
	}
	return d.Finish(name), nil
}

// Draft accumulates the inputs and dependencies of a node under construction.
type Draft struct {
	reg  *Registry
	node *Node
}

// ID returns the identity the finished node will carry.
func (d *Draft) ID() string {
	return d.node.id
}

// Register makes v available to the node's code and returns the name to use.
//
// Cases:
//   - *Node or Lazy: its literal inputs (and explicit types) are merged into
//     this draft and its identity is returned. Registering a node does not
//     make it a dependency; call Depend for that.
//   - ir.Value: the value is interned and recorded as a literal input; the
//     interned name is returned. Equal values always get the same name.
func (d *Draft) Register(v any) (string, error) {
	switch val := v.(type) {
	case *Node:
		if val == nil {
			return "", fmt.Errorf("register: nil node")
		}
		d.absorb(val)
		return val.id, nil
	case Lazy:
		if val.Node == nil {
			return "", fmt.Errorf("register: lazy result without node")
		}
		d.absorb(val.Node)
		return val.Node.id, nil
	case *Lazy:
		if val == nil || val.Node == nil {
			return "", fmt.Errorf("register: lazy result without node")
		}
		d.absorb(val.Node)
		return val.Node.id, nil
	case ir.Value:
		name, err := d.reg.Intern(val)
		if err != nil {
			return "", fmt.Errorf("register: %w", err)
		}
		d.node.inputs[name] = val
		return name, nil
	case nil:
		return "", fmt.Errorf("register: nil value")
	default:
		return "", fmt.Errorf("register: unsupported value type %T", v)
	}
}

// RegisterTyped registers a literal and declares its IR type explicitly,
// bypassing the encoder's type inference for this input. A decoded value must
// already have type t; Raw bytes are passed through under any declared type.
func (d *Draft) RegisterTyped(v ir.Value, t ir.Type) (string, error) {
	if t == nil {
		return "", fmt.Errorf("register %T: nil type", v)
	}
	if _, raw := v.(ir.Raw); !raw && v != nil && !ir.TypesEqual(v.Type(), t) {
		return "", fmt.Errorf("register: %w: %s declared as %s", ErrTypeMismatch, v.Type(), t)
	}
	name, err := d.Register(v)
	if err != nil {
		return "", err
	}
	d.node.types[name] = t
	return name, nil
}

// Depend records n as a dependency under key, merges its literal inputs, and
// returns n's identity for use in code. Re-using a key replaces the previous
// dependency.
func (d *Draft) Depend(key string, n *Node) string {
	d.node.deps[key] = n
	d.absorb(n)
	return n.id
}

// Finish sets the node's code and returns the finished node.
// The node keeps its own copies of the draft's maps; further use of the
// draft does not affect it.
func (d *Draft) Finish(code string) *Node {
	return &Node{
		id:     d.node.id,
		seq:    d.node.seq,
		code:   code,
		inputs: maps.Clone(d.node.inputs),
		types:  maps.Clone(d.node.types),
		deps:   maps.Clone(d.node.deps),
	}
}

// FinishLazy is Finish plus the result type.
func (d *Draft) FinishLazy(code string, t ir.Type) Lazy {
	return Lazy{Node: d.Finish(code), Type: t}
}

func (d *Draft) absorb(n *Node) {
	maps.Copy(d.node.inputs, n.inputs)
	maps.Copy(d.node.types, n.types)
}
