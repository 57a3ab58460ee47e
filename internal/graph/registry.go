package graph

import (
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/weldgraph/internal/ir"
)

// InputPrefix prefixes every literal name handed out by a Registry.
const InputPrefix = "_inp"

// Registry deduplicates literal inputs by value.
//
// Intern maps the canonical text of a value (ir.Canonical) to a symbolic
// name. The first time a canonical text is seen a new name is allocated from
// a monotonic counter; afterwards the same name is returned. Entries are
// never removed, so a Registry grows for as long as it is reachable. Scope
// a Registry to a unit of work (one CLI run, one request) rather than the
// whole process when that matters.
//
// Thread-safety: all methods are safe for concurrent use. The uniqueness
// guarantee (one name per canonical text) holds across goroutines.
type Registry struct {
	mu    sync.Mutex
	names map[string]string // canonical text -> name
	next  int64
}

// Entry is one interned literal.
type Entry struct {
	Name      string
	Canonical string
}

// NewRegistry creates an empty registry. The first name it assigns is "_inp0".
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]string)}
}

// Intern returns the symbolic name for v, allocating one if this canonical
// text has not been seen before.
//
// Returns an error only if v cannot be canonicalized (nil or malformed).
func (r *Registry) Intern(v ir.Value) (string, error) {
	canonical, err := ir.Canonical(v)
	if err != nil {
		return "", fmt.Errorf("intern: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if name, ok := r.names[canonical]; ok {
		return name, nil
	}
	name := fmt.Sprintf("%s%d", InputPrefix, r.next)
	r.next++
	r.names[canonical] = name
	return name, nil
}

// Lookup returns the name previously assigned to v, if any.
func (r *Registry) Lookup(v ir.Value) (string, bool) {
	canonical, err := ir.Canonical(v)
	if err != nil {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.names[canonical]
	return name, ok
}

// Len returns the number of distinct literals interned so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}

// Entries returns a snapshot of all interned literals in name order.
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	entries := make([]Entry, 0, len(r.names))
	for canonical, name := range r.names {
		entries = append(entries, Entry{Name: name, Canonical: canonical})
	}
	r.mu.Unlock()

	slices.SortFunc(entries, func(a, b Entry) int {
		return ir.CompareNames(a.Name, b.Name)
	})
	return entries
}
