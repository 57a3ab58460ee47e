package program

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTypeConflict is returned when two nodes declare different explicit
// types for the same literal name.
var ErrTypeConflict = errors.New("conflicting explicit types for literal")

// ErrLiteralConflict is returned when one literal name stands for two
// different values, typically because the nodes came from Builders with
// separate registries.
var ErrLiteralConflict = errors.New("conflicting values for literal")

// ErrDuplicateIdentity is returned when two distinct nodes in one graph carry
// the same identity, typically because they came from Builders with separate
// clocks.
var ErrDuplicateIdentity = errors.New("duplicate node identity")

// CycleError reports a dependency cycle. Nodes built through graph.Draft
// cannot form cycles; seeing this error means the acyclicity precondition was
// broken some other way.
type CycleError struct {
	Path []string // e.g. ["obj101", "obj102", "obj101"]
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}

// IsCycleError returns true if err is (or wraps) a CycleError.
func IsCycleError(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce)
}
