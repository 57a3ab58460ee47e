package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/weldgraph/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the program text to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Program  string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Program != "" {
		fmt.Fprintf(&buf, "\nProgram:\n%s\n", e.Program)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertBindingOrder:
		return assertBindingOrder(result, a)
	case AssertBindingCount:
		got := len(result.Call.Program.Bindings)
		if got != a.Count {
			return fail(result, a.Type, fmt.Sprintf("%d bindings", a.Count), fmt.Sprintf("%d bindings", got))
		}
	case AssertParamCount:
		got := len(result.Call.Args)
		if got != a.Count {
			return fail(result, a.Type, fmt.Sprintf("%d params", a.Count), fmt.Sprintf("%d params: %v", got, result.Params))
		}
	case AssertSharedLiteral:
		return assertSharedLiteral(result, a)
	case AssertResult:
		return assertResult(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// assertBindingOrder checks that the nodes' bindings appear in the given
// relative order. Intervening bindings are allowed.
func assertBindingOrder(result *Result, a Assertion) error {
	prev, prevName := -1, ""
	for _, name := range a.Nodes {
		n, ok := result.Built.Nodes[name]
		if !ok {
			return fmt.Errorf("unknown node %q", name)
		}
		pos := result.Call.Program.Position(n.ID())
		if pos < 0 {
			return fail(result, a.Type, fmt.Sprintf("%s (%s) in program", name, n.ID()), "not reachable from target")
		}
		if pos <= prev {
			return fail(result, a.Type,
				fmt.Sprintf("%s before %s", prevName, name),
				fmt.Sprintf("%s at %d, %s at %d", prevName, prev, name, pos))
		}
		prev, prevName = pos, name
	}
	return nil
}

func assertSharedLiteral(result *Result, a Assertion) error {
	var first, firstRef string
	for _, ref := range a.Literals {
		name, ok := result.Built.Literals[ref]
		if !ok {
			return fmt.Errorf("unknown literal %q", ref)
		}
		if first == "" {
			first, firstRef = name, ref
			continue
		}
		if name != first {
			return fail(result, a.Type,
				fmt.Sprintf("%s and %s share one name", firstRef, ref),
				fmt.Sprintf("%s=%s, %s=%s", firstRef, first, ref, name))
		}
	}
	return nil
}

func assertResult(result *Result, a Assertion) error {
	if result.Value == nil {
		return fmt.Errorf("no result: scenario was not evaluated (no runtime configured)")
	}
	want, err := ir.FromAny(result.Built.ResultType, a.Value)
	if err != nil {
		return fmt.Errorf("expected value: %w", err)
	}
	if !ir.Equal(want, result.Value) {
		return fail(result, a.Type, ir.Format(want), ir.Format(result.Value))
	}
	return nil
}

func fail(result *Result, typ, expected, actual string) error {
	return &AssertionError{
		Type:     typ,
		Expected: expected,
		Actual:   actual,
		Program:  result.Program,
	}
}
