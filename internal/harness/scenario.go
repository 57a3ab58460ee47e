package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/weldgraph/internal/ir"
)

// Scenario describes an expression graph, its target, and assertions on the
// assembled program and result.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Nodes are built in the listed order. A node may only reference
	// nodes listed before it.
	Nodes []NodeStep `yaml:"nodes"`

	// Target names the node to flatten and evaluate.
	Target string `yaml:"target"`

	// ResultType is the IR type of the target's result, e.g. "vec[f64]".
	ResultType string `yaml:"result_type"`

	// Assertions validate the program and result.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// NodeStep describes one node.
type NodeStep struct {
	// Name is the scenario-local name other nodes use in ${...}.
	Name string `yaml:"name"`

	// Code is the IR fragment with ${ref} placeholders.
	Code string `yaml:"code"`

	// Literals are this node's literal inputs, keyed by placeholder name.
	Literals map[string]Literal `yaml:"literals,omitempty"`

	// Deps are extra dependencies not referenced in Code.
	Deps []string `yaml:"deps,omitempty"`
}

// Literal is a typed literal value.
type Literal struct {
	// Type is the IR type, e.g. "i64", "vec[i8]", "{i32,f64}".
	Type string `yaml:"type"`

	// Value is converted with ir.FromAny. Strings are accepted for vec[i8].
	Value any `yaml:"value"`

	// Explicit registers the type with the node, bypassing inference.
	Explicit bool `yaml:"explicit,omitempty"`
}

// Assertion validates the outcome of a scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "binding_order": Nodes' bindings appear in this relative order
	// - "binding_count": Program has exactly Count bindings
	// - "param_count": Header declares exactly Count parameters
	// - "shared_literal": Literals ("node.literal") all share one name
	// - "result": Evaluated result equals Value (requires a runtime)
	Type string `yaml:"type"`

	// Nodes is the expected order (used by binding_order).
	Nodes []string `yaml:"nodes,omitempty"`

	// Count is the expected number (used by binding_count, param_count).
	Count int `yaml:"count,omitempty"`

	// Literals are "node.literal" references (used by shared_literal).
	Literals []string `yaml:"literals,omitempty"`

	// Value is the expected result, converted with the scenario result type.
	Value any `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertBindingOrder  = "binding_order"
	AssertBindingCount  = "binding_count"
	AssertParamCount    = "param_count"
	AssertSharedLiteral = "shared_literal"
	AssertResult        = "result"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Nodes) == 0 {
		return fmt.Errorf("nodes list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Nodes))
	for i, n := range s.Nodes {
		if n.Name == "" {
			return fmt.Errorf("nodes[%d]: name is required", i)
		}
		if names[n.Name] {
			return fmt.Errorf("nodes[%d]: duplicate node name %q", i, n.Name)
		}
		names[n.Name] = true
		if n.Code == "" {
			return fmt.Errorf("nodes[%d] %s: code is required", i, n.Name)
		}
		for key, lit := range n.Literals {
			if names[key] {
				return fmt.Errorf("nodes[%d] %s: literal %q shadows a node", i, n.Name, key)
			}
			if _, err := ir.ParseType(lit.Type); err != nil {
				return fmt.Errorf("nodes[%d] %s: literal %q: %w", i, n.Name, key, err)
			}
		}
	}

	if s.Target == "" {
		return fmt.Errorf("target is required")
	}
	if !names[s.Target] {
		return fmt.Errorf("target %q is not a node", s.Target)
	}
	if s.ResultType == "" {
		return fmt.Errorf("result_type is required")
	}
	if _, err := ir.ParseType(s.ResultType); err != nil {
		return fmt.Errorf("result_type: %w", err)
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], names); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, names map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertBindingOrder:
		if len(a.Nodes) < 2 {
			return fmt.Errorf("assertions[%d]: binding_order needs at least two nodes", index)
		}
		for _, n := range a.Nodes {
			if !names[n] {
				return fmt.Errorf("assertions[%d]: unknown node %q", index, n)
			}
		}
	case AssertBindingCount, AssertParamCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertSharedLiteral:
		if len(a.Literals) < 2 {
			return fmt.Errorf("assertions[%d]: shared_literal needs at least two literals", index)
		}
	case AssertResult:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for result", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
