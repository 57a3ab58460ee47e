package harness

import (
	"github.com/roach88/weldgraph/internal/eval"
	"github.com/roach88/weldgraph/internal/graph"
	"github.com/roach88/weldgraph/internal/ir"
)

// Built is the graph constructed from a scenario.
type Built struct {
	// Nodes maps scenario node names to the built nodes.
	Nodes map[string]*graph.Node

	// Literals maps "node.literal" references to registry names.
	Literals map[string]string

	// Target is the node named by the scenario target.
	Target *graph.Node

	// ResultType is the parsed scenario result type.
	ResultType ir.Type
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`

	// Program is the assembled program text.
	Program string `json:"program"`

	// Params are the header parameters in signature order.
	Params []string `json:"params"`

	// Value is the evaluated result, nil when no runtime was configured.
	Value ir.Value `json:"-"`

	Built *Built     `json:"-"`
	Call  *eval.Call `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Params: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
