package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"

	"github.com/roach88/weldgraph/internal/codec"
	"github.com/roach88/weldgraph/internal/eval"
	"github.com/roach88/weldgraph/internal/graph"
	"github.com/roach88/weldgraph/internal/ir"
)

// placeholder matches ${name} references in node code.
var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Harness builds and runs scenarios.
//
// Without a runtime the harness only assembles programs; "result"
// assertions then fail.
type Harness struct {
	builder   *graph.Builder
	runtime   eval.Runtime
	config    eval.Config
	evalOpts  []eval.Option
	evaluator *eval.Evaluator
	logger    *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithBuilder shares a builder (and its registry and clock) across runs.
func WithBuilder(b *graph.Builder) Option {
	return func(h *Harness) { h.builder = b }
}

// WithRuntime evaluates scenarios on rt with cfg.
func WithRuntime(rt eval.Runtime, cfg eval.Config) Option {
	return func(h *Harness) {
		h.runtime = rt
		h.config = cfg
	}
}

// WithEvalOptions passes options to the underlying evaluator.
func WithEvalOptions(opts ...eval.Option) Option {
	return func(h *Harness) { h.evalOpts = append(h.evalOpts, opts...) }
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// New creates a Harness. Each Harness without WithBuilder gets a fresh
// registry and clock, so identical scenarios produce identical programs.
func New(opts ...Option) *Harness {
	h := &Harness{
		config: eval.DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.builder == nil {
		h.builder = graph.NewBuilder(graph.NewRegistry())
	}
	evalOpts := append([]eval.Option{eval.WithLogger(h.logger)}, h.evalOpts...)
	h.evaluator = eval.New(codec.Binary{}, codec.Binary{}, h.runtime, evalOpts...)
	return h
}

// Run executes a scenario on a fresh harness with default options.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run builds the scenario graph, assembles the program, evaluates it when a
// runtime is configured, and checks the assertions.
//
// Errors from building, flattening or evaluating are returned as errors;
// failed assertions are reported in the Result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result, err := h.Flatten(scenario)
	if err != nil {
		return nil, err
	}

	if h.runtime != nil {
		v, err := h.evaluator.Evaluate(ctx, result.Built.Target, result.Built.ResultType, h.config)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		result.Value = v
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// Flatten builds the scenario and assembles its program without evaluating
// it or checking assertions.
func (h *Harness) Flatten(scenario *Scenario) (*Result, error) {
	built, err := h.Build(scenario)
	if err != nil {
		return nil, err
	}

	call, err := h.evaluator.Prepare(built.Target)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	result.Built = built
	result.Call = call
	result.Program = call.Text
	for _, a := range call.Args {
		result.Params = append(result.Params, a.Name+": "+a.Type.String())
	}

	h.logger.Debug("scenario built",
		"scenario", scenario.Name,
		"bindings", len(call.Program.Bindings),
		"params", len(call.Args),
		"program_hash", call.Hash,
	)
	return result, nil
}

// Build constructs the scenario's nodes in order.
func (h *Harness) Build(scenario *Scenario) (*Built, error) {
	resultType, err := ir.ParseType(scenario.ResultType)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: result_type: %w", scenario.Name, err)
	}

	built := &Built{
		Nodes:      make(map[string]*graph.Node, len(scenario.Nodes)),
		Literals:   make(map[string]string),
		ResultType: resultType,
	}
	for i, step := range scenario.Nodes {
		n, err := h.buildNode(step, built)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: nodes[%d] %s: %w", scenario.Name, i, step.Name, err)
		}
		built.Nodes[step.Name] = n
	}

	target, ok := built.Nodes[scenario.Target]
	if !ok {
		return nil, fmt.Errorf("scenario %s: target %q is not a node", scenario.Name, scenario.Target)
	}
	built.Target = target
	return built, nil
}

// buildNode resolves placeholders in order of first appearance, so literal
// names are assigned in reading order. Unreferenced literals follow in key
// order, then extra deps.
func (h *Harness) buildNode(step NodeStep, built *Built) (*graph.Node, error) {
	d := h.builder.Draft()
	resolved := make(map[string]string)

	resolve := func(ref string) (string, error) {
		if name, ok := resolved[ref]; ok {
			return name, nil
		}
		if lit, ok := step.Literals[ref]; ok {
			name, err := registerLiteral(d, lit)
			if err != nil {
				return "", fmt.Errorf("literal %q: %w", ref, err)
			}
			resolved[ref] = name
			built.Literals[step.Name+"."+ref] = name
			return name, nil
		}
		if dep, ok := built.Nodes[ref]; ok {
			id := d.Depend(ref, dep)
			resolved[ref] = id
			return id, nil
		}
		return "", fmt.Errorf("unknown reference ${%s}", ref)
	}

	var firstErr error
	code := placeholder.ReplaceAllStringFunc(step.Code, func(m string) string {
		ref := placeholder.FindStringSubmatch(m)[1]
		name, err := resolve(ref)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return name
	})
	if firstErr != nil {
		return nil, firstErr
	}

	keys := make([]string, 0, len(step.Literals))
	for k := range step.Literals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := resolve(k); err != nil {
			return nil, err
		}
	}
	for _, dep := range step.Deps {
		if _, ok := built.Nodes[dep]; !ok {
			return nil, fmt.Errorf("unknown dependency %q", dep)
		}
		if _, err := resolve(dep); err != nil {
			return nil, err
		}
	}

	return d.Finish(code), nil
}

func registerLiteral(d *graph.Draft, lit Literal) (string, error) {
	t, err := ir.ParseType(lit.Type)
	if err != nil {
		return "", err
	}
	v, err := ir.FromAny(t, lit.Value)
	if err != nil {
		return "", err
	}
	if lit.Explicit {
		return d.RegisterTyped(v, t)
	}
	return d.Register(v)
}
