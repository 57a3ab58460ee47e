package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/weldgraph/internal/config"
	"github.com/roach88/weldgraph/internal/eval"
	"github.com/roach88/weldgraph/internal/execrt"
	"github.com/roach88/weldgraph/internal/graph"
	"github.com/roach88/weldgraph/internal/harness"
	"github.com/roach88/weldgraph/internal/ir"
	"github.com/roach88/weldgraph/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Compiler   string
	ConfigFile string
	Threads    int
	Passes     []string
	Database   string
	Raw        bool
	Jobs       int

	// Runtime overrides the external compiler (for testing).
	// If nil, an execrt.Runtime running Compiler is used.
	Runtime eval.Runtime
}

// ScenarioResult holds the result of a single scenario evaluation.
type ScenarioResult struct {
	Name   string      `json:"name"`
	Pass   bool        `json:"pass"`
	Status eval.Status `json:"status"`
	Code   string      `json:"code,omitempty"`
	Hash   string      `json:"hash,omitempty"`
	Value  string      `json:"value,omitempty"`
	Errors []string    `json:"errors,omitempty"`
}

// EvalResult holds the overall eval result.
type EvalResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}
	return newEvalCommand(opts)
}

func newEvalCommand(opts *EvalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <scenario.yaml>...",
		Short: "Evaluate scenarios on an external Weld runtime",
		Long: `Build each scenario, compile its program with the external compiler,
run it against the encoded literal inputs and check its assertions.

Scenarios run concurrently over one shared registry, so equal literals
across scenarios share a name.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (bad scenario, config or database)

Examples:
  weldgraph eval --compiler weld ./scenarios/*.yaml
  weldgraph eval --compiler weld --config weld.cue --threads 4 ./scenarios/sum.yaml
  weldgraph eval --compiler weld --db history.db --raw ./scenarios/count.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Compiler, "compiler", "", "path to the Weld compiler/runtime binary")
	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "CUE configuration file")
	cmd.Flags().IntVar(&opts.Threads, "threads", 1, "runtime worker threads (overrides config)")
	cmd.Flags().StringSliceVar(&opts.Passes, "passes", nil, "optimization passes (overrides config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record evaluations in this SQLite database")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "read the result as a raw i64 instead of decoding it")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 4, "scenarios evaluated concurrently")

	return cmd
}

func runEval(opts *EvalOptions, paths []string, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := evalConfig(opts, cmd)
	if err != nil {
		_ = out.Error(CodeLoad, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	rt := opts.Runtime
	if rt == nil {
		if opts.Compiler == "" {
			return NewExitError(ExitCommandError, "--compiler is required")
		}
		rt = &execrt.Runtime{Path: opts.Compiler, Logger: logger}
	}

	scenarios := make([]*harness.Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := harness.LoadScenario(path)
		if err != nil {
			_ = out.Error(CodeLoad, err.Error(), map[string]string{"path": path})
			return WrapExitError(ExitCommandError, "failed to load scenario", err)
		}
		scenarios = append(scenarios, s)
	}
	out.VerboseLog("loaded %d scenarios (threads=%d, passes=%s, decode=%t, jobs=%d)",
		len(scenarios), cfg.Threads, strings.Join(cfg.Passes, ","), cfg.Decode, opts.Jobs)

	evalOpts := []eval.Option{}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			_ = out.Error(CodeStore, err.Error(), map[string]string{"db": opts.Database})
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		evalOpts = append(evalOpts, eval.WithRecorder(st))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	builder := graph.NewBuilder(graph.NewRegistry())
	results := evalScenarios(ctx, scenarios, opts.Jobs, func(ctx context.Context, s *harness.Scenario) (*harness.Result, error) {
		h := harness.New(
			harness.WithBuilder(builder),
			harness.WithRuntime(rt, cfg),
			harness.WithLogger(logger),
			harness.WithEvalOptions(evalOpts...),
		)
		return h.Run(ctx, s)
	}, logger)

	summary := EvalResult{Scenarios: results, Total: len(results)}
	for _, r := range results {
		if r.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	out.VerboseLog("evaluated %d scenarios: %d passed, %d failed", summary.Total, summary.Passed, summary.Failed)

	if opts.Format == "json" {
		if err := out.Success(summary); err != nil {
			return err
		}
	} else {
		writeEvalText(cmd, summary)
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", summary.Failed, summary.Total))
	}
	return nil
}

// evalConfig loads the config file, if any, and applies flag overrides.
func evalConfig(opts *EvalOptions, cmd *cobra.Command) (eval.Config, error) {
	cfg := config.Default()
	if opts.ConfigFile != "" {
		loaded, err := config.Load(opts.ConfigFile)
		if err != nil {
			return eval.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("threads") {
		cfg.Threads = opts.Threads
	}
	if flags.Changed("passes") {
		cfg.Passes = opts.Passes
	}
	if opts.Raw {
		cfg.Decode = false
	}
	if err := cfg.Validate(); err != nil {
		return eval.Config{}, err
	}
	return cfg, nil
}

// evalScenarios runs each scenario at most jobs at a time. Results keep
// the order of scenarios.
func evalScenarios(
	ctx context.Context,
	scenarios []*harness.Scenario,
	jobs int,
	run func(context.Context, *harness.Scenario) (*harness.Result, error),
	logger *slog.Logger,
) []ScenarioResult {
	results := make([]ScenarioResult, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, s := range scenarios {
		g.Go(func() error {
			res, err := run(gctx, s)
			results[i] = scenarioResult(s, res, err)
			logger.Debug("scenario evaluated", "scenario", s.Name, "status", results[i].Status)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func scenarioResult(s *harness.Scenario, res *harness.Result, err error) ScenarioResult {
	if err != nil {
		return ScenarioResult{
			Name:   s.Name,
			Status: eval.StatusOf(err),
			Code:   ErrorCode(err),
			Errors: []string{err.Error()},
		}
	}
	r := ScenarioResult{
		Name:   s.Name,
		Pass:   res.Pass,
		Status: eval.StatusOK,
		Hash:   res.Call.Hash,
		Errors: res.Errors,
	}
	if res.Value != nil {
		r.Value = ir.Format(res.Value)
	}
	return r
}

func writeEvalText(cmd *cobra.Command, summary EvalResult) {
	w := cmd.OutOrStdout()
	for _, r := range summary.Scenarios {
		if r.Pass {
			fmt.Fprintf(w, "✓ %s = %s\n", r.Name, r.Value)
			continue
		}
		fmt.Fprintf(w, "✗ %s [%s]\n", r.Name, r.Status)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(e, "\n", "\n  "))
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, printer().Sprintf("%d scenarios: %d passed, %d failed", summary.Total, summary.Passed, summary.Failed))
}
