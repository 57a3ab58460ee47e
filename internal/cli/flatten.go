package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/weldgraph/internal/harness"
)

// FlattenResult is the flattened program of one scenario.
type FlattenResult struct {
	Name     string   `json:"name"`
	Hash     string   `json:"hash"`
	Params   []string `json:"params"`
	Bindings []string `json:"bindings"`
	Program  string   `json:"program"`
}

// NewFlattenCommand creates the flatten command.
func NewFlattenCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flatten <scenario.yaml>...",
		Short: "Print the program a scenario assembles",
		Long: `Build each scenario's expression graph and print the flattened
program text without evaluating it.

Every scenario is built on a fresh registry, so node identities start
at obj100 and literal names at _inp0.

Examples:
  weldgraph flatten ./scenarios/diamond.yaml
  weldgraph flatten --format json ./scenarios/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlatten(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runFlatten(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	out := formatter(opts, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	results := make([]FlattenResult, 0, len(paths))
	for _, path := range paths {
		s, err := harness.LoadScenario(path)
		if err != nil {
			_ = out.Error(CodeLoad, err.Error(), map[string]string{"path": path})
			return WrapExitError(ExitCommandError, "failed to load scenario", err)
		}

		res, err := harness.New(harness.WithLogger(logger)).Flatten(s)
		if err != nil {
			_ = out.Error(CodeBuild, err.Error(), map[string]string{"scenario": s.Name})
			return WrapExitError(ExitCommandError, "failed to flatten scenario", err)
		}

		bindings := make([]string, 0, len(res.Call.Program.Bindings))
		for _, b := range res.Call.Program.Bindings {
			bindings = append(bindings, b.Name)
		}
		out.VerboseLog("flattened %s: %d bindings, %d params", s.Name, len(bindings), len(res.Params))
		results = append(results, FlattenResult{
			Name:     s.Name,
			Hash:     res.Call.Hash,
			Params:   res.Params,
			Bindings: bindings,
			Program:  res.Program,
		})
	}

	if opts.Format == "json" {
		return out.Success(results)
	}

	w := cmd.OutOrStdout()
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "# %s (%s)\n", r.Name, shortHash(r.Hash))
		fmt.Fprintln(w, strings.TrimRight(r.Program, "\n"))
	}
	return nil
}

// shortHash abbreviates a program hash for text output.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
