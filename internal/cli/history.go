package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/weldgraph/internal/eval"
	"github.com/roach88/weldgraph/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// HistoryEntry is one recorded evaluation.
type HistoryEntry struct {
	ID          string        `json:"id"`
	StartedAt   time.Time     `json:"started_at"`
	Status      eval.Status   `json:"status"`
	ProgramHash string        `json:"program_hash"`
	Args        int           `json:"args"`
	Bindings    int           `json:"bindings"`
	FrameBytes  int           `json:"frame_bytes"`
	FrameHash   string        `json:"frame_hash"`
	Total       time.Duration `json:"total_ns"`
	Diagnostic  string        `json:"diagnostic,omitempty"`
}

// HistoryResult is the history command output.
type HistoryResult struct {
	Evaluations []HistoryEntry      `json:"evaluations"`
	Counts      map[eval.Status]int `json:"counts"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded evaluations",
		Long: `List evaluations recorded by "weldgraph eval --db", newest first.

Examples:
  weldgraph history --db history.db
  weldgraph history --db history.db --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of evaluations (0 for all)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = out.Error(CodeStore, err.Error(), map[string]string{"db": opts.Database})
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := loadHistory(ctx, st, opts.Limit)
	if err != nil {
		_ = out.Error(CodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}

	if opts.Format == "json" {
		return out.Success(result)
	}
	return writeHistoryText(cmd, result)
}

func loadHistory(ctx context.Context, st *store.Store, limit int) (HistoryResult, error) {
	records, err := st.ListEvaluations(ctx, limit)
	if err != nil {
		return HistoryResult{}, err
	}
	counts, err := st.CountByStatus(ctx)
	if err != nil {
		return HistoryResult{}, err
	}

	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, HistoryEntry{
			ID:          rec.ID,
			StartedAt:   rec.StartedAt,
			Status:      rec.Status,
			ProgramHash: rec.ProgramHash,
			Args:        rec.Args,
			Bindings:    rec.Bindings,
			FrameBytes:  rec.FrameBytes,
			FrameHash:   rec.FrameHash,
			Total:       rec.Timings.Total(),
			Diagnostic:  rec.Diagnostic,
		})
	}
	return HistoryResult{Evaluations: entries, Counts: counts}, nil
}

func writeHistoryText(cmd *cobra.Command, result HistoryResult) error {
	w := cmd.OutOrStdout()
	if len(result.Evaluations) == 0 {
		fmt.Fprintln(w, "No evaluations recorded.")
		return nil
	}

	p := printer()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tPROGRAM\tARGS\tFRAME\tTOTAL")
	for _, e := range result.Evaluations {
		fmt.Fprintln(tw, p.Sprintf("%s\t%s\t%s\t%d\t%d B\t%s",
			e.StartedAt.Format(time.RFC3339),
			e.Status,
			shortHash(e.ProgramHash),
			e.Args,
			e.FrameBytes,
			e.Total,
		))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	for _, s := range []eval.Status{eval.StatusOK, eval.StatusCompileError, eval.StatusRuntimeError, eval.StatusError} {
		if n := result.Counts[s]; n > 0 {
			fmt.Fprintln(w, p.Sprintf("%s: %d", s, n))
		}
	}
	return nil
}

// printer formats numbers with thousands separators.
func printer() *message.Printer {
	return message.NewPrinter(language.English)
}
