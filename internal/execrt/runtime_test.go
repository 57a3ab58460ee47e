package execrt

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weldgraph/internal/codec"
	"github.com/roach88/weldgraph/internal/eval"
	"github.com/roach88/weldgraph/internal/graph"
	"github.com/roach88/weldgraph/internal/ir"
)

// TestHelperProcess plays the external runtime binary. It runs only when
// WELDGRAPH_HELPER_PROCESS=1 is set.
//
//	compile: fails if the program contains "@@"
//	run:     fails if the program contains "boom", reports "len" programs
//	         as the frame length, otherwise echoes stdin
func TestHelperProcess(t *testing.T) {
	if os.Getenv("WELDGRAPH_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	i := 0
	for i < len(args) && args[i] != "--" {
		i++
	}
	if i+2 >= len(args) {
		fmt.Fprint(os.Stderr, "usage: helper <compile|run> [--conf k=v] <file>")
		os.Exit(2)
	}
	stage, rest := args[i+1], args[i+2:]
	file := rest[len(rest)-1]
	for j := 0; j < len(rest)-1; j += 2 {
		if rest[j] != "--conf" || !strings.Contains(rest[j+1], "=") {
			fmt.Fprintf(os.Stderr, "bad flag %q", rest[j])
			os.Exit(2)
		}
		if rest[j+1] == eval.ConfThreads+"=0" {
			fmt.Fprint(os.Stderr, "invalid thread count")
			os.Exit(3)
		}
	}
	program, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprint(os.Stderr, err)
		os.Exit(2)
	}

	switch stage {
	case "compile":
		if strings.Contains(string(program), "@@") {
			fmt.Fprint(os.Stderr, "parse error: unexpected token '@@'")
			os.Exit(1)
		}
	case "run":
		frame, _ := io.ReadAll(os.Stdin)
		switch {
		case strings.Contains(string(program), "boom"):
			fmt.Fprint(os.Stderr, "runtime error: index out of bounds")
			os.Exit(1)
		case strings.Contains(string(program), "len"):
			_, _ = os.Stdout.Write(binary.LittleEndian.AppendUint64(nil, uint64(len(frame))))
		default:
			_, _ = os.Stdout.Write(frame)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown stage %q", stage)
		os.Exit(2)
	}
	os.Exit(0)
}

func helperRuntime(t *testing.T) *Runtime {
	t.Helper()
	return &Runtime{
		Path:    os.Args[0],
		Args:    []string{"-test.run=TestHelperProcess", "--"},
		Env:     []string{"WELDGRAPH_HELPER_PROCESS=1"},
		TempDir: t.TempDir(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRuntime_CompileAndRun(t *testing.T) {
	rt := helperRuntime(t)
	ctx := context.Background()

	mod, err := rt.Compile(ctx, "|x: i64| x", eval.Conf{eval.ConfPasses: "inline-let"})
	require.NoError(t, err)

	res, err := mod.Run(ctx, []byte{1, 2, 3}, eval.Conf{eval.ConfThreads: "2"})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, res.Data())

	dir := mod.(*module).dir
	assert.FileExists(t, dir+"/"+ProgramFile)
	require.NoError(t, mod.Close())
	assert.NoDirExists(t, dir)
}

func TestRuntime_CompileDiagnostic(t *testing.T) {
	rt := helperRuntime(t)

	_, err := rt.Compile(context.Background(), "|| 1 @@ 2", nil)
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "compile", exitErr.Stage)
	assert.Equal(t, 1, exitErr.ExitCode)
	assert.Equal(t, "parse error: unexpected token '@@'", err.Error())

	entries, err := os.ReadDir(rt.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "work directory removed after a failed compile")
}

func TestRuntime_RunDiagnostic(t *testing.T) {
	rt := helperRuntime(t)
	ctx := context.Background()

	mod, err := rt.Compile(ctx, "|| boom", nil)
	require.NoError(t, err)
	defer mod.Close()

	_, err = mod.Run(ctx, nil, eval.Conf{eval.ConfThreads: "0"})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode)
	assert.Equal(t, "invalid thread count", err.Error())

	_, err = mod.Run(ctx, nil, eval.Conf{eval.ConfThreads: "1"})
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "run", exitErr.Stage)
	assert.Equal(t, "runtime error: index out of bounds", err.Error())
}

func TestRuntime_NoBinary(t *testing.T) {
	_, err := (&Runtime{}).Compile(context.Background(), "||0L", nil)
	assert.ErrorContains(t, err, "no compiler binary")
	assert.ErrorIs(t, err, eval.ErrRuntimeUnavailable)

	_, err = (&Runtime{Path: "/nonexistent/weld", TempDir: t.TempDir()}).Compile(context.Background(), "||0L", nil)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, -1, exitErr.ExitCode)
	assert.ErrorIs(t, err, eval.ErrRuntimeUnavailable)
}

func TestRuntime_UnavailableIsNotDiagnostic(t *testing.T) {
	missingDir := t.TempDir() + "/gone/deeper"

	tests := []struct {
		name string
		rt   *Runtime
	}{
		{"no path", &Runtime{}},
		{"missing binary", &Runtime{Path: "/nonexistent/weld", TempDir: t.TempDir()}},
		{"missing temp dir", &Runtime{Path: os.Args[0], TempDir: missingDir}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rt.Compile(context.Background(), "||0L", nil)
			require.ErrorIs(t, err, eval.ErrRuntimeUnavailable)

			e := eval.New(codec.Binary{}, codec.Binary{}, tt.rt,
				eval.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
			n := graph.NewBuilder(graph.NewRegistry()).Draft().Finish("0L")
			_, err = e.Evaluate(context.Background(), n, ir.TI64, eval.DefaultConfig())
			require.Error(t, err)
			assert.False(t, eval.IsCompileError(err))
			assert.ErrorIs(t, err, eval.ErrRuntimeUnavailable)
			assert.Equal(t, eval.StatusError, eval.StatusOf(err))
		})
	}
}

func TestRuntime_DiagnosticIsNotUnavailable(t *testing.T) {
	_, err := helperRuntime(t).Compile(context.Background(), "|| 1 @@ 2", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, eval.ErrRuntimeUnavailable)
}

func TestEvaluator_EndToEnd(t *testing.T) {
	values := []ir.Value{
		ir.I64(-7),
		ir.Float64s(0.1, 0.2, 0.3),
		ir.NewStruct(ir.I64(1), ir.Str("nested"), ir.NewStruct(ir.Bool(false), ir.Int64s(9, 8))),
	}
	for _, v := range values {
		t.Run(v.Type().String(), func(t *testing.T) {
			e := eval.New(codec.Binary{}, codec.Binary{}, helperRuntime(t),
				eval.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
			n, err := graph.NewBuilder(graph.NewRegistry()).Literal(v)
			require.NoError(t, err)

			got, err := e.Evaluate(context.Background(), n, v.Type(), eval.DefaultConfig())
			require.NoError(t, err)
			assert.True(t, ir.Equal(v, got))
		})
	}
}

func TestEvaluator_EndToEndErrors(t *testing.T) {
	e := eval.New(codec.Binary{}, codec.Binary{}, helperRuntime(t),
		eval.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	b := graph.NewBuilder(graph.NewRegistry())
	ctx := context.Background()

	_, err := e.Evaluate(ctx, b.Draft().Finish("1L @@"), ir.TI64, eval.DefaultConfig())
	var ce *eval.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "parse error: unexpected token '@@'", ce.Diagnostic)
	assert.Equal(t, "|| let obj100 = (1L @@);\nobj100", ce.Program)

	_, err = e.Evaluate(ctx, b.Draft().Finish("boom"), ir.TI64, eval.DefaultConfig())
	var re *eval.RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "runtime error: index out of bounds", re.Diagnostic)

	d := b.Draft()
	xs, err := d.Register(ir.Int64s(1, 2, 3))
	require.NoError(t, err)
	cfg := eval.DefaultConfig()
	cfg.Decode = false
	got, err := e.Evaluate(ctx, d.Finish("len("+xs+")"), nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, ir.I64(32), got, "frame is an 8-byte count plus three i64")
}
