package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weldgraph/internal/eval"
	"github.com/roach88/weldgraph/internal/testutil"
)

type evalResponse struct {
	Status string     `json:"status"`
	Data   EvalResult `json:"data"`
}

func runEvalCommand(t *testing.T, rt eval.Runtime, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	opts := &EvalOptions{RootOptions: &RootOptions{Format: format}, Runtime: rt}
	cmd := newEvalCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func decodeEval(t *testing.T, out string) EvalResult {
	t.Helper()
	var resp evalResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestEvalCommand_Pass(t *testing.T) {
	rt := testutil.NewEchoRuntime()
	out, err := runEvalCommand(t, rt, "text", scenarioPath("answer"))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ answer = 42")
	assert.Contains(t, out, "1 scenarios: 1 passed, 0 failed")
	assert.Equal(t, 1, rt.Runs())
	assert.Equal(t, 1, rt.Closed())
}

func TestEvalCommand_JSON(t *testing.T) {
	rt := testutil.NewEchoRuntime()
	out, err := runEvalCommand(t, rt, "json", scenarioPath("answer"), scenarioPath("diamond"))
	require.NoError(t, err)

	result := decodeEval(t, out)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Passed)
	require.Len(t, result.Scenarios, 2)

	// Results keep argument order regardless of completion order.
	assert.Equal(t, "answer", result.Scenarios[0].Name)
	assert.Equal(t, "42", result.Scenarios[0].Value)
	assert.Equal(t, eval.StatusOK, result.Scenarios[0].Status)
	assert.Equal(t, "diamond", result.Scenarios[1].Name)
	assert.Len(t, result.Scenarios[1].Hash, 64)
}

func TestEvalCommand_Verbose(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
	}{
		{"verbose", true},
		{"quiet", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
			opts := &EvalOptions{
				RootOptions: &RootOptions{Format: "json", Verbose: tt.verbose},
				Runtime:     testutil.NewEchoRuntime(),
			}
			cmd := newEvalCommand(opts)
			cmd.SetOut(out)
			cmd.SetErr(errOut)
			cmd.SetArgs([]string{"--jobs", "2", scenarioPath("answer")})
			require.NoError(t, cmd.Execute())

			decodeEval(t, out.String())
			if !tt.verbose {
				assert.Empty(t, errOut.String())
				return
			}
			assert.Contains(t, errOut.String(), "loaded 1 scenarios (threads=1, passes=, decode=true, jobs=2)")
			assert.Contains(t, errOut.String(), "evaluated 1 scenarios: 1 passed, 0 failed")
		})
	}
}

func TestEvalCommand_SharedRegistry(t *testing.T) {
	rt := testutil.NewEchoRuntime()
	_, err := runEvalCommand(t, rt, "json", "--jobs", "1", scenarioPath("answer"), scenarioPath("answer"))
	require.NoError(t, err)

	compiled := rt.Compiled()
	require.Len(t, compiled, 2)
	// The second build registers an equal literal and reuses its name, but
	// gets a fresh node identity.
	assert.Equal(t, "|_inp0: i64| let obj100 = (_inp0);\nobj100", compiled[0])
	assert.Equal(t, "|_inp0: i64| let obj101 = (_inp0);\nobj101", compiled[1])
}

func TestEvalCommand_AssertionFailure(t *testing.T) {
	out, err := runEvalCommand(t, testutil.NewEchoRuntime(), "text", scenarioPath("wrong_answer"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 of 1 scenarios failed")
	assert.Contains(t, out, "✗ wrong_answer [ok]")
	assert.Contains(t, out, "Expected: 42")
	assert.Contains(t, out, "Actual: 41")
}

func TestEvalCommand_CompileError(t *testing.T) {
	rt := testutil.NewEchoRuntime()
	rt.FailCompileOn = "obj100"

	out, err := runEvalCommand(t, rt, "json", scenarioPath("answer"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	result := decodeEval(t, out)
	require.Len(t, result.Scenarios, 1)
	sc := result.Scenarios[0]
	assert.False(t, sc.Pass)
	assert.Equal(t, eval.StatusCompileError, sc.Status)
	assert.Equal(t, CodeCompile, sc.Code)
	require.Len(t, sc.Errors, 1)
	assert.Contains(t, sc.Errors[0], "could not compile program: syntax error")
	assert.Equal(t, 0, rt.Runs())
}

func TestEvalCommand_RuntimeError(t *testing.T) {
	rt := testutil.NewEchoRuntime()
	rt.FailRunOn = "_inp0"

	out, err := runEvalCommand(t, rt, "json", scenarioPath("answer"))
	require.Error(t, err)

	sc := decodeEval(t, out).Scenarios[0]
	assert.Equal(t, eval.StatusRuntimeError, sc.Status)
	assert.Equal(t, CodeRuntime, sc.Code)
	assert.Contains(t, sc.Errors[0], "error while running program: runtime error: _inp0")
}

func TestEvalCommand_BuildErrorIsScenarioFailure(t *testing.T) {
	out, err := runEvalCommand(t, testutil.NewEchoRuntime(), "json", scenarioPath("broken"), scenarioPath("answer"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	result := decodeEval(t, out)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, eval.StatusError, result.Scenarios[0].Status)
	assert.Contains(t, result.Scenarios[0].Errors[0], "unknown reference ${missing}")
}

func TestEvalCommand_FlagOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "weld.cue")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`weld: {
	threads: 2
	passes: ["inline-let", "loop-fusion"]
}
`), 0o644))

	tests := []struct {
		name        string
		args        []string
		wantThreads string
		wantPasses  string
	}{
		{"config file", []string{"--config", cfgPath}, "2", "inline-let,loop-fusion"},
		{"threads flag wins", []string{"--config", cfgPath, "--threads", "8"}, "8", "inline-let,loop-fusion"},
		{"passes flag wins", []string{"--config", cfgPath, "--passes", "vectorize"}, "2", "vectorize"},
		{"defaults", nil, "1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := testutil.NewEchoRuntime()
			args := append(tt.args, scenarioPath("answer"))
			_, err := runEvalCommand(t, rt, "json", args...)
			require.NoError(t, err)

			confs := rt.Confs()
			require.Len(t, confs, 2)
			compileConf, runConf := confs[0], confs[1]
			assert.Equal(t, tt.wantPasses, compileConf[eval.ConfPasses])
			assert.Equal(t, tt.wantThreads, runConf[eval.ConfThreads])
		})
	}
}

func TestEvalCommand_Raw(t *testing.T) {
	out, err := runEvalCommand(t, testutil.NewEchoRuntime(), "json", "--raw", scenarioPath("answer"))
	require.NoError(t, err)
	assert.Equal(t, "42", decodeEval(t, out).Scenarios[0].Value)
}

func TestEvalCommand_CommandErrors(t *testing.T) {
	dir := t.TempDir()
	badCfg := filepath.Join(dir, "bad.cue")
	require.NoError(t, os.WriteFile(badCfg, []byte("weld: threads: 0\n"), 0o644))

	tests := []struct {
		name    string
		rt      eval.Runtime
		args    []string
		wantErr string
	}{
		{"no compiler", nil, []string{scenarioPath("answer")}, "--compiler is required"},
		{"zero threads", testutil.NewEchoRuntime(), []string{"--threads", "0", scenarioPath("answer")}, "threads must be >= 1"},
		{"invalid config", testutil.NewEchoRuntime(), []string{"--config", badCfg, scenarioPath("answer")}, "invalid configuration"},
		{"missing scenario", testutil.NewEchoRuntime(), []string{"testdata/scenarios/nope.yaml"}, "failed to load scenario"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runEvalCommand(t, tt.rt, "text", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
