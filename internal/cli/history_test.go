package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weldgraph/internal/eval"
	"github.com/roach88/weldgraph/internal/testutil"
)

func runHistoryCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// seedHistory records one passing and one failing evaluation.
func seedHistory(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "history.db")

	_, err := runEvalCommand(t, testutil.NewEchoRuntime(), "json", "--db", db, scenarioPath("answer"))
	require.NoError(t, err)

	failing := testutil.NewEchoRuntime()
	failing.FailCompileOn = "obj100"
	_, err = runEvalCommand(t, failing, "json", "--db", db, scenarioPath("diamond"))
	require.Error(t, err)

	return db
}

func TestHistoryCommand_JSON(t *testing.T) {
	db := seedHistory(t)

	out, err := runHistoryCommand(t, "json", "--db", db)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	evals := resp.Data.Evaluations
	require.Len(t, evals, 2)

	// Newest first.
	assert.Equal(t, eval.StatusCompileError, evals[0].Status)
	assert.Contains(t, evals[0].Diagnostic, "syntax error")
	assert.Equal(t, 3, evals[0].Bindings)

	assert.Equal(t, eval.StatusOK, evals[1].Status)
	assert.Equal(t, 1, evals[1].Args)
	assert.Equal(t, 8, evals[1].FrameBytes)
	assert.Len(t, evals[1].ProgramHash, 64)
	assert.Len(t, evals[1].FrameHash, 64)

	assert.Equal(t, map[eval.Status]int{
		eval.StatusOK:           1,
		eval.StatusCompileError: 1,
	}, resp.Data.Counts)
}

func TestHistoryCommand_Limit(t *testing.T) {
	db := seedHistory(t)

	out, err := runHistoryCommand(t, "json", "--db", db, "--limit", "1")
	require.NoError(t, err)

	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Evaluations, 1)
	assert.Equal(t, eval.StatusCompileError, resp.Data.Evaluations[0].Status)
}

func TestHistoryCommand_Text(t *testing.T) {
	db := seedHistory(t)

	out, err := runHistoryCommand(t, "text", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "compile_error")
	assert.Contains(t, out, "8 B")
	assert.Contains(t, out, "ok: 1")
	assert.Contains(t, out, "compile_error: 1")
}

func TestHistoryCommand_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	out, err := runHistoryCommand(t, "text", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No evaluations recorded.")
}

func TestHistoryCommand_RequiresDB(t *testing.T) {
	_, err := runHistoryCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}
