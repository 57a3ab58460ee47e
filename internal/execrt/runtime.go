package execrt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/roach88/weldgraph/internal/eval"
)

// ProgramFile is the name of the program file written for each module.
const ProgramFile = "program.weld"

// Runtime runs an external binary as the compiler/runtime.
type Runtime struct {
	// Path is the binary to execute.
	Path string

	// Args are prepended to every invocation, before the subcommand.
	Args []string

	// Env is appended to the inherited environment.
	Env []string

	// TempDir is the parent of per-module work directories. Empty means
	// os.TempDir().
	TempDir string

	// Logger receives debug output. Nil means slog.Default().
	Logger *slog.Logger
}

// ExitError carries the diagnostic of a failed invocation.
type ExitError struct {
	Stage    string // "compile" or "run"
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = e.Err.Error()
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Compile writes program to a fresh work directory and asks the binary to
// compile it. The returned module owns the directory until Close.
func (r *Runtime) Compile(ctx context.Context, program string, conf eval.Conf) (eval.Module, error) {
	if r.Path == "" {
		return nil, fmt.Errorf("execrt: no compiler binary configured: %w", eval.ErrRuntimeUnavailable)
	}
	dir, err := os.MkdirTemp(r.TempDir, "weldgraph-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create work directory: %w", eval.ErrRuntimeUnavailable, err)
	}
	file := filepath.Join(dir, ProgramFile)
	if err := os.WriteFile(file, []byte(program), 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: write program: %w", eval.ErrRuntimeUnavailable, err)
	}

	if _, err := r.invoke(ctx, "compile", conf, file, nil); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return &module{rt: r, dir: dir, file: file}, nil
}

func (r *Runtime) invoke(ctx context.Context, stage string, conf eval.Conf, file string, stdin []byte) ([]byte, error) {
	args := append([]string(nil), r.Args...)
	args = append(args, stage)
	for _, k := range conf.Keys() {
		args = append(args, "--conf", k+"="+conf[k])
	}
	args = append(args, file)

	cmd := exec.CommandContext(ctx, r.Path, args...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger().Debug("invoking runtime", "stage", stage, "path", r.Path, "args", args)
	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else if ctx.Err() == nil {
			// The binary never started.
			err = fmt.Errorf("%w: %w", eval.ErrRuntimeUnavailable, err)
		}
		return nil, &ExitError{Stage: stage, ExitCode: code, Stderr: stderr.String(), Err: err}
	}
	return stdout.Bytes(), nil
}

func (r *Runtime) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

type module struct {
	rt   *Runtime
	dir  string
	file string
}

func (m *module) Run(ctx context.Context, frame []byte, conf eval.Conf) (eval.Result, error) {
	if frame == nil {
		frame = []byte{}
	}
	out, err := m.rt.invoke(ctx, "run", conf, m.file, frame)
	if err != nil {
		return nil, err
	}
	return eval.BytesResult(out), nil
}

func (m *module) Close() error {
	return os.RemoveAll(m.dir)
}
