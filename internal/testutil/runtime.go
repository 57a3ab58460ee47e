package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/roach88/weldgraph/internal/eval"
)

// EchoRuntime is an in-memory eval.Runtime for tests.
//
// Compiled programs return their call frame unchanged, which makes every
// single-argument identity program a round trip through the codec.
//
//   - Programs containing FailCompileOn are rejected with a syntax diagnostic.
//   - Programs containing FailRunOn compile but fail when run.
//   - A non-nil Result replaces the echoed frame.
//
// Every call is recorded for assertions.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type EchoRuntime struct {
	FailCompileOn string
	FailRunOn     string
	Result        []byte

	mu       sync.Mutex
	compiled []string
	frames   [][]byte
	confs    []eval.Conf
	closed   int
}

// NewEchoRuntime creates an EchoRuntime that echoes every frame.
func NewEchoRuntime() *EchoRuntime {
	return &EchoRuntime{}
}

// Compile records the program and returns an echo module.
func (r *EchoRuntime) Compile(ctx context.Context, program string, conf eval.Conf) (eval.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.compiled = append(r.compiled, program)
	r.confs = append(r.confs, conf)
	r.mu.Unlock()

	if r.FailCompileOn != "" && strings.Contains(program, r.FailCompileOn) {
		return nil, errors.New("syntax error: unexpected token near " + r.FailCompileOn)
	}
	return &echoModule{rt: r, program: program}, nil
}

// Compiled returns the programs handed to Compile, in call order.
func (r *EchoRuntime) Compiled() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.compiled...)
}

// Frames returns the call frames handed to Run, in call order.
func (r *EchoRuntime) Frames() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.frames...)
}

// Confs returns every configuration seen, compile and run interleaved in
// call order.
func (r *EchoRuntime) Confs() []eval.Conf {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]eval.Conf(nil), r.confs...)
}

// Runs returns how many times Run was called.
func (r *EchoRuntime) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Closed returns how many modules were closed.
func (r *EchoRuntime) Closed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

type echoModule struct {
	rt      *EchoRuntime
	program string
}

func (m *echoModule) Run(ctx context.Context, frame []byte, conf eval.Conf) (eval.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := m.rt
	r.mu.Lock()
	r.frames = append(r.frames, append([]byte(nil), frame...))
	r.confs = append(r.confs, conf)
	r.mu.Unlock()

	if r.FailRunOn != "" && strings.Contains(m.program, r.FailRunOn) {
		return nil, errors.New("runtime error: " + r.FailRunOn)
	}
	if r.Result != nil {
		return eval.BytesResult(r.Result), nil
	}
	return eval.BytesResult(append([]byte(nil), frame...)), nil
}

func (m *echoModule) Close() error {
	m.rt.mu.Lock()
	defer m.rt.mu.Unlock()
	m.rt.closed++
	return nil
}
