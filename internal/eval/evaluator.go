package eval

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/weldgraph/internal/graph"
	"github.com/roach88/weldgraph/internal/ir"
	"github.com/roach88/weldgraph/internal/program"
)

const tracerName = "github.com/roach88/weldgraph/internal/eval"

// Evaluator compiles and runs expression graphs through an external runtime.
// It holds no per-evaluation state and is safe for concurrent use when its
// collaborators are.
type Evaluator struct {
	enc      Encoder
	dec      Decoder
	rt       Runtime
	recorder Recorder
	tracer   trace.Tracer
	meter    metric.Meter
	metrics  instruments
	logger   *slog.Logger
	ids      IDGenerator
	now      func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRecorder persists a Record for every evaluation that reached the
// compile step.
func WithRecorder(r Recorder) Option {
	return func(e *Evaluator) { e.recorder = r }
}

// WithTracer sets the tracer. Defaults to the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Evaluator) { e.tracer = t }
}

// WithMeter sets the meter for evaluation metrics. Defaults to the global
// otel provider.
func WithMeter(m metric.Meter) Option {
	return func(e *Evaluator) { e.meter = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// WithIDGenerator sets the record ID generator. Defaults to UUIDv7.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Evaluator) { e.ids = g }
}

// WithNow sets the wall clock used for Record.StartedAt.
func WithNow(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// New creates an Evaluator. dec may be nil if every evaluation sets
// Config.Decode to false.
func New(enc Encoder, dec Decoder, rt Runtime, opts ...Option) *Evaluator {
	e := &Evaluator{
		enc:    enc,
		dec:    dec,
		rt:     rt,
		tracer: otel.Tracer(tracerName),
		meter:  otel.Meter(tracerName),
		logger: slog.Default(),
		ids:    UUIDv7Generator{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.metrics = newInstruments(e.meter)
	return e
}

// Prepare flattens target and assembles its header, program text and call
// frame without compiling anything.
func (e *Evaluator) Prepare(target *graph.Node) (*Call, error) {
	p, err := program.Flatten(target)
	if err != nil {
		return nil, err
	}
	return assemble(p, e.enc)
}

// Evaluate compiles and runs the program rooted at target and returns its
// result decoded as resultType.
//
// With cfg.Decode false the Decoder is not called and the result is the
// little-endian int64 at the start of the result buffer; resultType may then
// be nil.
//
// Errors:
//   - cycle, duplicate identity or type conflict from flattening
//   - *ArgumentError when a literal cannot be encoded
//   - *CompileError when compilation fails; Run is never attempted
//   - *RuntimeError when execution fails
//   - ErrRuntimeUnavailable, or the context's error, when the runtime
//     itself could not do its job
func (e *Evaluator) Evaluate(ctx context.Context, target *graph.Node, resultType ir.Type, cfg Config) (ir.Value, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Decode && resultType == nil {
		return nil, errors.New("result type is required when decoding")
	}
	if cfg.Decode && e.dec == nil {
		return nil, errors.New("decoder is required when decoding")
	}

	ctx, span := e.tracer.Start(ctx, "weldgraph.evaluate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("weldgraph.threads", cfg.Threads),
			attribute.Bool("weldgraph.decode", cfg.Decode),
		),
	)
	defer span.End()

	started := e.now()
	var timings Timings

	t0 := time.Now()
	call, err := e.Prepare(target)
	timings.Encode = time.Since(t0)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("weldgraph.program_hash", call.Hash),
		attribute.String("weldgraph.frame_hash", call.FrameHash),
		attribute.Int("weldgraph.args", len(call.Args)),
		attribute.Int("weldgraph.bindings", len(call.Program.Bindings)),
	)

	v, err := e.execute(ctx, call, resultType, cfg, &timings)

	e.logger.Debug("evaluation finished",
		"program_hash", call.Hash,
		"encode", timings.Encode,
		"compile", timings.Compile,
		"run", timings.Run,
		"decode", timings.Decode,
		"status", StatusOf(err),
	)
	e.metrics.observe(ctx, StatusOf(err), len(call.Frame), timings)
	e.record(ctx, call, cfg, started, timings, err)

	if err != nil {
		fail(span, err)
		return nil, err
	}
	return v, nil
}

func (e *Evaluator) execute(ctx context.Context, call *Call, resultType ir.Type, cfg Config, timings *Timings) (ir.Value, error) {
	t0 := time.Now()
	mod, err := e.compile(ctx, call, cfg)
	timings.Compile = time.Since(t0)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := mod.Close(); cerr != nil {
			e.logger.Warn("failed to release compiled module", "program_hash", call.Hash, "error", cerr)
		}
	}()

	t0 = time.Now()
	data, err := e.run(ctx, mod, call, cfg)
	timings.Run = time.Since(t0)
	if err != nil {
		return nil, err
	}

	t0 = time.Now()
	defer func() { timings.Decode = time.Since(t0) }()
	if !cfg.Decode {
		return RawInt64(data)
	}
	v, err := e.dec.Decode(data, resultType)
	if err != nil {
		return nil, fmt.Errorf("decode result as %s: %w", resultType, err)
	}
	return v, nil
}

func (e *Evaluator) compile(ctx context.Context, call *Call, cfg Config) (Module, error) {
	ctx, span := e.tracer.Start(ctx, "weldgraph.compile",
		trace.WithAttributes(attribute.String("weldgraph.program_hash", call.Hash)))
	defer span.End()

	mod, err := e.rt.Compile(ctx, call.Text, cfg.CompileConf())
	if err != nil {
		if infrastructure(ctx, err) {
			err = fmt.Errorf("compile: %w", err)
			fail(span, err)
			return nil, err
		}
		cerr := &CompileError{Program: call.Text, Diagnostic: diagnostic(err), Err: err}
		fail(span, cerr)
		return nil, cerr
	}
	return mod, nil
}

func (e *Evaluator) run(ctx context.Context, mod Module, call *Call, cfg Config) ([]byte, error) {
	ctx, span := e.tracer.Start(ctx, "weldgraph.run",
		trace.WithAttributes(attribute.Int("weldgraph.frame_bytes", len(call.Frame))))
	defer span.End()

	res, err := mod.Run(ctx, call.Frame, cfg.RunConf())
	if err != nil {
		if infrastructure(ctx, err) {
			err = fmt.Errorf("run: %w", err)
			fail(span, err)
			return nil, err
		}
		rerr := &RuntimeError{Program: call.Text, Diagnostic: diagnostic(err), Err: err}
		fail(span, rerr)
		return nil, rerr
	}
	if res == nil {
		rerr := &RuntimeError{Program: call.Text, Diagnostic: "runtime returned no result"}
		fail(span, rerr)
		return nil, rerr
	}
	return res.Data(), nil
}

func (e *Evaluator) record(ctx context.Context, call *Call, cfg Config, started time.Time, timings Timings, err error) {
	if e.recorder == nil {
		return
	}
	rec := Record{
		ID:          e.ids.Generate(),
		ProgramHash: call.Hash,
		Program:     call.Text,
		Config:      cfg,
		Status:      StatusOf(err),
		Args:        len(call.Args),
		Bindings:    len(call.Program.Bindings),
		FrameBytes:  len(call.Frame),
		FrameHash:   call.FrameHash,
		Timings:     timings,
		StartedAt:   started,
	}
	var ce *CompileError
	var re *RuntimeError
	switch {
	case errors.As(err, &ce):
		rec.Diagnostic = ce.Diagnostic
	case errors.As(err, &re):
		rec.Diagnostic = re.Diagnostic
	case err != nil:
		rec.Diagnostic = err.Error()
	}
	if rerr := e.recorder.RecordEvaluation(ctx, rec); rerr != nil {
		e.logger.Warn("failed to record evaluation", "id", rec.ID, "program_hash", rec.ProgramHash, "error", rerr)
	}
}

// RawInt64 reads a little-endian int64 from the start of a result buffer.
func RawInt64(data []byte) (ir.I64, error) {
	if len(data) < 8 {
		return 0, fmt.Errorf("raw result: need 8 bytes, got %d", len(data))
	}
	return ir.I64(binary.LittleEndian.Uint64(data)), nil
}

// infrastructure reports whether err came from the runtime machinery or the
// caller's context rather than from the program.
func infrastructure(ctx context.Context, err error) bool {
	return errors.Is(err, ErrRuntimeUnavailable) || ctx.Err() != nil
}

func diagnostic(err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "unknown error"
	}
	return msg
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
