package eval

import (
	"context"

	"github.com/roach88/weldgraph/internal/ir"
)

// Runtime is the external compiler/runtime.
//
// Compile returns an error whose text is the compiler diagnostic when the
// program does not compile. Implementations may parallelize internally; from
// this package's point of view every call is synchronous.
type Runtime interface {
	Compile(ctx context.Context, program string, conf Conf) (Module, error)
}

// Module is a compiled program.
type Module interface {
	// Run executes the module against a packed call frame. The returned
	// error's text is the runtime diagnostic.
	Run(ctx context.Context, frame []byte, conf Conf) (Result, error)

	// Close releases resources held by the module.
	Close() error
}

// Result is the untyped output of a run.
type Result interface {
	Data() []byte
}

// Encoder marshals host values into native layout.
type Encoder interface {
	// TypeOf returns the IR type the encoded value will have.
	TypeOf(v ir.Value) (ir.Type, error)

	// Encode returns the native bytes for v, matching TypeOf(v).
	Encode(v ir.Value) ([]byte, error)
}

// Decoder unmarshals a native result buffer of type t into a host value.
type Decoder interface {
	Decode(data []byte, t ir.Type) (ir.Value, error)
}

// BytesResult is a Result backed by a byte slice.
type BytesResult []byte

// Data returns the bytes.
func (r BytesResult) Data() []byte { return r }
