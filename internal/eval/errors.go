package eval

import (
	"errors"
	"fmt"
)

// ErrRuntimeUnavailable marks failures of the runtime's own machinery, such
// as a missing binary or an unwritable work directory. Runtimes wrap it so
// the Evaluator does not mistake them for compiler or program diagnostics.
var ErrRuntimeUnavailable = errors.New("runtime unavailable")

// CompileError reports that the assembled program failed to compile.
// Program holds the full text for reproduction.
type CompileError struct {
	Program    string
	Diagnostic string
	Err        error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("could not compile program: %s", e.Diagnostic)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// RuntimeError reports that a compiled program failed while running.
type RuntimeError struct {
	Program    string
	Diagnostic string
	Err        error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("error while running program: %s", e.Diagnostic)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// ArgumentError reports that a literal input could not be typed or encoded.
type ArgumentError struct {
	Name string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument %s: %v", e.Name, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// IsCompileError returns true if err is (or wraps) a CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// IsRuntimeError returns true if err is (or wraps) a RuntimeError.
func IsRuntimeError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re)
}
