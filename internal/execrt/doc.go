// Package execrt adapts an external compiler/runtime binary to eval.Runtime.
//
// The binary is driven through two subcommands:
//
//	<bin> compile [--conf key=value ...] <program-file>
//	<bin> run     [--conf key=value ...] <program-file>
//
// compile validates the program and exits non-zero with the diagnostic on
// stderr if it does not compile. run reads the packed call frame on stdin and
// writes the raw result buffer to stdout; a non-zero exit carries the runtime
// diagnostic on stderr.
package execrt
