// Package eval compiles and runs flattened programs.
//
// An Evaluator is built from three injected collaborators:
//
//   - Encoder: host value -> (IR type, native bytes)
//   - Decoder: (native bytes, IR type) -> host value
//   - Runtime: the external compiler/runtime, seen only through
//     Compile(program text, conf) and Module.Run(frame, conf)
//
// Evaluate runs six steps: flatten the target, assemble the signature,
// encode the arguments, compile, run, and decode. Steps 2 and 3 share one
// ordered []Arg, so the header parameter order and the call-frame field order
// cannot diverge.
//
// Evaluation is synchronous. Config.Threads is forwarded to the runtime and
// has no effect on this package. Failures are returned immediately and never
// retried: CompileError when compilation fails, RuntimeError when execution
// fails. Both carry the runtime's diagnostic and the full program text.
package eval
