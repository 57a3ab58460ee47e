// Package program flattens an expression graph into one ordered program.
//
// Flatten walks the transitive dependency closure of a target node and
// emits exactly one let-binding per distinct node. Bindings are ordered with
// Kahn's algorithm, so every dependency precedes its dependents; ties are
// broken by node sequence number, which makes the output byte-identical for
// graphs built in the same order. There is no secondary textual sort.
//
// Flatten also aggregates the literal inputs of every reachable node into a
// single name-ordered list, which callers use to build the program signature
// and the call frame from the same slice.
package program
