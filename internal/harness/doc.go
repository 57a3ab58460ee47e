// Package harness runs expression-graph scenarios described in YAML.
//
// A scenario lists nodes in construction order. Each node has IR code in
// which ${ref} placeholders name either one of the node's own literals or an
// earlier node. Literals are registered through the node's Draft and earlier
// nodes become dependencies, so the scenario exercises the same registry,
// builder and flattener as client code:
//
//	name: diamond
//	description: C depends on A and B, B depends on A
//	nodes:
//	  - name: a
//	    code: "${x} + 1L"
//	    literals:
//	      x: {type: i64, value: 1}
//	  - name: b
//	    code: "${a} * 2L"
//	  - name: c
//	    code: "${a} + ${b}"
//	target: c
//	result_type: i64
//	assertions:
//	  - type: binding_order
//	    nodes: [a, b, c]
//
// Run produces the assembled program, and when a runtime is configured, the
// evaluated result. RunWithGolden compares the program text against
// testdata/golden/<name>.golden.
package harness
