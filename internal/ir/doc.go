// Package ir provides the type and value definitions shared by every layer
// of the front-end.
//
// This package contains definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps IR the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Types and values are closed (sealed) enumerations: scalar, vector, struct.
//     Dispatch happens with type switches over these sets, never on type names.
//   - Canonical text (Canonical) is injective over the value space. Equal
//     canonical text means equal value.
//   - Names compare numerically on their trailing counter (CompareNames), so
//     "_inp2" sorts before "_inp10" and "obj99" before "obj100".
package ir
