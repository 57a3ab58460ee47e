package ir

import (
	"strings"
)

// Type is a sealed interface describing an IR type.
// Only Scalar, Vec and Struct implement this.
type Type interface {
	// String renders the type in IR syntax, e.g. "i64", "vec[f64]", "{i32,bool}".
	String() string
	irType() // Sealed
}

// Kind enumerates the scalar kinds understood by the runtime.
type Kind int

const (
	KindBool Kind = iota + 1
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
)

var kindNames = map[Kind]string{
	KindBool: "bool",
	KindI8:   "i8",
	KindI16:  "i16",
	KindI32:  "i32",
	KindI64:  "i64",
	KindU8:   "u8",
	KindU16:  "u16",
	KindU32:  "u32",
	KindU64:  "u64",
	KindF32:  "f32",
	KindF64:  "f64",
}

var kindSizes = map[Kind]int{
	KindBool: 1,
	KindI8:   1,
	KindI16:  2,
	KindI32:  4,
	KindI64:  8,
	KindU8:   1,
	KindU16:  2,
	KindU32:  4,
	KindU64:  8,
	KindF32:  4,
	KindF64:  8,
}

// String returns the IR spelling of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "invalid"
}

// Size returns the encoded width of the kind in bytes (0 for an invalid kind).
func (k Kind) Size() int {
	return kindSizes[k]
}

// Scalar is a fixed-width primitive type.
type Scalar struct {
	Kind Kind
}

func (Scalar) irType() {}

func (s Scalar) String() string { return s.Kind.String() }

// Vec is a variable-length vector of a single element type.
type Vec struct {
	Elem Type
}

func (Vec) irType() {}

func (v Vec) String() string {
	return "vec[" + v.Elem.String() + "]"
}

// Struct is an ordered, unnamed tuple of field types.
type Struct struct {
	Fields []Type
}

func (Struct) irType() {}

func (s Struct) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = f.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Predeclared scalar types.
var (
	TBool = Scalar{KindBool}
	TI8   = Scalar{KindI8}
	TI16  = Scalar{KindI16}
	TI32  = Scalar{KindI32}
	TI64  = Scalar{KindI64}
	TU8   = Scalar{KindU8}
	TU16  = Scalar{KindU16}
	TU32  = Scalar{KindU32}
	TU64  = Scalar{KindU64}
	TF32  = Scalar{KindF32}
	TF64  = Scalar{KindF64}
)

// VecOf returns vec[elem].
func VecOf(elem Type) Vec {
	return Vec{Elem: elem}
}

// StructOf returns {fields...}.
func StructOf(fields ...Type) Struct {
	return Struct{Fields: fields}
}

// TypesEqual reports whether two types are structurally identical.
func TypesEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}
