package ir

import (
	"fmt"
)

// Value is a sealed interface representing a host value that can be passed
// to, or returned from, a compiled program.
//
// Only the scalar types below, VecValue, StructValue and Raw implement this.
// Every value knows its own IR type, so no name-based type inference is needed.
type Value interface {
	Type() Type
	irValue() // Sealed
}

// Bool is a bool scalar.
type Bool bool

// I8 is an i8 scalar.
type I8 int8

// I16 is an i16 scalar.
type I16 int16

// I32 is an i32 scalar.
type I32 int32

// I64 is an i64 scalar.
type I64 int64

// U8 is a u8 scalar.
type U8 uint8

// U16 is a u16 scalar.
type U16 uint16

// U32 is a u32 scalar.
type U32 uint32

// U64 is a u64 scalar.
type U64 uint64

// F32 is an f32 scalar.
type F32 float32

// F64 is an f64 scalar.
type F64 float64

func (Bool) irValue() {}
func (I8) irValue()   {}
func (I16) irValue()  {}
func (I32) irValue()  {}
func (I64) irValue()  {}
func (U8) irValue()   {}
func (U16) irValue()  {}
func (U32) irValue()  {}
func (U64) irValue()  {}
func (F32) irValue()  {}
func (F64) irValue()  {}

func (Bool) Type() Type { return TBool }
func (I8) Type() Type   { return TI8 }
func (I16) Type() Type  { return TI16 }
func (I32) Type() Type  { return TI32 }
func (I64) Type() Type  { return TI64 }
func (U8) Type() Type   { return TU8 }
func (U16) Type() Type  { return TU16 }
func (U32) Type() Type  { return TU32 }
func (U64) Type() Type  { return TU64 }
func (F32) Type() Type  { return TF32 }
func (F64) Type() Type  { return TF64 }

// VecValue is a vector of values sharing one element type.
// Elem is required so that empty vectors are still typed.
type VecValue struct {
	Elem  Type
	Items []Value
}

func (VecValue) irValue() {}

// Type returns vec[Elem].
func (v VecValue) Type() Type { return Vec{Elem: v.Elem} }

// StructValue is an ordered tuple of values.
type StructValue struct {
	Fields []Value
}

func (StructValue) irValue() {}

// Type returns the struct of the field types.
func (s StructValue) Type() Type {
	fields := make([]Type, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = f.Type()
	}
	return Struct{Fields: fields}
}

// Raw is a value that is already in native layout. Its bytes are passed to
// the runtime untouched under the declared type T.
type Raw struct {
	T     Type
	Bytes []byte
}

func (Raw) irValue() {}

// Type returns the declared type.
func (r Raw) Type() Type { return r.T }

// NewVec creates a VecValue with the given element type.
func NewVec(elem Type, items ...Value) VecValue {
	return VecValue{Elem: elem, Items: items}
}

// NewStruct creates a StructValue from fields.
func NewStruct(fields ...Value) StructValue {
	return StructValue{Fields: fields}
}

// Int64s creates a vec[i64].
func Int64s(xs ...int64) VecValue {
	items := make([]Value, len(xs))
	for i, x := range xs {
		items[i] = I64(x)
	}
	return VecValue{Elem: TI64, Items: items}
}

// Float64s creates a vec[f64].
func Float64s(xs ...float64) VecValue {
	items := make([]Value, len(xs))
	for i, x := range xs {
		items[i] = F64(x)
	}
	return VecValue{Elem: TF64, Items: items}
}

// Str creates the vec[i8] representation of a string's bytes.
func Str(s string) VecValue {
	items := make([]Value, len(s))
	for i := 0; i < len(s); i++ {
		items[i] = I8(int8(s[i]))
	}
	return VecValue{Elem: TI8, Items: items}
}

// Validate checks that a value is well typed: vector items match the element
// type and raw values carry a type. Nil values are rejected.
func Validate(v Value) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("nil value")
	case VecValue:
		if val.Elem == nil {
			return fmt.Errorf("vector has no element type")
		}
		for i, item := range val.Items {
			if err := Validate(item); err != nil {
				return fmt.Errorf("vec[%d]: %w", i, err)
			}
			if !TypesEqual(item.Type(), val.Elem) {
				return fmt.Errorf("vec[%d]: item type %s does not match element type %s", i, item.Type(), val.Elem)
			}
		}
	case StructValue:
		for i, f := range val.Fields {
			if err := Validate(f); err != nil {
				return fmt.Errorf("field %d: %w", i, err)
			}
		}
	case Raw:
		if val.T == nil {
			return fmt.Errorf("raw value has no declared type")
		}
	}
	return nil
}

// Equal reports whether two values have identical canonical text.
func Equal(a, b Value) bool {
	ca, err := Canonical(a)
	if err != nil {
		return false
	}
	cb, err := Canonical(b)
	if err != nil {
		return false
	}
	return ca == cb
}
