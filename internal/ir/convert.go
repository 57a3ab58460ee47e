package ir

import (
	"fmt"
	"math"
)

// FromAny converts a decoded YAML/JSON value into a Value of type t.
//
// Accepted inputs:
//   - scalars: bool for bool; int, int64, uint64 or integral float64 for
//     integer kinds (range-checked); any number for float kinds
//   - vectors: []any, or a string when the element type is i8
//   - structs: []any with exactly one entry per field
func FromAny(t Type, x any) (Value, error) {
	switch tt := t.(type) {
	case Scalar:
		return scalarFromAny(tt.Kind, x)
	case Vec:
		if s, ok := x.(string); ok && TypesEqual(tt.Elem, TI8) {
			return Str(s), nil
		}
		list, ok := x.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected list, got %T", t, x)
		}
		items := make([]Value, len(list))
		for i, elem := range list {
			v, err := FromAny(tt.Elem, elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return VecValue{Elem: tt.Elem, Items: items}, nil
	case Struct:
		list, ok := x.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected list, got %T", t, x)
		}
		if len(list) != len(tt.Fields) {
			return nil, fmt.Errorf("%s: expected %d fields, got %d", t, len(tt.Fields), len(list))
		}
		fields := make([]Value, len(list))
		for i, elem := range list {
			v, err := FromAny(tt.Fields[i], elem)
			if err != nil {
				return nil, fmt.Errorf("field %d: %w", i, err)
			}
			fields[i] = v
		}
		return StructValue{Fields: fields}, nil
	case nil:
		return nil, fmt.Errorf("nil type")
	default:
		return nil, fmt.Errorf("unsupported type: %T", t)
	}
}

func scalarFromAny(k Kind, x any) (Value, error) {
	if k == KindBool {
		b, ok := x.(bool)
		if !ok {
			return nil, fmt.Errorf("bool: expected bool, got %T", x)
		}
		return Bool(b), nil
	}

	if k == KindF32 || k == KindF64 {
		var f float64
		switch n := x.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		case int64:
			f = float64(n)
		case uint64:
			f = float64(n)
		default:
			return nil, fmt.Errorf("%s: expected number, got %T", k, x)
		}
		if k == KindF32 {
			return F32(float32(f)), nil
		}
		return F64(f), nil
	}

	if u, ok := x.(uint64); ok {
		if k == KindU64 {
			return U64(u), nil
		}
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%s: %d out of range", k, u)
		}
		x = int64(u)
	}

	var n int64
	switch v := x.(type) {
	case int:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return nil, fmt.Errorf("%s: %v is not an integer", k, v)
		}
		n = int64(v)
	default:
		return nil, fmt.Errorf("%s: expected integer, got %T", k, x)
	}

	switch k {
	case KindI8:
		if n < math.MinInt8 || n > math.MaxInt8 {
			return nil, fmt.Errorf("i8: %d out of range", n)
		}
		return I8(n), nil
	case KindI16:
		if n < math.MinInt16 || n > math.MaxInt16 {
			return nil, fmt.Errorf("i16: %d out of range", n)
		}
		return I16(n), nil
	case KindI32:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("i32: %d out of range", n)
		}
		return I32(n), nil
	case KindI64:
		return I64(n), nil
	case KindU8:
		if n < 0 || n > math.MaxUint8 {
			return nil, fmt.Errorf("u8: %d out of range", n)
		}
		return U8(n), nil
	case KindU16:
		if n < 0 || n > math.MaxUint16 {
			return nil, fmt.Errorf("u16: %d out of range", n)
		}
		return U16(n), nil
	case KindU32:
		if n < 0 || n > math.MaxUint32 {
			return nil, fmt.Errorf("u32: %d out of range", n)
		}
		return U32(n), nil
	case KindU64:
		if n < 0 {
			return nil, fmt.Errorf("u64: %d out of range", n)
		}
		return U64(n), nil
	default:
		return nil, fmt.Errorf("invalid scalar kind %d", k)
	}
}
