package ir

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Canonical produces the canonical text of a value.
// CRITICAL: This is the ONLY serialization used for literal identity.
//
// Format: "<type> <body>", for example "i64 5", "vec[f64] [1.5,-0]",
// "{i32,vec[i8]} {7,[104,105]}". The type fixes the shape of the body, so
// two values share canonical text only if they are equal:
//  1. Integers are printed in base 10.
//  2. Floats use the shortest text that round-trips at their width;
//     -0, NaN, +Inf and -Inf are kept distinct. NaN payloads are not.
//  3. Raw values are prefixed with "raw" and printed as hex, so they never
//     share text with a decoded value.
func Canonical(v Value) (string, error) {
	if err := Validate(v); err != nil {
		return "", fmt.Errorf("canonical: %w", err)
	}
	if r, ok := v.(Raw); ok {
		return "raw " + r.T.String() + " 0x" + hex.EncodeToString(r.Bytes), nil
	}
	var b strings.Builder
	b.WriteString(v.Type().String())
	b.WriteByte(' ')
	if err := writeBody(&b, v); err != nil {
		return "", fmt.Errorf("canonical: %w", err)
	}
	return b.String(), nil
}

// MustCanonical is like Canonical but panics on error.
// Use only in tests or when the value is known to be valid.
func MustCanonical(v Value) string {
	s, err := Canonical(v)
	if err != nil {
		panic(err)
	}
	return s
}

// Format renders a value body without its type prefix, for display.
func Format(v Value) string {
	if r, ok := v.(Raw); ok {
		return "0x" + hex.EncodeToString(r.Bytes)
	}
	var b strings.Builder
	if err := writeBody(&b, v); err != nil {
		return fmt.Sprintf("<invalid: %v>", err)
	}
	return b.String()
}

func writeBody(b *strings.Builder, v Value) error {
	switch val := v.(type) {
	case Bool:
		b.WriteString(strconv.FormatBool(bool(val)))
	case I8:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case I16:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case I32:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case I64:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case U8:
		b.WriteString(strconv.FormatUint(uint64(val), 10))
	case U16:
		b.WriteString(strconv.FormatUint(uint64(val), 10))
	case U32:
		b.WriteString(strconv.FormatUint(uint64(val), 10))
	case U64:
		b.WriteString(strconv.FormatUint(uint64(val), 10))
	case F32:
		b.WriteString(strconv.FormatFloat(float64(val), 'g', -1, 32))
	case F64:
		b.WriteString(strconv.FormatFloat(float64(val), 'g', -1, 64))
	case VecValue:
		b.WriteByte('[')
		for i, item := range val.Items {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeBody(b, item); err != nil {
				return fmt.Errorf("vec[%d]: %w", i, err)
			}
		}
		b.WriteByte(']')
	case StructValue:
		b.WriteByte('{')
		for i, f := range val.Fields {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeBody(b, f); err != nil {
				return fmt.Errorf("field %d: %w", i, err)
			}
		}
		b.WriteByte('}')
	case Raw:
		return fmt.Errorf("raw value nested inside a composite")
	default:
		return fmt.Errorf("unsupported value type: %T", v)
	}
	return nil
}
