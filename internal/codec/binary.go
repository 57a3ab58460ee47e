package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/roach88/weldgraph/internal/ir"
)

// ErrShortBuffer is returned when a buffer ends before the value it holds.
var ErrShortBuffer = errors.New("buffer too short")

// Binary encodes and decodes values in the native little-endian layout.
// The zero value is ready to use and safe for concurrent use.
type Binary struct{}

// TypeOf returns the IR type of v after validating it.
func (Binary) TypeOf(v ir.Value) (ir.Type, error) {
	if err := ir.Validate(v); err != nil {
		return nil, err
	}
	return v.Type(), nil
}

// Encode returns the native bytes of v.
func (Binary) Encode(v ir.Value) ([]byte, error) {
	if err := ir.Validate(v); err != nil {
		return nil, err
	}
	return appendValue(nil, v)
}

// Decode reads a value of type t from data.
func (Binary) Decode(data []byte, t ir.Type) (ir.Value, error) {
	if t == nil {
		return nil, errors.New("decode: nil type")
	}
	r := &reader{data: data}
	v, err := r.value(t)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}
	if r.off != len(data) {
		return nil, fmt.Errorf("decode %s: %d trailing bytes", t, len(data)-r.off)
	}
	return v, nil
}

func appendValue(buf []byte, v ir.Value) ([]byte, error) {
	le := binary.LittleEndian
	switch val := v.(type) {
	case ir.Bool:
		if val {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	case ir.I8:
		return append(buf, byte(val)), nil
	case ir.U8:
		return append(buf, byte(val)), nil
	case ir.I16:
		return le.AppendUint16(buf, uint16(val)), nil
	case ir.U16:
		return le.AppendUint16(buf, uint16(val)), nil
	case ir.I32:
		return le.AppendUint32(buf, uint32(val)), nil
	case ir.U32:
		return le.AppendUint32(buf, uint32(val)), nil
	case ir.I64:
		return le.AppendUint64(buf, uint64(val)), nil
	case ir.U64:
		return le.AppendUint64(buf, uint64(val)), nil
	case ir.F32:
		return le.AppendUint32(buf, math.Float32bits(float32(val))), nil
	case ir.F64:
		return le.AppendUint64(buf, math.Float64bits(float64(val))), nil
	case ir.VecValue:
		buf = le.AppendUint64(buf, uint64(len(val.Items)))
		for _, item := range val.Items {
			var err error
			if buf, err = appendValue(buf, item); err != nil {
				return nil, err
			}
		}
		return buf, nil
	case ir.StructValue:
		for _, f := range val.Fields {
			var err error
			if buf, err = appendValue(buf, f); err != nil {
				return nil, err
			}
		}
		return buf, nil
	case ir.Raw:
		return append(buf, val.Bytes...), nil
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || len(r.data)-r.off < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, r.off, len(r.data)-r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) value(t ir.Type) (ir.Value, error) {
	switch tt := t.(type) {
	case ir.Scalar:
		return r.scalar(tt.Kind)
	case ir.Vec:
		b, err := r.take(8)
		if err != nil {
			return nil, err
		}
		n := binary.LittleEndian.Uint64(b)
		if ms := minSize(tt.Elem); ms > 0 && n > uint64(len(r.data)-r.off)/uint64(ms) {
			return nil, fmt.Errorf("%w: vector of %d items at offset %d", ErrShortBuffer, n, r.off)
		}
		items := make([]ir.Value, 0, min(n, 1024))
		for i := uint64(0); i < n; i++ {
			item, err := r.value(tt.Elem)
			if err != nil {
				return nil, fmt.Errorf("vec[%d]: %w", i, err)
			}
			items = append(items, item)
		}
		return ir.VecValue{Elem: tt.Elem, Items: items}, nil
	case ir.Struct:
		fields := make([]ir.Value, len(tt.Fields))
		for i, ft := range tt.Fields {
			f, err := r.value(ft)
			if err != nil {
				return nil, fmt.Errorf("field %d: %w", i, err)
			}
			fields[i] = f
		}
		return ir.StructValue{Fields: fields}, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", t)
	}
}

func (r *reader) scalar(k ir.Kind) (ir.Value, error) {
	b, err := r.take(k.Size())
	if err != nil {
		return nil, err
	}
	le := binary.LittleEndian
	switch k {
	case ir.KindBool:
		switch b[0] {
		case 0:
			return ir.Bool(false), nil
		case 1:
			return ir.Bool(true), nil
		}
		return nil, fmt.Errorf("invalid bool byte 0x%02x", b[0])
	case ir.KindI8:
		return ir.I8(int8(b[0])), nil
	case ir.KindU8:
		return ir.U8(b[0]), nil
	case ir.KindI16:
		return ir.I16(int16(le.Uint16(b))), nil
	case ir.KindU16:
		return ir.U16(le.Uint16(b)), nil
	case ir.KindI32:
		return ir.I32(int32(le.Uint32(b))), nil
	case ir.KindU32:
		return ir.U32(le.Uint32(b)), nil
	case ir.KindI64:
		return ir.I64(int64(le.Uint64(b))), nil
	case ir.KindU64:
		return ir.U64(le.Uint64(b)), nil
	case ir.KindF32:
		return ir.F32(math.Float32frombits(le.Uint32(b))), nil
	case ir.KindF64:
		return ir.F64(math.Float64frombits(le.Uint64(b))), nil
	default:
		return nil, fmt.Errorf("invalid scalar kind %d", k)
	}
}

// minSize is the smallest encoded width of a value of type t.
func minSize(t ir.Type) int {
	switch tt := t.(type) {
	case ir.Scalar:
		return tt.Kind.Size()
	case ir.Vec:
		return 8
	case ir.Struct:
		n := 0
		for _, f := range tt.Fields {
			n += minSize(f)
		}
		return n
	default:
		return 0
	}
}
