package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	assert.Equal(t, "i64", TI64.String())
	assert.Equal(t, "vec[f64]", VecOf(TF64).String())
	assert.Equal(t, "{i32,vec[i8]}", StructOf(TI32, VecOf(TI8)).String())
	assert.Equal(t, "{}", StructOf().String())
	assert.Equal(t, "invalid", Scalar{}.String())
}

func TestKindSize(t *testing.T) {
	assert.Equal(t, 1, KindBool.Size())
	assert.Equal(t, 2, KindU16.Size())
	assert.Equal(t, 4, KindF32.Size())
	assert.Equal(t, 8, KindI64.Size())
	assert.Equal(t, 0, Kind(0).Size())
}

func TestParseTypeRoundTrip(t *testing.T) {
	inputs := []string{
		"bool", "i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64", "f32", "f64",
		"vec[i64]",
		"vec[vec[i8]]",
		"{i64,f64}",
		"{i32,vec[{bool,u8}]}",
		"{}",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			typ, err := ParseType(in)
			require.NoError(t, err)
			assert.Equal(t, in, typ.String())
		})
	}
}

func TestParseTypeWhitespace(t *testing.T) {
	typ, err := ParseType(" { i64 , vec[ f64 ] } ")
	require.NoError(t, err)
	assert.Equal(t, "{i64,vec[f64]}", typ.String())
}

func TestParseTypeErrors(t *testing.T) {
	inputs := []string{"", "int", "vec[i64", "vec i64", "{i64,", "{i64 f64}", "i64]", "vec[]"}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := ParseType(in)
			assert.Error(t, err)
		})
	}
}

func TestTypesEqual(t *testing.T) {
	assert.True(t, TypesEqual(VecOf(TI64), MustParseType("vec[i64]")))
	assert.False(t, TypesEqual(TI64, TI32))
	assert.False(t, TypesEqual(TI64, nil))
	assert.True(t, TypesEqual(nil, nil))
}
