// Package codec is the reference Encoder/Decoder for the closed IR value
// enumeration.
//
// Layout (little-endian, no padding):
//
//	bool             1 byte, 0 or 1
//	i8..u64, f32/f64 fixed width, two's complement / IEEE 754
//	vec[T]           u64 item count followed by the items
//	{T1,...,Tn}      fields concatenated in order
//	raw              declared bytes, untouched
//
// Decoding requires the buffer to be consumed exactly.
package codec
