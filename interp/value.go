package interp

import (
	"fmt"
	"math"

	"github.com/wippyai/wasm-interp/wasm"
)

// Value is a typed wasm scalar: a type tag over 64 bits of payload. The
// payload is only meaningful under its tag; reinterpretation between tags
// happens exclusively through the conversion instructions.
type Value struct {
	Type wasm.ValType
	bits uint64
}

// I32 creates an i32 value.
func I32(v int32) Value {
	return Value{Type: wasm.ValI32, bits: uint64(uint32(v))}
}

// I64 creates an i64 value.
func I64(v int64) Value {
	return Value{Type: wasm.ValI64, bits: uint64(v)}
}

// F32 creates an f32 value.
func F32(v float32) Value {
	return Value{Type: wasm.ValF32, bits: uint64(math.Float32bits(v))}
}

// F64 creates an f64 value.
func F64(v float64) Value {
	return Value{Type: wasm.ValF64, bits: math.Float64bits(v)}
}

// Raw creates a value of the given type directly from payload bits.
func Raw(t wasm.ValType, bits uint64) Value {
	return Value{Type: t, bits: bits}
}

// Zero returns the zero value of the given type (integer 0, float +0.0).
func Zero(t wasm.ValType) Value {
	return Value{Type: t}
}

// Bits returns the raw 64-bit payload.
func (v Value) Bits() uint64 {
	return v.bits
}

// AsI32 interprets the payload as i32. The caller is responsible for
// having checked the tag.
func (v Value) AsI32() int32 {
	return int32(uint32(v.bits))
}

// AsI64 interprets the payload as i64.
func (v Value) AsI64() int64 {
	return int64(v.bits)
}

// AsF32 interprets the payload as f32.
func (v Value) AsF32() float32 {
	return math.Float32frombits(uint32(v.bits))
}

// AsF64 interprets the payload as f64.
func (v Value) AsF64() float64 {
	return math.Float64frombits(v.bits)
}

func (v Value) String() string {
	switch v.Type {
	case wasm.ValI32:
		return fmt.Sprintf("(i32:%d)", v.AsI32())
	case wasm.ValI64:
		return fmt.Sprintf("(i64:%d)", v.AsI64())
	case wasm.ValF32:
		return fmt.Sprintf("(f32:%v)", v.AsF32())
	case wasm.ValF64:
		return fmt.Sprintf("(f64:%v)", v.AsF64())
	default:
		return fmt.Sprintf("(unknown:%#x)", v.bits)
	}
}
