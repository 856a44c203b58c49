package wasm

import (
	"github.com/wippyai/wasm-interp/wasm/internal/binary"
)

// Public LEB128 and float encoding helpers. The parser reads these
// encodings through its internal reader; the helpers here are the
// write-side counterparts used by the encoder and by code that assembles
// instruction streams by hand.

// EncodeLEB128u encodes an unsigned 32-bit LEB128 value to bytes.
func EncodeLEB128u(v uint32) []byte {
	w := binary.NewWriter()
	w.WriteU32(v)
	return w.Bytes()
}

// EncodeLEB128u64 encodes an unsigned 64-bit LEB128 value to bytes.
func EncodeLEB128u64(v uint64) []byte {
	w := binary.NewWriter()
	w.WriteU64(v)
	return w.Bytes()
}

// EncodeLEB128s encodes a signed 32-bit LEB128 value to bytes.
func EncodeLEB128s(v int32) []byte {
	w := binary.NewWriter()
	w.WriteS32(v)
	return w.Bytes()
}

// EncodeLEB128s64 encodes a signed 64-bit LEB128 value to bytes.
func EncodeLEB128s64(v int64) []byte {
	w := binary.NewWriter()
	w.WriteS64(v)
	return w.Bytes()
}

// EncodeF32 encodes a little-endian IEEE-754 float32 to 4 bytes.
func EncodeF32(v float32) []byte {
	w := binary.NewWriter()
	w.WriteF32(v)
	return w.Bytes()
}

// EncodeF64 encodes a little-endian IEEE-754 float64 to 8 bytes.
func EncodeF64(v float64) []byte {
	w := binary.NewWriter()
	w.WriteF64(v)
	return w.Bytes()
}
