package binary

import (
	stdbinary "encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/wippyai/wasm-interp/errors"
)

// Reader is a position-tracked decoder over a byte slice with the read
// primitives the wasm binary format needs. It knows nothing about opcodes
// or sections.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader over the given bytes.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.pos
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errors.EndOfData()
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, errors.EndOfData()
	}
	buf := r.data[r.pos : r.pos+n]
	r.pos += n
	return buf, nil
}

// ReadU32 reads an unsigned LEB128 encoded uint32.
func (r *Reader) ReadU32() (uint32, error) {
	var result uint32
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			if shift == 28 && b>>4 != 0 {
				return 0, errors.IntSizeViolation()
			}
			return result, nil
		}
		shift += 7
		if shift >= 35 {
			return 0, errors.IntSizeViolation()
		}
	}
}

// ReadU64 reads an unsigned LEB128 encoded uint64.
func (r *Reader) ReadU64() (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			if shift == 63 && b>>1 != 0 {
				return 0, errors.IntSizeViolation()
			}
			return result, nil
		}
		shift += 7
		if shift >= 70 {
			return 0, errors.IntSizeViolation()
		}
	}
}

// ReadS32 reads a signed LEB128 encoded int32, sign-extending the final
// group when its sign bit is set.
func (r *Reader) ReadS32() (int32, error) {
	var result int32
	var shift uint
	var b byte
	var err error
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= int32(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift >= 35 {
			return 0, errors.IntSizeViolation()
		}
	}
	// Sign extend
	if shift < 32 && b&0x40 != 0 {
		result |= ^int32(0) << shift
	}
	return result, nil
}

// ReadS64 reads a signed LEB128 encoded int64.
func (r *Reader) ReadS64() (int64, error) {
	var result int64
	var shift uint
	var b byte
	var err error
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift >= 70 {
			return 0, errors.IntSizeViolation()
		}
	}
	// Sign extend
	if shift < 64 && b&0x40 != 0 {
		result |= ^int64(0) << shift
	}
	return result, nil
}

// ReadF32 reads a little-endian IEEE-754 float32 (fixed 4 bytes).
func (r *Reader) ReadF32() (float32, error) {
	if r.Len() < 4 {
		return 0, errors.FloatSizeViolation()
	}
	buf, _ := r.ReadBytes(4)
	return math.Float32frombits(stdbinary.LittleEndian.Uint32(buf)), nil
}

// ReadF64 reads a little-endian IEEE-754 float64 (fixed 8 bytes).
func (r *Reader) ReadF64() (float64, error) {
	if r.Len() < 8 {
		return 0, errors.FloatSizeViolation()
	}
	buf, _ := r.ReadBytes(8)
	return math.Float64frombits(stdbinary.LittleEndian.Uint64(buf)), nil
}

// ReadU32LE reads a little-endian uint32 (fixed 4 bytes).
func (r *Reader) ReadU32LE() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return stdbinary.LittleEndian.Uint32(buf), nil
}

// ReadName reads a length-prefixed UTF-8 name.
func (r *Reader) ReadName() (string, error) {
	length, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	data, err := r.ReadBytes(int(length))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errors.UnexpectedData("expected a valid UTF-8 string")
	}
	return string(data), nil
}

// ReadRemaining reads all remaining bytes.
func (r *Reader) ReadRemaining() []byte {
	buf := r.data[r.pos:]
	r.pos = len(r.data)
	return buf
}
