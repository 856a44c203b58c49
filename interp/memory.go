package interp

import (
	"github.com/wippyai/wasm-interp/wasm"
)

// Memory is a linear memory: a byte buffer addressed against a virtual
// size measured in 64 KiB pages. The backing buffer grows lazily on
// write and never beyond the virtual size; reads past the physically
// written region observe zeroes.
type Memory struct {
	bytes        []byte
	pagesVirtual uint64
	pagesMax     uint64
}

// NewMemory creates a memory from declared limits. A nil max means the
// spec ceiling for 32-bit memories.
func NewMemory(limits wasm.Limits) *Memory {
	max := wasm.MemoryMaxPages
	if limits.Max != nil && *limits.Max < max {
		max = *limits.Max
	}
	return &Memory{pagesVirtual: limits.Min, pagesMax: max}
}

// Size returns the current virtual size in pages.
func (m *Memory) Size() uint64 {
	return m.pagesVirtual
}

// Grow extends the virtual size by delta pages, returning the previous
// page count, or -1 when the result would exceed the declared maximum.
func (m *Memory) Grow(delta uint64) int64 {
	if m.pagesVirtual+delta > m.pagesMax {
		return -1
	}
	prev := int64(m.pagesVirtual)
	m.pagesVirtual += delta
	return prev
}

// Write stores the low bitwidth bits of value little-endian at address.
// It reports false when the access falls outside the virtual size.
func (m *Memory) Write(value uint64, bitwidth uint32, address uint64) bool {
	n := uint64(bitwidth / 8)
	end := address + n
	if end > m.pagesVirtual*wasm.PageSize {
		return false
	}
	if end > uint64(len(m.bytes)) {
		grown := make([]byte, end)
		copy(grown, m.bytes)
		m.bytes = grown
	}
	for i := uint64(0); i < n; i++ {
		m.bytes[address+i] = byte(value)
		value >>= 8
	}
	return true
}

// Read accumulates bitwidth/8 bytes little-endian starting at address.
// When signed is set the result is sign-extended from bitwidth to 64
// bits. It reports false when the access falls outside the virtual size.
func (m *Memory) Read(bitwidth uint32, address uint64, signed bool) (uint64, bool) {
	n := uint64(bitwidth / 8)
	end := address + n
	if end > m.pagesVirtual*wasm.PageSize {
		return 0, false
	}
	var result uint64
	for i := uint64(0); i < n; i++ {
		// Bytes past the written region read as zero.
		if address+i < uint64(len(m.bytes)) {
			result |= uint64(m.bytes[address+i]) << (8 * i)
		}
	}
	if signed && bitwidth < 64 {
		shift := 64 - bitwidth
		result = uint64(int64(result<<shift) >> shift)
	}
	return result, true
}
