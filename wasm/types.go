package wasm

// Module represents a parsed WebAssembly module: the sections this
// interpreter recognizes, decoded into typed form.
type Module struct {
	Types    []FuncType // Function signatures
	Funcs    []uint32   // Type indices for declared functions
	Memories []MemoryType
	Exports  []Export
	Code     []FuncBody
}

// FuncType represents a WebAssembly function signature with parameter and
// result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Equal reports whether two signatures have identical parameter and
// result lists.
func (ft FuncType) Equal(other FuncType) bool {
	if len(ft.Params) != len(other.Params) || len(ft.Results) != len(other.Results) {
		return false
	}
	for i := range ft.Params {
		if ft.Params[i] != other.Params[i] {
			return false
		}
	}
	for i := range ft.Results {
		if ft.Results[i] != other.Results[i] {
			return false
		}
	}
	return true
}

// ValType represents a WebAssembly value type.
// See constants.go for ValI32, ValI64, ValF32, ValF64.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return "unknown"
	}
}

// MemoryType describes a linear memory with size limits.
type MemoryType struct {
	Limits Limits
}

// Limits describes size constraints for memories, in pages.
// A nil Max means no declared upper bound.
type Limits struct {
	Max *uint64
	Min uint64
}

// Export describes an exported item.
// Kind uses the KindFunc, KindTable, KindMemory, or KindGlobal constants.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// FuncBody represents a function's local declarations and bytecode.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte // Raw body bytes including the end opcode
}

// LocalEntry represents a group of local variables with the same type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// ExpandLocals flattens the local entries into one type per local slot.
func (b FuncBody) ExpandLocals() []ValType {
	var out []ValType
	for _, e := range b.Locals {
		for i := uint32(0); i < e.Count; i++ {
			out = append(out, e.ValType)
		}
	}
	return out
}

// AddType adds a function type and returns its index, reusing an existing
// equal signature.
func (m *Module) AddType(ft FuncType) uint32 {
	for i, t := range m.Types {
		if t.Equal(ft) {
			return uint32(i)
		}
	}
	idx := uint32(len(m.Types))
	m.Types = append(m.Types, ft)
	return idx
}

// GetFuncType returns the signature of a declared function, or nil if the
// index is out of range.
func (m *Module) GetFuncType(funcIdx uint32) *FuncType {
	if int(funcIdx) >= len(m.Funcs) {
		return nil
	}
	typeIdx := m.Funcs[funcIdx]
	if int(typeIdx) >= len(m.Types) {
		return nil
	}
	return &m.Types[typeIdx]
}

// ExportedFunc looks up an export by name and returns its function index.
func (m *Module) ExportedFunc(name string) (uint32, bool) {
	for _, e := range m.Exports {
		if e.Name == name && e.Kind == KindFunc {
			return e.Idx, true
		}
	}
	return 0, false
}
