package interp_test

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/wippyai/wasm-interp/errors"
	"github.com/wippyai/wasm-interp/interp"
	"github.com/wippyai/wasm-interp/wasm"
)

// The end-to-end scenarios below run complete modules through parse,
// instantiation, and call.

func parseAndCall(t *testing.T, m *wasm.Module, name string, args ...interp.Value) (interp.Value, error) {
	t.Helper()
	parsed, err := wasm.ParseModule(m.Encode())
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	inst, err := interp.NewInstance(parsed)
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	return inst.Call(name, args)
}

func TestEndToEndMinimalAdd(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{
			{Params: []wasm.ValType{wasm.ValI32, wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
		},
		Funcs:   []uint32{0},
		Exports: []wasm.Export{{Name: "add", Kind: wasm.KindFunc, Idx: 0}},
		Code: []wasm.FuncBody{{Code: body(
			localGet(0),
			localGet(1),
			raw(wasm.OpI32Add),
		)}},
	}
	v, err := parseAndCall(t, m, "add", interp.I32(2), interp.I32(3))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if v.Type != wasm.ValI32 || v.AsI32() != 5 {
		t.Errorf("add(2, 3): got %v", v)
	}
}

func TestEndToEndWrapOnOverflow(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{
			{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
		},
		Funcs:   []uint32{0},
		Exports: []wasm.Export{{Name: "f", Kind: wasm.KindFunc, Idx: 0}},
		Code: []wasm.FuncBody{{Code: body(
			localGet(0),
			i32const(1),
			raw(wasm.OpI32Add),
		)}},
	}
	v, err := parseAndCall(t, m, "f", interp.I32(math.MaxInt32))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if v.AsI32() != math.MinInt32 {
		t.Errorf("max+1: got %d, want %d", v.AsI32(), math.MinInt32)
	}
}

func memModule(name string, code []byte) *wasm.Module {
	max := uint64(1)
	return &wasm.Module{
		Types:    []wasm.FuncType{{Results: []wasm.ValType{wasm.ValI32}}},
		Funcs:    []uint32{0},
		Memories: []wasm.MemoryType{{Limits: wasm.Limits{Min: 1, Max: &max}}},
		Exports:  []wasm.Export{{Name: name, Kind: wasm.KindFunc, Idx: 0}},
		Code:     []wasm.FuncBody{{Code: code}},
	}
}

func TestEndToEndMemoryRoundTrip(t *testing.T) {
	m := memModule("rw", body(
		i32const(100),
		i32const(12345),
		raw(wasm.OpI32Store, 0x02, 0x00),
		i32const(100),
		raw(wasm.OpI32Load, 0x02, 0x00),
	))
	v, err := parseAndCall(t, m, "rw")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if v.AsI32() != 12345 {
		t.Errorf("rw: got %d, want 12345", v.AsI32())
	}
}

func TestEndToEndOutOfBounds(t *testing.T) {
	m := memModule("oob", body(
		i32const(65534),
		raw(wasm.OpI32Load, 0x02, 0x00),
	))
	_, err := parseAndCall(t, m, "oob")
	var trap *interp.TrapError
	if !stderrors.As(err, &trap) || trap.Kind != interp.TrapMemoryOutOfBounds {
		t.Errorf("expected memory out of bounds trap, got %v", err)
	}
}

func TestEndToEndSignedDivisionTrap(t *testing.T) {
	m := &wasm.Module{
		Types:   []wasm.FuncType{{Results: []wasm.ValType{wasm.ValI32}}},
		Funcs:   []uint32{0},
		Exports: []wasm.Export{{Name: "bad", Kind: wasm.KindFunc, Idx: 0}},
		Code: []wasm.FuncBody{{Code: body(
			i32const(math.MinInt32),
			i32const(-1),
			raw(wasm.OpI32DivS),
		)}},
	}
	_, err := parseAndCall(t, m, "bad")
	var trap *interp.TrapError
	if !stderrors.As(err, &trap) || trap.Kind != interp.TrapUndefinedDivision {
		t.Errorf("expected undefined division trap, got %v", err)
	}
}

func TestEndToEndCountingLoop(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{
			{Params: []wasm.ValType{wasm.ValI64}, Results: []wasm.ValType{wasm.ValI64}},
		},
		Funcs:   []uint32{0},
		Exports: []wasm.Export{{Name: "count", Kind: wasm.KindFunc, Idx: 0}},
		Code: []wasm.FuncBody{{
			Locals: []wasm.LocalEntry{{Count: 1, ValType: wasm.ValI64}},
			Code: body(
				loop(
					localGet(1),
					localGet(0),
					raw(wasm.OpI64Add),
					localSet(1),
					localGet(0),
					i64const(1),
					raw(wasm.OpI64Sub),
					localTee(0),
					i64const(0),
					raw(wasm.OpI64GtS),
					brIf(0),
				),
				localGet(1),
			),
		}},
	}
	v, err := parseAndCall(t, m, "count", interp.I64(5))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if v.Type != wasm.ValI64 || v.AsI64() != 15 {
		t.Errorf("count(5): got %v, want (i64:15)", v)
	}
}

func TestMemorySizeAndGrow(t *testing.T) {
	max := uint64(3)
	m := &wasm.Module{
		Types:    []wasm.FuncType{{Results: []wasm.ValType{wasm.ValI32}}},
		Funcs:    []uint32{0},
		Memories: []wasm.MemoryType{{Limits: wasm.Limits{Min: 1, Max: &max}}},
		Exports:  []wasm.Export{{Name: "grow", Kind: wasm.KindFunc, Idx: 0}},
		Code: []wasm.FuncBody{{Code: body(
			// grow by 2 (returns old size 1), then add current size (3)
			i32const(2),
			raw(wasm.OpMemoryGrow, 0x00),
			raw(wasm.OpMemorySize, 0x00),
			raw(wasm.OpI32Add),
		)}},
	}
	v, err := parseAndCall(t, m, "grow")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if v.AsI32() != 4 {
		t.Errorf("grow: got %d, want 4", v.AsI32())
	}
}

func TestCallErrors(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{
			{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
		},
		Funcs: []uint32{0},
		Exports: []wasm.Export{
			{Name: "f", Kind: wasm.KindFunc, Idx: 0},
			{Name: "mem", Kind: wasm.KindMemory, Idx: 0},
		},
		Code: []wasm.FuncBody{{Code: body(localGet(0))}},
	}
	inst, err := interp.NewInstance(m)
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}

	if _, err := inst.Call("missing", nil); !stderrors.Is(err, errors.Misc("")) {
		t.Errorf("missing export: got %v", err)
	}
	if _, err := inst.Call("mem", nil); !stderrors.Is(err, errors.Misc("")) {
		t.Errorf("non-function export: got %v", err)
	}
	if _, err := inst.Call("f", nil); !stderrors.Is(err, errors.Misc("")) {
		t.Errorf("wrong argument count: got %v", err)
	}
	if _, err := inst.Call("f", []interp.Value{interp.F64(1)}); !stderrors.Is(err, errors.Misc("")) {
		t.Errorf("wrong argument type: got %v", err)
	}
}

func TestNewInstanceErrors(t *testing.T) {
	// export references a function index out of range
	m := &wasm.Module{
		Exports: []wasm.Export{{Name: "f", Kind: wasm.KindFunc, Idx: 3}},
	}
	if _, err := interp.NewInstance(m); !stderrors.Is(err, errors.Misc("")) {
		t.Errorf("export out of range: got %v", err)
	}

	// declared function without a body
	m = &wasm.Module{
		Types: []wasm.FuncType{{Results: []wasm.ValType{wasm.ValI32}}},
		Funcs: []uint32{0},
	}
	if _, err := interp.NewInstance(m); !stderrors.Is(err, errors.Misc("")) {
		t.Errorf("missing body: got %v", err)
	}
}

func TestExportedFunctions(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{
			{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
		},
		Funcs: []uint32{0},
		Exports: []wasm.Export{
			{Name: "f", Kind: wasm.KindFunc, Idx: 0},
			{Name: "mem", Kind: wasm.KindMemory, Idx: 0},
		},
		Code: []wasm.FuncBody{{Code: body(localGet(0))}},
	}
	inst, err := interp.NewInstance(m)
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	funcs := inst.ExportedFunctions()
	if len(funcs) != 1 {
		t.Fatalf("expected one exported function, got %d", len(funcs))
	}
	ft, ok := funcs["f"]
	if !ok || len(ft.Params) != 1 || ft.Params[0] != wasm.ValI32 {
		t.Errorf("signature: got %+v", ft)
	}
}

// TestStoreAndLoadWidths covers the sub-word store/load families through
// full module execution.
func TestStoreAndLoadWidths(t *testing.T) {
	tests := []struct {
		name    string
		storeOp byte
		loadOp  byte
		value   int32
		want    int32
	}{
		{"store8_load8_u", wasm.OpI32Store8, wasm.OpI32Load8U, -1, 0xFF},
		{"store8_load8_s", wasm.OpI32Store8, wasm.OpI32Load8S, 0x80, -128},
		{"store16_load16_u", wasm.OpI32Store16, wasm.OpI32Load16U, -1, 0xFFFF},
		{"store16_load16_s", wasm.OpI32Store16, wasm.OpI32Load16S, 0x8000, -32768},
		{"store_load", wasm.OpI32Store, wasm.OpI32Load, -123456, -123456},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := memModule("f", body(
				i32const(16),
				i32const(tt.value),
				raw(tt.storeOp, 0x00, 0x00),
				i32const(16),
				raw(tt.loadOp, 0x00, 0x00),
			))
			v, err := parseAndCall(t, m, "f")
			if err != nil {
				t.Fatalf("Call: %v", err)
			}
			if v.AsI32() != tt.want {
				t.Errorf("got %d, want %d", v.AsI32(), tt.want)
			}
		})
	}
}

// TestLoadWithOffsetTrapsPastEnd checks that the immediate offset
// participates in the bounds check.
func TestLoadWithOffsetTrapsPastEnd(t *testing.T) {
	m := memModule("f", body(
		i32const(65532),
		raw(wasm.OpI32Load, 0x02, 0x04), // effective address 65536
	))
	_, err := parseAndCall(t, m, "f")
	var trap *interp.TrapError
	if !stderrors.As(err, &trap) || trap.Kind != interp.TrapMemoryOutOfBounds {
		t.Errorf("expected memory out of bounds trap, got %v", err)
	}
}

func TestF64Arithmetic(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{
			{Params: []wasm.ValType{wasm.ValF64, wasm.ValF64}, Results: []wasm.ValType{wasm.ValF64}},
		},
		Funcs:   []uint32{0},
		Exports: []wasm.Export{{Name: "hyp2", Kind: wasm.KindFunc, Idx: 0}},
		Code: []wasm.FuncBody{{Code: body(
			localGet(0),
			localGet(0),
			raw(wasm.OpF64Mul),
			localGet(1),
			localGet(1),
			raw(wasm.OpF64Mul),
			raw(wasm.OpF64Add),
			raw(wasm.OpF64Sqrt),
		)}},
	}
	v, err := parseAndCall(t, m, "hyp2", interp.F64(3), interp.F64(4))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if v.AsF64() != 5 {
		t.Errorf("hypot(3, 4): got %v", v.AsF64())
	}
}
