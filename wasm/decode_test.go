package wasm_test

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/wasm-interp/errors"
	"github.com/wippyai/wasm-interp/wasm"
)

func ptrTo[T any](v T) *T { return &v }

func TestParseMinimalModule(t *testing.T) {
	data := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	m, err := wasm.ParseModule(data)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	if m == nil {
		t.Fatal("expected non-nil module")
	}
}

func TestParseInvalidMagic(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}
	_, err := wasm.ParseModule(data)
	if !stderrors.Is(err, errors.InvalidInput()) {
		t.Errorf("expected invalid_input, got %v", err)
	}
}

func TestParseInvalidVersion(t *testing.T) {
	data := []byte{0x00, 0x61, 0x73, 0x6D, 0x02, 0x00, 0x00, 0x00}
	_, err := wasm.ParseModule(data)
	if !stderrors.Is(err, errors.BadVersion(2)) {
		t.Errorf("expected bad_version, got %v", err)
	}
}

func TestParseTruncatedHeader(t *testing.T) {
	data := []byte{0x00, 0x61, 0x73}
	if _, err := wasm.ParseModule(data); err == nil {
		t.Error("expected error for truncated header")
	}
}

func TestParseRoundTrip(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{
			{Params: []wasm.ValType{wasm.ValI32, wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
		},
		Funcs:    []uint32{0},
		Memories: []wasm.MemoryType{{Limits: wasm.Limits{Min: 1, Max: ptrTo(uint64(4))}}},
		Exports:  []wasm.Export{{Name: "add", Kind: wasm.KindFunc, Idx: 0}},
		Code: []wasm.FuncBody{{
			Code: []byte{
				wasm.OpLocalGet, 0x00,
				wasm.OpLocalGet, 0x01,
				wasm.OpI32Add,
				wasm.OpEnd,
			},
		}},
	}

	parsed, err := wasm.ParseModule(m.Encode())
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}

	if len(parsed.Types) != 1 || len(parsed.Types[0].Params) != 2 {
		t.Errorf("types: got %+v", parsed.Types)
	}
	if len(parsed.Funcs) != 1 || parsed.Funcs[0] != 0 {
		t.Errorf("funcs: got %v", parsed.Funcs)
	}
	if len(parsed.Memories) != 1 || parsed.Memories[0].Limits.Min != 1 {
		t.Errorf("memories: got %+v", parsed.Memories)
	}
	if parsed.Memories[0].Limits.Max == nil || *parsed.Memories[0].Limits.Max != 4 {
		t.Errorf("memory max: got %+v", parsed.Memories[0].Limits.Max)
	}
	if idx, ok := parsed.ExportedFunc("add"); !ok || idx != 0 {
		t.Errorf("export lookup: got %d, %v", idx, ok)
	}
	if len(parsed.Code) != 1 || len(parsed.Code[0].Code) != 6 {
		t.Errorf("code: got %+v", parsed.Code)
	}
}

func TestParseMemoryNoMax(t *testing.T) {
	m := &wasm.Module{
		Memories: []wasm.MemoryType{{Limits: wasm.Limits{Min: 2}}},
	}
	parsed, err := wasm.ParseModule(m.Encode())
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	if parsed.Memories[0].Limits.Max != nil {
		t.Errorf("expected no max, got %v", *parsed.Memories[0].Limits.Max)
	}
}

func TestParseMultipleMemoriesRejected(t *testing.T) {
	// section 5 with two memory entries
	data := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x05, 0x05, 0x02, 0x00, 0x01, 0x00, 0x01,
	}
	_, err := wasm.ParseModule(data)
	if !stderrors.Is(err, errors.Misc("")) {
		t.Errorf("expected misc error, got %v", err)
	}
}

func TestParseBadLimitFlag(t *testing.T) {
	data := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x05, 0x03, 0x01, 0x02, 0x01,
	}
	_, err := wasm.ParseModule(data)
	if !stderrors.Is(err, errors.UnexpectedData("")) {
		t.Errorf("expected unexpected_data, got %v", err)
	}
}

func TestParseBadTypeByte(t *testing.T) {
	// type section whose entry is not 0x60
	data := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x04, 0x01, 0x5F, 0x00, 0x00,
	}
	_, err := wasm.ParseModule(data)
	if !stderrors.Is(err, errors.UnexpectedData("")) {
		t.Errorf("expected unexpected_data, got %v", err)
	}
}

func TestParseBadParamType(t *testing.T) {
	// function type with an invalid parameter type byte
	data := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x05, 0x01, 0x60, 0x01, 0x7A, 0x00,
	}
	_, err := wasm.ParseModule(data)
	if !stderrors.Is(err, errors.UnexpectedData("")) {
		t.Errorf("expected unexpected_data, got %v", err)
	}
}

func TestParseDuplicateExportName(t *testing.T) {
	m := &wasm.Module{
		Types:   []wasm.FuncType{{Results: []wasm.ValType{wasm.ValI32}}},
		Funcs:   []uint32{0, 0},
		Exports: []wasm.Export{{Name: "f", Kind: wasm.KindFunc, Idx: 0}, {Name: "f", Kind: wasm.KindFunc, Idx: 1}},
		Code: []wasm.FuncBody{
			{Code: []byte{wasm.OpI32Const, 0x00, wasm.OpEnd}},
			{Code: []byte{wasm.OpI32Const, 0x01, wasm.OpEnd}},
		},
	}
	_, err := wasm.ParseModule(m.Encode())
	if !stderrors.Is(err, errors.UnexpectedData("")) {
		t.Errorf("expected unexpected_data, got %v", err)
	}
}

func TestParseBadExportKind(t *testing.T) {
	data := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x07, 0x05, 0x01, 0x01, 'f', 0x04, 0x00,
	}
	_, err := wasm.ParseModule(data)
	if !stderrors.Is(err, errors.UnexpectedData("")) {
		t.Errorf("expected unexpected_data, got %v", err)
	}
}

func TestParseFunctionTypeOutOfRange(t *testing.T) {
	data := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x03, 0x02, 0x01, 0x05, // function section: one function, type index 5
	}
	_, err := wasm.ParseModule(data)
	if !stderrors.Is(err, errors.Misc("")) {
		t.Errorf("expected misc error, got %v", err)
	}
}

func TestParseUnknownSectionSkipped(t *testing.T) {
	// custom section (id 0) followed by an element section (id 9), both skipped
	data := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x00, 0x03, 0x01, 'x', 0xFF,
		0x09, 0x01, 0x00,
	}
	m, err := wasm.ParseModule(data)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	if len(m.Types) != 0 || len(m.Code) != 0 {
		t.Errorf("skipped sections should not populate the module: %+v", m)
	}
}

func TestParseSectionTruncated(t *testing.T) {
	// section claims 10 bytes but only 2 remain
	data := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x0A, 0x01, 0x60,
	}
	_, err := wasm.ParseModule(data)
	if !stderrors.Is(err, errors.EndOfData()) {
		t.Errorf("expected end_of_data, got %v", err)
	}
}

func TestParseLocalsExpansion(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{{Results: []wasm.ValType{wasm.ValI64}}},
		Funcs: []uint32{0},
		Code: []wasm.FuncBody{{
			Locals: []wasm.LocalEntry{
				{Count: 2, ValType: wasm.ValI64},
				{Count: 1, ValType: wasm.ValF32},
			},
			Code: []byte{wasm.OpLocalGet, 0x00, wasm.OpEnd},
		}},
	}
	parsed, err := wasm.ParseModule(m.Encode())
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	locals := parsed.Code[0].ExpandLocals()
	want := []wasm.ValType{wasm.ValI64, wasm.ValI64, wasm.ValF32}
	if len(locals) != len(want) {
		t.Fatalf("locals: got %v, want %v", locals, want)
	}
	for i := range want {
		if locals[i] != want[i] {
			t.Errorf("local %d: got %v, want %v", i, locals[i], want[i])
		}
	}
}

func TestGetFuncType(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{
			{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
		},
		Funcs: []uint32{0},
	}
	if ft := m.GetFuncType(0); ft == nil || len(ft.Params) != 1 {
		t.Errorf("GetFuncType(0): got %+v", ft)
	}
	if ft := m.GetFuncType(1); ft != nil {
		t.Errorf("GetFuncType(1): expected nil, got %+v", ft)
	}
}

func TestAddTypeReusesEqualSignature(t *testing.T) {
	m := &wasm.Module{}
	ft := wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}}
	a := m.AddType(ft)
	b := m.AddType(ft)
	if a != b {
		t.Errorf("expected reuse: %d != %d", a, b)
	}
	c := m.AddType(wasm.FuncType{Params: []wasm.ValType{wasm.ValI64}})
	if c == a {
		t.Error("different signature should get a new index")
	}
}
