// Package wasm provides WebAssembly binary format parsing and encoding
// for the numeric MVP subset this interpreter executes.
//
// # Supported Features
//
//   - Core value types (i32, i64, f32, f64)
//   - Type, function, memory, export, and code sections
//   - Structured control flow (block, loop, if/else, br, br_if, br_table,
//     return, call)
//   - The full numeric instruction set: constants, comparisons,
//     integer/float arithmetic, conversions, reinterpretations, and the
//     0xFC saturating truncation family
//   - Loads and stores at bitwidths 8/16/32/64 with sign/zero extension
//
// Unrecognized sections (imports, tables, globals, element/data segments,
// custom sections) are skipped during parsing; unrecognized opcodes are
// decode errors.
//
// # Parsing
//
// Parse a WebAssembly module from binary:
//
//	data, _ := os.ReadFile("module.wasm")
//	module, err := wasm.ParseModule(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Function bodies are kept as raw bytecode in module.Code; decode them on
// demand:
//
//	instructions, err := wasm.DecodeInstructions(module.Code[0].Code)
//
// Structured instructions carry their nested bodies, so the result is a
// tree: a block's body is a []Instruction inside its BlockImm.
//
// # Encoding
//
// Encode a module back to binary:
//
//	encoded := module.Encode()
//
// Round-trip parsing and encoding preserves module semantics for the
// supported sections.
package wasm
