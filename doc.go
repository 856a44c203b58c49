// Package wasminterp is a WebAssembly bytecode interpreter for the
// numeric MVP subset: it parses binary modules and executes exported
// functions on a stack machine with a paged linear memory.
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	wasm-interp/
//	├── wasm/     Binary format: LEB128 reader, section parsing,
//	│             instruction decoding, encoding
//	├── interp/   Execution engine: values, stack, linear memory,
//	│             structured control flow, instances
//	├── errors/   Structured error types (phase/kind taxonomy)
//	└── cmd/run/  CLI driver: batch invocation and interactive TUI
//
// # Quick Start
//
// Parse a module and call an exported function:
//
//	data, _ := os.ReadFile("program.wasm")
//	module, err := wasm.ParseModule(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	instance, err := interp.NewInstance(module)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := instance.Call("add", []interp.Value{interp.I32(2), interp.I32(3)})
//	fmt.Println(result) // "(i32:5)"
//
// # Scope
//
// The interpreter executes the four numeric value types with the complete
// arithmetic, comparison, and conversion instruction set, structured
// control flow, direct calls, and a single bounds-checked linear memory.
// Imports, tables, globals, element/data segments, multi-value results,
// and the validation pass are out of scope; unknown sections are skipped
// and unknown opcodes are decode errors.
//
// # Error Model
//
// Interpreter errors (malformed input, stack discipline faults) are
// structured *errors.Error values. Traps — defined runtime failures such
// as out-of-bounds memory access and undefined division — bubble through
// the control-flow machinery as tokens and surface as *interp.TrapError.
package wasminterp
