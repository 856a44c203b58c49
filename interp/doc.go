// Package interp executes parsed WebAssembly modules.
//
// An Instance binds a parsed module's functions, exports, and single
// linear memory into an executable form. Calling an exported function
// runs a stack machine: each invocation owns a fresh value stack and
// locals vector, while the linear memory is shared across the whole call
// chain.
//
//	module, _ := wasm.ParseModule(data)
//	instance, _ := interp.NewInstance(module)
//	result, err := instance.Call("add", []interp.Value{interp.I32(2), interp.I32(3)})
//
// # Control flow
//
// Structured control flow is expressed without gotos or exceptions: every
// instruction execution yields a control token (continue, branch N,
// return, trap) that bubbles up through the nested block executors. A
// depth-0 branch exits the innermost plain block or restarts the
// innermost loop; deeper branches decrement as they unwind.
//
// # Error regimes
//
// Interpreter faults (malformed operands, stack imbalance, bad indices)
// surface as *errors.Error and abort the call immediately. Traps —
// defined runtime failures like memory accesses out of bounds or
// division by zero — bubble out like returns and surface from Call as
// *TrapError.
package interp
