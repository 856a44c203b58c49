package interp

import (
	"github.com/wippyai/wasm-interp/errors"
	"github.com/wippyai/wasm-interp/wasm"
)

// Function is an executable routine: its signature, the types of its
// declared locals (beyond parameters), and its decoded instruction tree.
// Immutable once the instance is built.
type Function struct {
	Type   wasm.FuncType
	Locals []wasm.ValType
	Body   []wasm.Instruction
}

// Instance is an executable module: functions resolved against their
// types, the export table, and the single linear memory. The memory is
// shared by every call made through the instance; each call owns its own
// value stack and locals.
type Instance struct {
	exports map[string]wasm.Export
	funcs   []Function
	mem     *Memory
}

// NewInstance builds an executable instance from a parsed module: function
// bodies are decoded into instruction trees and exports are resolved and
// range-checked.
func NewInstance(m *wasm.Module) (*Instance, error) {
	if len(m.Code) != len(m.Funcs) {
		return nil, errors.Misc("code section has %d bodies for %d declared functions",
			len(m.Code), len(m.Funcs))
	}

	in := &Instance{
		exports: make(map[string]wasm.Export, len(m.Exports)),
		funcs:   make([]Function, len(m.Funcs)),
	}

	for i, typeIdx := range m.Funcs {
		ft := m.GetFuncType(uint32(i))
		if ft == nil {
			return nil, errors.Misc("function %d references type %d of %d",
				i, typeIdx, len(m.Types))
		}
		body, err := wasm.DecodeInstructions(m.Code[i].Code)
		if err != nil {
			return nil, err
		}
		in.funcs[i] = Function{
			Type:   *ft,
			Locals: m.Code[i].ExpandLocals(),
			Body:   body,
		}
	}

	for _, e := range m.Exports {
		if _, dup := in.exports[e.Name]; dup {
			return nil, errors.Misc("duplicate export name %q", e.Name)
		}
		if e.Kind == wasm.KindFunc && int(e.Idx) >= len(in.funcs) {
			return nil, errors.Misc("export %q references function %d of %d",
				e.Name, e.Idx, len(in.funcs))
		}
		in.exports[e.Name] = e
	}

	// A module without a memory section still carries a zero-page memory:
	// every access traps out of bounds.
	limits := wasm.Limits{}
	if len(m.Memories) > 0 {
		limits = m.Memories[0].Limits
	}
	in.mem = NewMemory(limits)

	return in, nil
}

// Memory returns the instance's linear memory.
func (in *Instance) Memory() *Memory {
	return in.mem
}

// ExportedFunctions returns the name and signature of every exported
// function.
func (in *Instance) ExportedFunctions() map[string]wasm.FuncType {
	out := make(map[string]wasm.FuncType)
	for name, e := range in.exports {
		if e.Kind == wasm.KindFunc {
			out[name] = in.funcs[e.Idx].Type
		}
	}
	return out
}

// Call invokes the exported function of the given name with the given
// arguments and returns its single result. Traps surface as *TrapError;
// interpreter faults surface as *errors.Error.
func (in *Instance) Call(name string, args []Value) (Value, error) {
	e, ok := in.exports[name]
	if !ok {
		return Value{}, errors.Misc("no export named %q", name)
	}
	if e.Kind != wasm.KindFunc {
		return Value{}, errors.Misc("export %q is not a function", name)
	}

	result, c, err := in.invoke(e.Idx, args)
	if err != nil {
		return Value{}, err
	}
	if c.kind == ctrlTrap {
		return Value{}, &TrapError{Kind: c.trap}
	}
	return result, nil
}

// invoke runs one function: fresh stack, locals seeded with the arguments
// and zero-initialized declared locals, body executed as a
// branch-continuation block, exactly one result popped off a balanced
// stack.
func (in *Instance) invoke(funcIdx uint32, args []Value) (Value, ctrl, error) {
	f := &in.funcs[funcIdx]

	if len(args) != len(f.Type.Params) {
		return Value{}, ctrl{}, errors.Misc("function takes %d arguments, got %d",
			len(f.Type.Params), len(args))
	}
	for i, a := range args {
		if a.Type != f.Type.Params[i] {
			return Value{}, ctrl{}, errors.Misc("argument %d is %s, want %s",
				i, a.Type, f.Type.Params[i])
		}
	}
	if len(f.Type.Results) != 1 {
		return Value{}, ctrl{}, errors.Misc("function has %d results; only single-result functions are callable",
			len(f.Type.Results))
	}

	locals := make([]Value, len(f.Type.Params)+len(f.Locals))
	copy(locals, args)
	for i, t := range f.Locals {
		locals[len(f.Type.Params)+i] = Zero(t)
	}

	stack := &Stack{}
	c, err := in.execSeq(f.Body, stack, locals)
	if err != nil {
		return Value{}, ctrl{}, err
	}
	switch c.kind {
	case ctrlTrap:
		return Value{}, c, nil
	case ctrlNone, ctrlReturn, ctrlBranch:
		// A branch out of the top-level body targets the function frame
		// itself and behaves like a return.
	}

	result, err := stack.Pop()
	if err != nil {
		return Value{}, ctrl{}, err
	}
	if err := stack.AssertEmpty(); err != nil {
		return Value{}, ctrl{}, err
	}
	if result.Type != f.Type.Results[0] {
		return Value{}, ctrl{}, errors.Misc("result is %s, want %s",
			result.Type, f.Type.Results[0])
	}
	return result, c, nil
}
