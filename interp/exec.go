package interp

import (
	"github.com/wippyai/wasm-interp/errors"
	"github.com/wippyai/wasm-interp/wasm"
)

// execSeq executes an instruction sequence in order, stopping at the
// first control transfer and handing it to the enclosing block.
func (in *Instance) execSeq(body []wasm.Instruction, stack *Stack, locals []Value) (ctrl, error) {
	for i := range body {
		c, err := in.step(&body[i], stack, locals)
		if err != nil {
			return ctrl{}, err
		}
		if c.kind != ctrlNone {
			return c, nil
		}
	}
	return ctrl{}, nil
}

// execBlock runs a structured block body under the block's continuation
// policy: a depth-0 branch re-enters a loop or exits a plain block, a
// deeper branch is decremented and bubbled, return and trap bubble
// unchanged, and running off the end falls through.
func (in *Instance) execBlock(body []wasm.Instruction, loop bool, stack *Stack, locals []Value) (ctrl, error) {
	for {
		c, err := in.execSeq(body, stack, locals)
		if err != nil {
			return ctrl{}, err
		}
		switch c.kind {
		case ctrlBranch:
			if c.depth == 0 {
				if loop {
					debugf("branch restarts loop")
					continue
				}
				return ctrl{}, nil
			}
			return ctrlBranchTo(c.depth - 1), nil
		case ctrlReturn, ctrlTrap:
			return c, nil
		}
		// Fell through the end of the body.
		return ctrl{}, nil
	}
}

// step executes a single instruction.
func (in *Instance) step(instr *wasm.Instruction, stack *Stack, locals []Value) (ctrl, error) {
	switch op := instr.Opcode; op {
	case wasm.OpUnreachable:
		return ctrlTrapWith(TrapUnreachable), nil

	case wasm.OpNop:
		return ctrl{}, nil

	case wasm.OpBlock, wasm.OpLoop:
		imm := instr.Imm.(wasm.BlockImm)
		return in.execBlock(imm.Body, op == wasm.OpLoop, stack, locals)

	case wasm.OpIf:
		imm := instr.Imm.(wasm.BlockImm)
		cond, err := popTyped(stack, wasm.ValI32)
		if err != nil {
			return ctrl{}, err
		}
		if cond.AsI32() != 0 {
			return in.execBlock(imm.Body, false, stack, locals)
		}
		if imm.Else != nil {
			return in.execBlock(imm.Else, false, stack, locals)
		}
		return ctrl{}, nil

	case wasm.OpBr:
		return ctrlBranchTo(instr.Imm.(wasm.BranchImm).LabelIdx), nil

	case wasm.OpBrIf:
		cond, err := popTyped(stack, wasm.ValI32)
		if err != nil {
			return ctrl{}, err
		}
		if cond.AsI32() == 0 {
			return ctrl{}, nil
		}
		return ctrlBranchTo(instr.Imm.(wasm.BranchImm).LabelIdx), nil

	case wasm.OpBrTable:
		imm := instr.Imm.(wasm.BrTableImm)
		sel, err := popTyped(stack, wasm.ValI32)
		if err != nil {
			return ctrl{}, err
		}
		i := uint32(sel.AsI32())
		if i < uint32(len(imm.Labels)) {
			return ctrlBranchTo(imm.Labels[i]), nil
		}
		return ctrlBranchTo(imm.Default), nil

	case wasm.OpReturn:
		return ctrl{kind: ctrlReturn}, nil

	case wasm.OpCall:
		return in.execCall(instr.Imm.(wasm.CallImm).FuncIdx, stack)

	case wasm.OpDrop:
		_, err := stack.Pop()
		return ctrl{}, err

	case wasm.OpSelect:
		return ctrl{}, execSelect(stack)

	case wasm.OpLocalGet:
		idx := instr.Imm.(wasm.LocalImm).LocalIdx
		if int(idx) >= len(locals) {
			return ctrl{}, errors.Misc("local index %d out of range", idx)
		}
		stack.Push(locals[idx])
		return ctrl{}, nil

	case wasm.OpLocalSet:
		idx := instr.Imm.(wasm.LocalImm).LocalIdx
		if int(idx) >= len(locals) {
			return ctrl{}, errors.Misc("local index %d out of range", idx)
		}
		v, err := stack.Pop()
		if err != nil {
			return ctrl{}, err
		}
		locals[idx] = v
		return ctrl{}, nil

	case wasm.OpLocalTee:
		idx := instr.Imm.(wasm.LocalImm).LocalIdx
		if int(idx) >= len(locals) {
			return ctrl{}, errors.Misc("local index %d out of range", idx)
		}
		v, err := stack.Peek(0)
		if err != nil {
			return ctrl{}, err
		}
		locals[idx] = v
		return ctrl{}, nil

	case wasm.OpI32Const:
		stack.Push(I32(instr.Imm.(wasm.I32Imm).Value))
		return ctrl{}, nil

	case wasm.OpI64Const:
		stack.Push(I64(instr.Imm.(wasm.I64Imm).Value))
		return ctrl{}, nil

	case wasm.OpF32Const:
		stack.Push(F32(instr.Imm.(wasm.F32Imm).Value))
		return ctrl{}, nil

	case wasm.OpF64Const:
		stack.Push(F64(instr.Imm.(wasm.F64Imm).Value))
		return ctrl{}, nil

	case wasm.OpMemorySize:
		stack.Push(I32(int32(in.mem.Size())))
		return ctrl{}, nil

	case wasm.OpMemoryGrow:
		delta, err := popTyped(stack, wasm.ValI32)
		if err != nil {
			return ctrl{}, err
		}
		stack.Push(I32(int32(in.mem.Grow(uint64(uint32(delta.AsI32()))))))
		return ctrl{}, nil

	default:
		if op >= wasm.OpI32Load && op <= wasm.OpI64Load32U {
			return in.execLoad(op, instr.Imm.(wasm.MemoryImm), stack)
		}
		if op >= wasm.OpI32Store && op <= wasm.OpI64Store32 {
			return in.execStore(op, instr.Imm.(wasm.MemoryImm), stack)
		}
		return execNumeric(instr, stack)
	}
}

// execCall pops the callee's arguments (last pushed first), restores
// declaration order, and invokes the callee with a fresh stack and
// locals. The callee's single result lands back on the caller's stack.
func (in *Instance) execCall(funcIdx uint32, stack *Stack) (ctrl, error) {
	if int(funcIdx) >= len(in.funcs) {
		return ctrl{}, errors.Misc("call to function %d of %d", funcIdx, len(in.funcs))
	}
	debugf("calling function %d", funcIdx)

	numParams := len(in.funcs[funcIdx].Type.Params)
	args := make([]Value, numParams)
	for i := numParams - 1; i >= 0; i-- {
		v, err := stack.Pop()
		if err != nil {
			return ctrl{}, err
		}
		args[i] = v
	}

	result, c, err := in.invoke(funcIdx, args)
	if err != nil {
		return ctrl{}, err
	}
	if c.kind == ctrlTrap {
		return c, nil
	}
	stack.Push(result)
	return ctrl{}, nil
}

func execSelect(stack *Stack) error {
	cond, err := popTyped(stack, wasm.ValI32)
	if err != nil {
		return err
	}
	v2, err := stack.Pop()
	if err != nil {
		return err
	}
	v1, err := stack.Pop()
	if err != nil {
		return err
	}
	if v1.Type != v2.Type {
		return errors.Misc("select operands are %s and %s", v1.Type, v2.Type)
	}
	if cond.AsI32() != 0 {
		stack.Push(v1)
	} else {
		stack.Push(v2)
	}
	return nil
}

// loadSpec describes one opcode of the load family: result type, access
// width, and whether sub-word results sign-extend.
type loadSpec struct {
	resultType wasm.ValType
	bitwidth   uint32
	signed     bool
}

var loadSpecs = map[byte]loadSpec{
	wasm.OpI32Load:    {wasm.ValI32, 32, false},
	wasm.OpI64Load:    {wasm.ValI64, 64, false},
	wasm.OpF32Load:    {wasm.ValF32, 32, false},
	wasm.OpF64Load:    {wasm.ValF64, 64, false},
	wasm.OpI32Load8S:  {wasm.ValI32, 8, true},
	wasm.OpI32Load8U:  {wasm.ValI32, 8, false},
	wasm.OpI32Load16S: {wasm.ValI32, 16, true},
	wasm.OpI32Load16U: {wasm.ValI32, 16, false},
	wasm.OpI64Load8S:  {wasm.ValI64, 8, true},
	wasm.OpI64Load8U:  {wasm.ValI64, 8, false},
	wasm.OpI64Load16S: {wasm.ValI64, 16, true},
	wasm.OpI64Load16U: {wasm.ValI64, 16, false},
	wasm.OpI64Load32S: {wasm.ValI64, 32, true},
	wasm.OpI64Load32U: {wasm.ValI64, 32, false},
}

func (in *Instance) execLoad(op byte, imm wasm.MemoryImm, stack *Stack) (ctrl, error) {
	spec := loadSpecs[op]
	base, err := popTyped(stack, wasm.ValI32)
	if err != nil {
		return ctrl{}, err
	}
	address := uint64(uint32(base.AsI32())) + uint64(imm.Offset)
	bits, ok := in.mem.Read(spec.bitwidth, address, spec.signed)
	if !ok {
		return ctrlTrapWith(TrapMemoryOutOfBounds), nil
	}
	// Sub-word i32 results keep only their low 32 bits under the tag.
	if spec.resultType == wasm.ValI32 {
		bits = uint64(uint32(bits))
	}
	stack.Push(Raw(spec.resultType, bits))
	return ctrl{}, nil
}

// storeSpec describes one opcode of the store family: the operand type
// popped and the width written.
type storeSpec struct {
	operandType wasm.ValType
	bitwidth    uint32
}

var storeSpecs = map[byte]storeSpec{
	wasm.OpI32Store:   {wasm.ValI32, 32},
	wasm.OpI64Store:   {wasm.ValI64, 64},
	wasm.OpF32Store:   {wasm.ValF32, 32},
	wasm.OpF64Store:   {wasm.ValF64, 64},
	wasm.OpI32Store8:  {wasm.ValI32, 8},
	wasm.OpI32Store16: {wasm.ValI32, 16},
	wasm.OpI64Store8:  {wasm.ValI64, 8},
	wasm.OpI64Store16: {wasm.ValI64, 16},
	wasm.OpI64Store32: {wasm.ValI64, 32},
}

func (in *Instance) execStore(op byte, imm wasm.MemoryImm, stack *Stack) (ctrl, error) {
	spec := storeSpecs[op]
	// The value was pushed after the address, so it pops first.
	value, err := popTyped(stack, spec.operandType)
	if err != nil {
		return ctrl{}, err
	}
	base, err := popTyped(stack, wasm.ValI32)
	if err != nil {
		return ctrl{}, err
	}
	address := uint64(uint32(base.AsI32())) + uint64(imm.Offset)
	if !in.mem.Write(value.Bits(), spec.bitwidth, address) {
		return ctrlTrapWith(TrapMemoryOutOfBounds), nil
	}
	return ctrl{}, nil
}

// popTyped pops a value and checks its tag.
func popTyped(stack *Stack, want wasm.ValType) (Value, error) {
	v, err := stack.Pop()
	if err != nil {
		return Value{}, err
	}
	if v.Type != want {
		return Value{}, errors.Misc("operand is %s, want %s", v.Type, want)
	}
	return v, nil
}
