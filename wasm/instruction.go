package wasm

import (
	"github.com/wippyai/wasm-interp/errors"
	"github.com/wippyai/wasm-interp/wasm/internal/binary"
)

// Instruction represents a decoded WebAssembly instruction with its
// immediate operands captured at decode time. Structured instructions
// (block, loop, if) carry their nested bodies.
type Instruction struct {
	Imm    any
	Opcode byte
}

// BlockImm holds the block type and nested bodies for block, loop, and if.
// Else is only populated for if instructions that carry an else arm.
type BlockImm struct {
	Body []Instruction
	Else []Instruction
	Type int32 // Block type: -64=void, -1=i32, -2=i64, -3=f32, -4=f64
}

// BranchImm holds the label index for br and br_if.
type BranchImm struct {
	LabelIdx uint32
}

// BrTableImm holds the label table for br_table.
type BrTableImm struct {
	Labels  []uint32
	Default uint32
}

// CallImm holds the function index for call.
type CallImm struct {
	FuncIdx uint32
}

// LocalImm holds the local index for local.get, local.set, local.tee.
type LocalImm struct {
	LocalIdx uint32
}

// MemoryImm holds memory access parameters for loads and stores.
type MemoryImm struct {
	Offset uint32
	Align  uint32
}

// I32Imm holds the constant value for i32.const.
type I32Imm struct {
	Value int32
}

// I64Imm holds the constant value for i64.const.
type I64Imm struct {
	Value int64
}

// F32Imm holds the constant value for f32.const.
type F32Imm struct {
	Value float32
}

// F64Imm holds the constant value for f64.const.
type F64Imm struct {
	Value float64
}

// MiscImm holds the sub-opcode for 0xFC prefix instructions.
type MiscImm struct {
	SubOpcode uint32
}

// DecodeInstructions decodes a function body's instruction sequence from
// raw bytes. The sequence must be terminated by the end opcode (0x0B).
func DecodeInstructions(code []byte) ([]Instruction, error) {
	r := binary.NewReader(code)
	body, term, err := readInstructionSeq(r)
	if err != nil {
		return nil, err
	}
	if term != OpEnd {
		return nil, errors.UnexpectedData("expected end of expression")
	}
	return body, nil
}

// readInstructionSeq reads instructions until a block terminator (end or
// else) and returns the sequence together with the terminator opcode.
func readInstructionSeq(r *binary.Reader) ([]Instruction, byte, error) {
	var out []Instruction
	for {
		op, err := r.ReadByte()
		if err != nil {
			return nil, 0, err
		}
		if op == OpEnd || op == OpElse {
			return out, op, nil
		}
		instr, err := readInstruction(r, op)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, instr)
	}
}

func readInstruction(r *binary.Reader, op byte) (Instruction, error) {
	instr := Instruction{Opcode: op}

	switch op {
	case OpUnreachable, OpNop, OpReturn, OpDrop, OpSelect:
		// no immediates

	case OpBlock, OpLoop, OpIf:
		bt, err := readBlockType(r)
		if err != nil {
			return instr, err
		}
		body, term, err := readInstructionSeq(r)
		if err != nil {
			return instr, err
		}
		imm := BlockImm{Type: bt, Body: body}
		if term == OpElse {
			if op != OpIf {
				return instr, errors.UnexpectedData("else outside an if block")
			}
			elseBody, term2, err := readInstructionSeq(r)
			if err != nil {
				return instr, err
			}
			if term2 != OpEnd {
				return instr, errors.UnexpectedData("expected end of else arm")
			}
			imm.Else = elseBody
		}
		instr.Imm = imm

	case OpBr, OpBrIf:
		idx, err := r.ReadU32()
		if err != nil {
			return instr, err
		}
		instr.Imm = BranchImm{LabelIdx: idx}

	case OpBrTable:
		count, err := r.ReadU32()
		if err != nil {
			return instr, err
		}
		labels := make([]uint32, count)
		for i := range labels {
			if labels[i], err = r.ReadU32(); err != nil {
				return instr, err
			}
		}
		def, err := r.ReadU32()
		if err != nil {
			return instr, err
		}
		instr.Imm = BrTableImm{Labels: labels, Default: def}

	case OpCall:
		idx, err := r.ReadU32()
		if err != nil {
			return instr, err
		}
		instr.Imm = CallImm{FuncIdx: idx}

	case OpLocalGet, OpLocalSet, OpLocalTee:
		idx, err := r.ReadU32()
		if err != nil {
			return instr, err
		}
		instr.Imm = LocalImm{LocalIdx: idx}

	case OpI32Load, OpI64Load, OpF32Load, OpF64Load,
		OpI32Load8S, OpI32Load8U, OpI32Load16S, OpI32Load16U,
		OpI64Load8S, OpI64Load8U, OpI64Load16S, OpI64Load16U,
		OpI64Load32S, OpI64Load32U,
		OpI32Store, OpI64Store, OpF32Store, OpF64Store,
		OpI32Store8, OpI32Store16, OpI64Store8, OpI64Store16, OpI64Store32:
		align, err := r.ReadU32()
		if err != nil {
			return instr, err
		}
		offset, err := r.ReadU32()
		if err != nil {
			return instr, err
		}
		instr.Imm = MemoryImm{Align: align, Offset: offset}

	case OpMemorySize, OpMemoryGrow:
		// single memory: the index byte must be zero
		idx, err := r.ReadByte()
		if err != nil {
			return instr, err
		}
		if idx != 0 {
			return instr, errors.UnexpectedData("expected memory index zero")
		}

	case OpI32Const:
		v, err := r.ReadS32()
		if err != nil {
			return instr, err
		}
		instr.Imm = I32Imm{Value: v}

	case OpI64Const:
		v, err := r.ReadS64()
		if err != nil {
			return instr, err
		}
		instr.Imm = I64Imm{Value: v}

	case OpF32Const:
		v, err := r.ReadF32()
		if err != nil {
			return instr, err
		}
		instr.Imm = F32Imm{Value: v}

	case OpF64Const:
		v, err := r.ReadF64()
		if err != nil {
			return instr, err
		}
		instr.Imm = F64Imm{Value: v}

	case OpPrefixMisc:
		sub, err := r.ReadU32()
		if err != nil {
			return instr, err
		}
		if sub > MiscI64TruncSatF64U {
			return instr, errors.UnknownSecondaryOpcode(OpPrefixMisc, sub)
		}
		instr.Imm = MiscImm{SubOpcode: sub}

	default:
		// Everything from eqz through the reinterpret family is a bare
		// opcode with no immediates.
		if op >= OpI32Eqz && op <= OpF64ReinterpretI64 {
			break
		}
		return instr, errors.UnknownOpcode(op)
	}

	return instr, nil
}

func readBlockType(r *binary.Reader) (int32, error) {
	bt, err := r.ReadS32()
	if err != nil {
		return 0, err
	}
	switch bt {
	case BlockTypeVoid, BlockTypeI32, BlockTypeI64, BlockTypeF32, BlockTypeF64:
		return bt, nil
	default:
		return 0, errors.UnexpectedData("expected a block type")
	}
}
