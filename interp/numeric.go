package interp

import (
	"math"
	"math/bits"

	"github.com/wippyai/wasm-interp/errors"
	"github.com/wippyai/wasm-interp/wasm"
)

// execNumeric dispatches the numeric instruction families: tests,
// comparisons, integer and float arithmetic, and conversions.
func execNumeric(instr *wasm.Instruction, stack *Stack) (ctrl, error) {
	op := instr.Opcode
	switch {
	case op == wasm.OpI32Eqz:
		v, err := popTyped(stack, wasm.ValI32)
		if err != nil {
			return ctrl{}, err
		}
		stack.Push(boolValue(v.AsI32() == 0))
		return ctrl{}, nil

	case op == wasm.OpI64Eqz:
		v, err := popTyped(stack, wasm.ValI64)
		if err != nil {
			return ctrl{}, err
		}
		stack.Push(boolValue(v.AsI64() == 0))
		return ctrl{}, nil

	case op >= wasm.OpI32Eq && op <= wasm.OpI32GeU:
		return ctrl{}, execRelI32(op, stack)
	case op >= wasm.OpI64Eq && op <= wasm.OpI64GeU:
		return ctrl{}, execRelI64(op, stack)
	case op >= wasm.OpF32Eq && op <= wasm.OpF32Ge:
		return ctrl{}, execRelF32(op, stack)
	case op >= wasm.OpF64Eq && op <= wasm.OpF64Ge:
		return ctrl{}, execRelF64(op, stack)

	case op >= wasm.OpI32Clz && op <= wasm.OpI32Popcnt:
		return ctrl{}, execIUnOp32(op, stack)
	case op >= wasm.OpI32Add && op <= wasm.OpI32Rotr:
		return execIBinOp32(op, stack)
	case op >= wasm.OpI64Clz && op <= wasm.OpI64Popcnt:
		return ctrl{}, execIUnOp64(op, stack)
	case op >= wasm.OpI64Add && op <= wasm.OpI64Rotr:
		return execIBinOp64(op, stack)

	case op >= wasm.OpF32Abs && op <= wasm.OpF32Sqrt:
		return ctrl{}, execFUnOp32(op, stack)
	case op >= wasm.OpF32Add && op <= wasm.OpF32Copysign:
		return ctrl{}, execFBinOp32(op, stack)
	case op >= wasm.OpF64Abs && op <= wasm.OpF64Sqrt:
		return ctrl{}, execFUnOp64(op, stack)
	case op >= wasm.OpF64Add && op <= wasm.OpF64Copysign:
		return ctrl{}, execFBinOp64(op, stack)

	case op >= wasm.OpI32WrapI64 && op <= wasm.OpF64ReinterpretI64:
		return ctrl{}, execCvt(op, stack)

	case op == wasm.OpPrefixMisc:
		return ctrl{}, execTruncSat(instr.Imm.(wasm.MiscImm).SubOpcode, stack)

	default:
		return ctrl{}, errors.UnknownOpcode(op)
	}
}

func boolValue(b bool) Value {
	if b {
		return I32(1)
	}
	return I32(0)
}

func execRelI32(op byte, stack *Stack) error {
	b, err := popTyped(stack, wasm.ValI32)
	if err != nil {
		return err
	}
	a, err := popTyped(stack, wasm.ValI32)
	if err != nil {
		return err
	}
	s0, s1 := a.AsI32(), b.AsI32()
	u0, u1 := uint32(s0), uint32(s1)
	var r bool
	switch op {
	case wasm.OpI32Eq:
		r = s0 == s1
	case wasm.OpI32Ne:
		r = s0 != s1
	case wasm.OpI32LtS:
		r = s0 < s1
	case wasm.OpI32LtU:
		r = u0 < u1
	case wasm.OpI32GtS:
		r = s0 > s1
	case wasm.OpI32GtU:
		r = u0 > u1
	case wasm.OpI32LeS:
		r = s0 <= s1
	case wasm.OpI32LeU:
		r = u0 <= u1
	case wasm.OpI32GeS:
		r = s0 >= s1
	case wasm.OpI32GeU:
		r = u0 >= u1
	}
	stack.Push(boolValue(r))
	return nil
}

func execRelI64(op byte, stack *Stack) error {
	b, err := popTyped(stack, wasm.ValI64)
	if err != nil {
		return err
	}
	a, err := popTyped(stack, wasm.ValI64)
	if err != nil {
		return err
	}
	s0, s1 := a.AsI64(), b.AsI64()
	u0, u1 := uint64(s0), uint64(s1)
	var r bool
	switch op {
	case wasm.OpI64Eq:
		r = s0 == s1
	case wasm.OpI64Ne:
		r = s0 != s1
	case wasm.OpI64LtS:
		r = s0 < s1
	case wasm.OpI64LtU:
		r = u0 < u1
	case wasm.OpI64GtS:
		r = s0 > s1
	case wasm.OpI64GtU:
		r = u0 > u1
	case wasm.OpI64LeS:
		r = s0 <= s1
	case wasm.OpI64LeU:
		r = u0 <= u1
	case wasm.OpI64GeS:
		r = s0 >= s1
	case wasm.OpI64GeU:
		r = u0 >= u1
	}
	stack.Push(boolValue(r))
	return nil
}

func execRelF32(op byte, stack *Stack) error {
	b, err := popTyped(stack, wasm.ValF32)
	if err != nil {
		return err
	}
	a, err := popTyped(stack, wasm.ValF32)
	if err != nil {
		return err
	}
	v0, v1 := a.AsF32(), b.AsF32()
	var r bool
	switch op {
	case wasm.OpF32Eq:
		r = v0 == v1
	case wasm.OpF32Ne:
		r = v0 != v1
	case wasm.OpF32Lt:
		r = v0 < v1
	case wasm.OpF32Gt:
		r = v0 > v1
	case wasm.OpF32Le:
		r = v0 <= v1
	case wasm.OpF32Ge:
		r = v0 >= v1
	}
	stack.Push(boolValue(r))
	return nil
}

func execRelF64(op byte, stack *Stack) error {
	b, err := popTyped(stack, wasm.ValF64)
	if err != nil {
		return err
	}
	a, err := popTyped(stack, wasm.ValF64)
	if err != nil {
		return err
	}
	v0, v1 := a.AsF64(), b.AsF64()
	var r bool
	switch op {
	case wasm.OpF64Eq:
		r = v0 == v1
	case wasm.OpF64Ne:
		r = v0 != v1
	case wasm.OpF64Lt:
		r = v0 < v1
	case wasm.OpF64Gt:
		r = v0 > v1
	case wasm.OpF64Le:
		r = v0 <= v1
	case wasm.OpF64Ge:
		r = v0 >= v1
	}
	stack.Push(boolValue(r))
	return nil
}

func execIUnOp32(op byte, stack *Stack) error {
	v, err := popTyped(stack, wasm.ValI32)
	if err != nil {
		return err
	}
	u := uint32(v.AsI32())
	var r int
	switch op {
	case wasm.OpI32Clz:
		r = bits.LeadingZeros32(u)
	case wasm.OpI32Ctz:
		r = bits.TrailingZeros32(u)
	case wasm.OpI32Popcnt:
		r = bits.OnesCount32(u)
	}
	stack.Push(I32(int32(r)))
	return nil
}

func execIUnOp64(op byte, stack *Stack) error {
	v, err := popTyped(stack, wasm.ValI64)
	if err != nil {
		return err
	}
	u := uint64(v.AsI64())
	var r int
	switch op {
	case wasm.OpI64Clz:
		r = bits.LeadingZeros64(u)
	case wasm.OpI64Ctz:
		r = bits.TrailingZeros64(u)
	case wasm.OpI64Popcnt:
		r = bits.OnesCount64(u)
	}
	stack.Push(I64(int64(r)))
	return nil
}

// Integer binary arithmetic is wrapping two's complement throughout; the
// division family traps instead of overflowing, and shift counts are
// taken modulo the bitwidth.

func execIBinOp32(op byte, stack *Stack) (ctrl, error) {
	b, err := popTyped(stack, wasm.ValI32)
	if err != nil {
		return ctrl{}, err
	}
	a, err := popTyped(stack, wasm.ValI32)
	if err != nil {
		return ctrl{}, err
	}
	s0, s1 := a.AsI32(), b.AsI32()
	u0, u1 := uint32(s0), uint32(s1)
	var r int32
	switch op {
	case wasm.OpI32Add:
		r = s0 + s1
	case wasm.OpI32Sub:
		r = s0 - s1
	case wasm.OpI32Mul:
		r = s0 * s1
	case wasm.OpI32DivS:
		if s1 == 0 || (s0 == math.MinInt32 && s1 == -1) {
			return ctrlTrapWith(TrapUndefinedDivision), nil
		}
		r = s0 / s1
	case wasm.OpI32DivU:
		if u1 == 0 {
			return ctrlTrapWith(TrapUndefinedDivision), nil
		}
		r = int32(u0 / u1)
	case wasm.OpI32RemS:
		if s1 == 0 {
			return ctrlTrapWith(TrapUndefinedDivision), nil
		}
		r = s0 % s1 // MinInt32 % -1 is defined as 0
	case wasm.OpI32RemU:
		if u1 == 0 {
			return ctrlTrapWith(TrapUndefinedDivision), nil
		}
		r = int32(u0 % u1)
	case wasm.OpI32And:
		r = s0 & s1
	case wasm.OpI32Or:
		r = s0 | s1
	case wasm.OpI32Xor:
		r = s0 ^ s1
	case wasm.OpI32Shl:
		r = s0 << (u1 & 31)
	case wasm.OpI32ShrS:
		r = s0 >> (u1 & 31)
	case wasm.OpI32ShrU:
		r = int32(u0 >> (u1 & 31))
	case wasm.OpI32Rotl:
		r = int32(bits.RotateLeft32(u0, int(u1&31)))
	case wasm.OpI32Rotr:
		r = int32(bits.RotateLeft32(u0, -int(u1&31)))
	}
	stack.Push(I32(r))
	return ctrl{}, nil
}

func execIBinOp64(op byte, stack *Stack) (ctrl, error) {
	b, err := popTyped(stack, wasm.ValI64)
	if err != nil {
		return ctrl{}, err
	}
	a, err := popTyped(stack, wasm.ValI64)
	if err != nil {
		return ctrl{}, err
	}
	s0, s1 := a.AsI64(), b.AsI64()
	u0, u1 := uint64(s0), uint64(s1)
	var r int64
	switch op {
	case wasm.OpI64Add:
		r = s0 + s1
	case wasm.OpI64Sub:
		r = s0 - s1
	case wasm.OpI64Mul:
		r = s0 * s1
	case wasm.OpI64DivS:
		if s1 == 0 || (s0 == math.MinInt64 && s1 == -1) {
			return ctrlTrapWith(TrapUndefinedDivision), nil
		}
		r = s0 / s1
	case wasm.OpI64DivU:
		if u1 == 0 {
			return ctrlTrapWith(TrapUndefinedDivision), nil
		}
		r = int64(u0 / u1)
	case wasm.OpI64RemS:
		if s1 == 0 {
			return ctrlTrapWith(TrapUndefinedDivision), nil
		}
		r = s0 % s1 // MinInt64 % -1 is defined as 0
	case wasm.OpI64RemU:
		if u1 == 0 {
			return ctrlTrapWith(TrapUndefinedDivision), nil
		}
		r = int64(u0 % u1)
	case wasm.OpI64And:
		r = s0 & s1
	case wasm.OpI64Or:
		r = s0 | s1
	case wasm.OpI64Xor:
		r = s0 ^ s1
	case wasm.OpI64Shl:
		r = s0 << (u1 & 63)
	case wasm.OpI64ShrS:
		r = s0 >> (u1 & 63)
	case wasm.OpI64ShrU:
		r = int64(u0 >> (u1 & 63))
	case wasm.OpI64Rotl:
		r = int64(bits.RotateLeft64(u0, int(u1&63)))
	case wasm.OpI64Rotr:
		r = int64(bits.RotateLeft64(u0, -int(u1&63)))
	}
	stack.Push(I64(r))
	return ctrl{}, nil
}

func execFUnOp32(op byte, stack *Stack) error {
	v, err := popTyped(stack, wasm.ValF32)
	if err != nil {
		return err
	}
	x := v.AsF32()
	var r float32
	switch op {
	case wasm.OpF32Abs:
		r = math.Float32frombits(math.Float32bits(x) &^ (1 << 31))
	case wasm.OpF32Neg:
		r = math.Float32frombits(math.Float32bits(x) ^ (1 << 31))
	case wasm.OpF32Ceil:
		r = float32(math.Ceil(float64(x)))
	case wasm.OpF32Floor:
		r = float32(math.Floor(float64(x)))
	case wasm.OpF32Trunc:
		r = float32(math.Trunc(float64(x)))
	case wasm.OpF32Nearest:
		r = float32(nearest(float64(x)))
	case wasm.OpF32Sqrt:
		r = float32(math.Sqrt(float64(x)))
	}
	stack.Push(F32(r))
	return nil
}

func execFUnOp64(op byte, stack *Stack) error {
	v, err := popTyped(stack, wasm.ValF64)
	if err != nil {
		return err
	}
	x := v.AsF64()
	var r float64
	switch op {
	case wasm.OpF64Abs:
		r = math.Abs(x)
	case wasm.OpF64Neg:
		r = math.Float64frombits(math.Float64bits(x) ^ (1 << 63))
	case wasm.OpF64Ceil:
		r = math.Ceil(x)
	case wasm.OpF64Floor:
		r = math.Floor(x)
	case wasm.OpF64Trunc:
		r = math.Trunc(x)
	case wasm.OpF64Nearest:
		r = nearest(x)
	case wasm.OpF64Sqrt:
		r = math.Sqrt(x)
	}
	stack.Push(F64(r))
	return nil
}

// nearest rounds ties to even: compute both neighbors and their
// distances, preferring the upper one when strictly closer or when tied
// and even.
func nearest(x float64) float64 {
	if x == 0 || math.IsNaN(x) {
		return x
	}
	u := math.Ceil(x)
	d := math.Floor(x)
	um := math.Abs(x - u)
	dm := math.Abs(x - d)
	if um < dm || (um == dm && math.Floor(u/2) == u/2) {
		return u
	}
	return d
}

func execFBinOp32(op byte, stack *Stack) error {
	b, err := popTyped(stack, wasm.ValF32)
	if err != nil {
		return err
	}
	a, err := popTyped(stack, wasm.ValF32)
	if err != nil {
		return err
	}
	v0, v1 := a.AsF32(), b.AsF32()
	var r float32
	switch op {
	case wasm.OpF32Add:
		r = v0 + v1
	case wasm.OpF32Sub:
		r = v0 - v1
	case wasm.OpF32Mul:
		r = v0 * v1
	case wasm.OpF32Div:
		r = v0 / v1
	case wasm.OpF32Min:
		r = fmin32(v0, v1)
	case wasm.OpF32Max:
		r = fmax32(v0, v1)
	case wasm.OpF32Copysign:
		r = math.Float32frombits(math.Float32bits(v0)&^(1<<31) | math.Float32bits(v1)&(1<<31))
	}
	stack.Push(F32(r))
	return nil
}

func execFBinOp64(op byte, stack *Stack) error {
	b, err := popTyped(stack, wasm.ValF64)
	if err != nil {
		return err
	}
	a, err := popTyped(stack, wasm.ValF64)
	if err != nil {
		return err
	}
	v0, v1 := a.AsF64(), b.AsF64()
	var r float64
	switch op {
	case wasm.OpF64Add:
		r = v0 + v1
	case wasm.OpF64Sub:
		r = v0 - v1
	case wasm.OpF64Mul:
		r = v0 * v1
	case wasm.OpF64Div:
		r = v0 / v1
	case wasm.OpF64Min:
		r = fmin64(v0, v1)
	case wasm.OpF64Max:
		r = fmax64(v0, v1)
	case wasm.OpF64Copysign:
		r = math.Copysign(v0, v1)
	}
	stack.Push(F64(r))
	return nil
}

// min/max follow the wasm rules: NaN if either operand is NaN, and on
// equal operands the bit patterns are combined so the negative zero wins
// for min and the positive zero wins for max.

func fmin32(a, b float32) float32 {
	if a == b {
		return math.Float32frombits(math.Float32bits(a) | math.Float32bits(b))
	}
	if a < b {
		return a
	}
	if a > b {
		return b
	}
	return float32(math.NaN())
}

func fmax32(a, b float32) float32 {
	if a == b {
		return math.Float32frombits(math.Float32bits(a) & math.Float32bits(b))
	}
	if a > b {
		return a
	}
	if a < b {
		return b
	}
	return float32(math.NaN())
}

func fmin64(a, b float64) float64 {
	if a == b {
		return math.Float64frombits(math.Float64bits(a) | math.Float64bits(b))
	}
	if a < b {
		return a
	}
	if a > b {
		return b
	}
	return math.NaN()
}

func fmax64(a, b float64) float64 {
	if a == b {
		return math.Float64frombits(math.Float64bits(a) & math.Float64bits(b))
	}
	if a > b {
		return a
	}
	if a < b {
		return b
	}
	return math.NaN()
}

func execCvt(op byte, stack *Stack) error {
	switch op {
	case wasm.OpI32WrapI64:
		v, err := popTyped(stack, wasm.ValI64)
		if err != nil {
			return err
		}
		stack.Push(I32(int32(v.AsI64())))

	case wasm.OpI64ExtendI32S:
		v, err := popTyped(stack, wasm.ValI32)
		if err != nil {
			return err
		}
		stack.Push(I64(int64(v.AsI32())))

	case wasm.OpI64ExtendI32U:
		v, err := popTyped(stack, wasm.ValI32)
		if err != nil {
			return err
		}
		stack.Push(I64(int64(uint32(v.AsI32()))))

	case wasm.OpI32TruncF32S:
		v, err := popTyped(stack, wasm.ValF32)
		if err != nil {
			return err
		}
		stack.Push(I32(truncToI32s(float64(v.AsF32()))))
	case wasm.OpI32TruncF32U:
		v, err := popTyped(stack, wasm.ValF32)
		if err != nil {
			return err
		}
		stack.Push(I32(int32(truncToI32u(float64(v.AsF32())))))
	case wasm.OpI32TruncF64S:
		v, err := popTyped(stack, wasm.ValF64)
		if err != nil {
			return err
		}
		stack.Push(I32(truncToI32s(v.AsF64())))
	case wasm.OpI32TruncF64U:
		v, err := popTyped(stack, wasm.ValF64)
		if err != nil {
			return err
		}
		stack.Push(I32(int32(truncToI32u(v.AsF64()))))
	case wasm.OpI64TruncF32S:
		v, err := popTyped(stack, wasm.ValF32)
		if err != nil {
			return err
		}
		stack.Push(I64(truncToI64s(float64(v.AsF32()))))
	case wasm.OpI64TruncF32U:
		v, err := popTyped(stack, wasm.ValF32)
		if err != nil {
			return err
		}
		stack.Push(I64(int64(truncToI64u(float64(v.AsF32())))))
	case wasm.OpI64TruncF64S:
		v, err := popTyped(stack, wasm.ValF64)
		if err != nil {
			return err
		}
		stack.Push(I64(truncToI64s(v.AsF64())))
	case wasm.OpI64TruncF64U:
		v, err := popTyped(stack, wasm.ValF64)
		if err != nil {
			return err
		}
		stack.Push(I64(int64(truncToI64u(v.AsF64()))))

	case wasm.OpF32ConvertI32S:
		v, err := popTyped(stack, wasm.ValI32)
		if err != nil {
			return err
		}
		stack.Push(F32(float32(v.AsI32())))
	case wasm.OpF32ConvertI32U:
		v, err := popTyped(stack, wasm.ValI32)
		if err != nil {
			return err
		}
		stack.Push(F32(float32(uint32(v.AsI32()))))
	case wasm.OpF32ConvertI64S:
		v, err := popTyped(stack, wasm.ValI64)
		if err != nil {
			return err
		}
		stack.Push(F32(float32(v.AsI64())))
	case wasm.OpF32ConvertI64U:
		v, err := popTyped(stack, wasm.ValI64)
		if err != nil {
			return err
		}
		stack.Push(F32(float32(uint64(v.AsI64()))))
	case wasm.OpF64ConvertI32S:
		v, err := popTyped(stack, wasm.ValI32)
		if err != nil {
			return err
		}
		stack.Push(F64(float64(v.AsI32())))
	case wasm.OpF64ConvertI32U:
		v, err := popTyped(stack, wasm.ValI32)
		if err != nil {
			return err
		}
		stack.Push(F64(float64(uint32(v.AsI32()))))
	case wasm.OpF64ConvertI64S:
		v, err := popTyped(stack, wasm.ValI64)
		if err != nil {
			return err
		}
		stack.Push(F64(float64(v.AsI64())))
	case wasm.OpF64ConvertI64U:
		v, err := popTyped(stack, wasm.ValI64)
		if err != nil {
			return err
		}
		stack.Push(F64(float64(uint64(v.AsI64()))))

	case wasm.OpF32DemoteF64:
		v, err := popTyped(stack, wasm.ValF64)
		if err != nil {
			return err
		}
		stack.Push(F32(float32(v.AsF64())))
	case wasm.OpF64PromoteF32:
		v, err := popTyped(stack, wasm.ValF32)
		if err != nil {
			return err
		}
		stack.Push(F64(float64(v.AsF32())))

	case wasm.OpI32ReinterpretF32:
		v, err := popTyped(stack, wasm.ValF32)
		if err != nil {
			return err
		}
		stack.Push(Raw(wasm.ValI32, v.Bits()))
	case wasm.OpI64ReinterpretF64:
		v, err := popTyped(stack, wasm.ValF64)
		if err != nil {
			return err
		}
		stack.Push(Raw(wasm.ValI64, v.Bits()))
	case wasm.OpF32ReinterpretI32:
		v, err := popTyped(stack, wasm.ValI32)
		if err != nil {
			return err
		}
		stack.Push(Raw(wasm.ValF32, v.Bits()))
	case wasm.OpF64ReinterpretI64:
		v, err := popTyped(stack, wasm.ValI64)
		if err != nil {
			return err
		}
		stack.Push(Raw(wasm.ValF64, v.Bits()))
	}
	return nil
}

func execTruncSat(sub uint32, stack *Stack) error {
	srcType := wasm.ValF32
	if sub == wasm.MiscI32TruncSatF64S || sub == wasm.MiscI32TruncSatF64U ||
		sub == wasm.MiscI64TruncSatF64S || sub == wasm.MiscI64TruncSatF64U {
		srcType = wasm.ValF64
	}
	v, err := popTyped(stack, srcType)
	if err != nil {
		return err
	}
	var x float64
	if srcType == wasm.ValF32 {
		x = float64(v.AsF32())
	} else {
		x = v.AsF64()
	}
	switch sub {
	case wasm.MiscI32TruncSatF32S, wasm.MiscI32TruncSatF64S:
		stack.Push(I32(truncToI32s(x)))
	case wasm.MiscI32TruncSatF32U, wasm.MiscI32TruncSatF64U:
		stack.Push(I32(int32(truncToI32u(x))))
	case wasm.MiscI64TruncSatF32S, wasm.MiscI64TruncSatF64S:
		stack.Push(I64(truncToI64s(x)))
	case wasm.MiscI64TruncSatF32U, wasm.MiscI64TruncSatF64U:
		stack.Push(I64(int64(truncToI64u(x))))
	}
	return nil
}

// Float-to-int truncation is saturating: NaN maps to zero and
// out-of-range inputs clamp to the destination bounds. This also serves
// as the deterministic behavior of the non-saturating family, which this
// subset is permitted not to trap.

func truncToI32s(x float64) int32 {
	if math.IsNaN(x) {
		return 0
	}
	x = math.Trunc(x)
	if x < math.MinInt32 {
		return math.MinInt32
	}
	if x > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(x)
}

func truncToI32u(x float64) uint32 {
	if math.IsNaN(x) {
		return 0
	}
	x = math.Trunc(x)
	if x < 0 {
		return 0
	}
	if x > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(x)
}

func truncToI64s(x float64) int64 {
	if math.IsNaN(x) {
		return 0
	}
	x = math.Trunc(x)
	if x < math.MinInt64 {
		return math.MinInt64
	}
	if x >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(x)
}

func truncToI64u(x float64) uint64 {
	if math.IsNaN(x) {
		return 0
	}
	x = math.Trunc(x)
	if x < 0 {
		return 0
	}
	if x >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(x)
}
