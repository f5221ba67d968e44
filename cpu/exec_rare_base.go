package cpu

import (
	"github.com/mayhemheroes/libriscv/decode"
	"github.com/mayhemheroes/libriscv/defs"
)

// execRareBase handles every base-ISA shape that doesn't get its own
// fast BC_* slot: the OP-IMM funct3 != 0 family (SLTI/SLTIU/XORI/ORI/
// ANDI/SLLI/SRLI/SRAI), the RV64 *W word-arithmetic family (OP-IMM-32
// and OP-32), and CSR/privileged opcodes under SYSTEM, which this
// emulation level doesn't support and which therefore raise
// ILLEGAL_OPCODE, matching spec §4.4's "WFI/SFENCE.VMA/etc. ... raise
// ILLEGAL_OPCODE".
func execRareBase[T Word](c *CPU[T], w uint32) {
	i := decode.Instr32(w)
	switch i.Opcode() {
	case decode.OpOpImm:
		execOpImmRare(c, i)
	case decode.OpOpImm32:
		execOpImm32(c, i)
	case decode.OpOp32:
		execOp32(c, i)
	case decode.OpSystem:
		defs.Throw(defs.IllegalOpcode, "CSR/privileged instruction unsupported", uint64(c.PC))
	default:
		defs.Throw(defs.IllegalOpcode, "unexpected opcode in base slow path", uint64(w))
	}
}

func execOpImmRare[T Word](c *CPU[T], i decode.Instr32) {
	rs1 := u64(c.Regs.Get(i.Rs1()))
	as := signed(rs1, c.Opt.XLENBits)
	imm := int64(i.ITypeImm())
	var v int64
	switch i.Funct3() {
	case 0x1:
		v = int64(rs1 << uint(i.ShiftAmount(c.Opt.XLENBits)))
	case 0x2:
		v = boolToInt64(as < imm)
	case 0x3:
		v = boolToInt64(rs1 < uint64(imm))
	case 0x4:
		v = as ^ imm
	case 0x5:
		shamt := uint(i.ShiftAmount(c.Opt.XLENBits))
		if i.IsArithShiftOrSub() {
			v = as >> shamt
		} else {
			v = int64(logicalShiftRight(rs1, shamt, c.Opt.XLENBits))
		}
	case 0x6:
		v = as | imm
	case 0x7:
		v = as & imm
	default:
		defs.Throw(defs.IllegalOpcode, "unreachable OP-IMM funct3", uint64(i))
	}
	c.Regs.Set(i.Rd(), asT[T](v))
}

// execOpImm32 implements ADDIW/SLLIW/SRLIW/SRAIW: always 32-bit
// operands, result sign-extended to 64 bits, valid only when XLEN=64.
func execOpImm32[T Word](c *CPU[T], i decode.Instr32) {
	rs1 := uint32(c.Regs.Get(i.Rs1()))
	var v int32
	switch i.Funct3() {
	case 0x0:
		v = int32(rs1) + i.ITypeImm()
	case 0x1:
		v = int32(rs1 << (uint(i.ITypeImm()) & 0x1f))
	case 0x5:
		shamt := uint(i.ITypeImm()) & 0x1f
		if i.IsArithShiftOrSub() {
			v = int32(rs1) >> shamt
		} else {
			v = int32(rs1 >> shamt)
		}
	default:
		defs.Throw(defs.IllegalOpcode, "unreachable OP-IMM-32 funct3", uint64(i))
	}
	c.Regs.Set(i.Rd(), asT[T](int64(v)))
}

// execOp32 implements ADDW/SUBW/SLLW/SRLW/SRAW: register-register,
// 32-bit operands, result sign-extended to 64 bits.
func execOp32[T Word](c *CPU[T], i decode.Instr32) {
	a := uint32(c.Regs.Get(i.Rs1()))
	b := uint32(c.Regs.Get(i.Rs2()))
	shamt := uint(b) & 0x1f
	var v int32
	switch i.Funct3() {
	case 0x0:
		if i.IsArithShiftOrSub() {
			v = int32(a) - int32(b)
		} else {
			v = int32(a) + int32(b)
		}
	case 0x1:
		v = int32(a << shamt)
	case 0x5:
		if i.IsArithShiftOrSub() {
			v = int32(a) >> shamt
		} else {
			v = int32(a >> shamt)
		}
	default:
		defs.Throw(defs.IllegalOpcode, "unreachable OP-32 funct3", uint64(i))
	}
	c.Regs.Set(i.Rd(), asT[T](int64(v)))
}
