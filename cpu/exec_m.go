package cpu

import (
	"math/bits"

	"github.com/mayhemheroes/libriscv/decode"
	"github.com/mayhemheroes/libriscv/defs"
)

// execM implements the M extension: MUL/MULH/MULHSU/MULHU/DIV/DIVU/
// REM/REMU for OP, and their *W word-narrowed counterparts for OP-32
// (RV64 only). Division by zero and the INT_MIN/-1 overflow case follow
// spec §4.4 exactly: DIV x/0 = -1, REM x/0 = x, INT_MIN/-1 = INT_MIN.
func execM[T Word](c *CPU[T], w uint32) {
	i := decode.Instr32(w)
	if i.Opcode() == decode.OpOp32 {
		execMW(c, i)
		return
	}

	a := u64(c.Regs.Get(i.Rs1()))
	b := u64(c.Regs.Get(i.Rs2()))
	as, bs := signed(a, c.Opt.XLENBits), signed(b, c.Opt.XLENBits)

	var v int64
	switch i.Funct3() {
	case 0x0: // MUL
		v = as * bs
	case 0x1: // MULH (signed x signed, high half)
		v = mulHighSigned(as, bs, c.Opt.XLENBits)
	case 0x2: // MULHSU (signed x unsigned, high half)
		v = mulHighSignedUnsigned(as, b, c.Opt.XLENBits)
	case 0x3: // MULHU (unsigned x unsigned, high half)
		v = int64(mulHighUnsigned(a, b, c.Opt.XLENBits))
	case 0x4: // DIV
		if bs == 0 {
			v = -1
		} else if as == minSigned(c.Opt.XLENBits) && bs == -1 {
			v = as
		} else {
			v = as / bs
		}
	case 0x5: // DIVU
		if b == 0 {
			v = int64(^uint64(0))
		} else {
			v = int64(a / b)
		}
	case 0x6: // REM
		if bs == 0 {
			v = as
		} else if as == minSigned(c.Opt.XLENBits) && bs == -1 {
			v = 0
		} else {
			v = as % bs
		}
	case 0x7: // REMU
		if b == 0 {
			v = int64(a)
		} else {
			v = int64(a % b)
		}
	default:
		defs.Throw(defs.IllegalOpcode, "unreachable M funct3", uint64(w))
	}
	c.Regs.Set(i.Rd(), asT[T](v))
}

// execMW implements MULW/DIVW/DIVUW/REMW/REMUW: 32-bit operands,
// result sign-extended to 64 bits.
func execMW[T Word](c *CPU[T], i decode.Instr32) {
	a := int32(c.Regs.Get(i.Rs1()))
	b := int32(c.Regs.Get(i.Rs2()))
	au, bu := uint32(a), uint32(b)

	var v int32
	switch i.Funct3() {
	case 0x0:
		v = a * b
	case 0x4:
		if b == 0 {
			v = -1
		} else if a == -1<<31 && b == -1 {
			v = a
		} else {
			v = a / b
		}
	case 0x5:
		if bu == 0 {
			v = -1
		} else {
			v = int32(au / bu)
		}
	case 0x6:
		if b == 0 {
			v = a
		} else if a == -1<<31 && b == -1 {
			v = 0
		} else {
			v = a % b
		}
	case 0x7:
		if bu == 0 {
			v = a
		} else {
			v = int32(au % bu)
		}
	default:
		defs.Throw(defs.IllegalOpcode, "unreachable M-32 funct3", uint64(i))
	}
	c.Regs.Set(i.Rd(), asT[T](int64(v)))
}

func minSigned(xlenBits uint) int64 {
	if xlenBits <= 32 {
		return int64(int32(1 << 31))
	}
	return int64(int64(1) << 63)
}

func mulHighUnsigned(a, b uint64, xlenBits uint) uint64 {
	if xlenBits <= 32 {
		return (a * b) >> 32 & 0xffffffff
	}
	hi, _ := bits.Mul64(a, b)
	return hi
}

func mulHighSigned(a, b int64, xlenBits uint) int64 {
	if xlenBits <= 32 {
		return int64(int32((a * b) >> 32))
	}
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	// Adjust the unsigned high-half product for each negative operand.
	if a < 0 {
		hi -= uint64(b)
	}
	if b < 0 {
		hi -= uint64(a)
	}
	return int64(hi)
}

func mulHighSignedUnsigned(a int64, b uint64, xlenBits uint) int64 {
	if xlenBits <= 32 {
		return int64(int32((a * int64(b)) >> 32))
	}
	hi, _ := bits.Mul64(uint64(a), b)
	if a < 0 {
		hi -= b
	}
	return int64(hi)
}
