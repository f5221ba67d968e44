package cpu

import (
	"math"

	"github.com/mayhemheroes/libriscv/decode"
	"github.com/mayhemheroes/libriscv/defs"
)

// execFP dispatches every F/D-extension shape that reached FuncF/FuncD:
// loads/stores, the four fused multiply-add forms, and general OP-FP
// arithmetic/compare/convert/sign-injection. double reports whether the
// instruction's Funct2 (R4-type) or low funct7 bit (OP-FP) selected
// double precision.
func execFP[T Word](c *CPU[T], w uint32, double bool) {
	i := decode.Instr32(w)
	switch i.Opcode() {
	case decode.OpLoadFP:
		// opLoadFP always routes through FuncF regardless of width (decode.go
		// has no separate double slot for it), so width comes from funct3
		// here instead of the slot-derived double flag: FLW=0x2, FLD=0x3.
		execFLoad(c, i, i.Funct3() == 0x3)
	case decode.OpStoreFP:
		execFStore(c, i, i.Funct3() == 0x3)
	case decode.OpMadd:
		execFMadd(c, i, double, 1, 1)
	case decode.OpMsub:
		execFMadd(c, i, double, 1, -1)
	case decode.OpNmsub:
		execFMadd(c, i, double, -1, 1)
	case decode.OpNmadd:
		execFMadd(c, i, double, -1, -1)
	case decode.OpOpFP:
		execOpFP(c, i)
	default:
		defs.Throw(defs.IllegalOpcode, "unreachable F/D opcode", uint64(w))
	}
}

func execFLoad[T Word](c *CPU[T], i decode.Instr32, double bool) {
	addr := asT[T](signed(u64(c.Regs.Get(i.Rs1())), c.Opt.XLENBits) + int64(i.ITypeImm()))
	if double {
		c.FP.SetDouble(i.Rd(), math.Float64frombits(c.Mem.Read64(addr)))
	} else {
		c.FP.SetFloat(i.Rd(), math.Float32frombits(c.Mem.Read32(addr)))
	}
}

func execFStore[T Word](c *CPU[T], i decode.Instr32, double bool) {
	addr := asT[T](signed(u64(c.Regs.Get(i.Rs1())), c.Opt.XLENBits) + int64(i.SImm()))
	if double {
		c.Mem.Write64(addr, math.Float64bits(c.FP.GetDouble(i.Rs2())))
	} else {
		c.Mem.Write32(addr, math.Float32bits(c.FP.GetFloat(i.Rs2())))
	}
}

// execFMadd implements FMADD/FMSUB/FNMADD/FNMSUB as
// signA*(rs1*rs2) + signB*rs3, which covers all four sign combinations
// spec §4.4 names.
func execFMadd[T Word](c *CPU[T], i decode.Instr32, double bool, signA, signB float64) {
	double = i.Funct2() == 0x01
	if double {
		r := signA*(c.FP.GetDouble(i.Rs1())*c.FP.GetDouble(i.Rs2())) + signB*c.FP.GetDouble(i.Rs3())
		c.FP.SetDouble(i.Rd(), r)
		return
	}
	r := float32(signA)*(c.FP.GetFloat(i.Rs1())*c.FP.GetFloat(i.Rs2())) + float32(signB)*c.FP.GetFloat(i.Rs3())
	c.FP.SetFloat(i.Rd(), r)
}

func execOpFP[T Word](c *CPU[T], i decode.Instr32) {
	double := i.Funct7()&1 == 1
	op := i.Funct7() >> 2

	switch op {
	case 0x00: // FADD
		binOp(c, i, double, func(a, b float64) float64 { return a + b })
	case 0x01: // FSUB
		binOp(c, i, double, func(a, b float64) float64 { return a - b })
	case 0x02: // FMUL
		binOp(c, i, double, func(a, b float64) float64 { return a * b })
	case 0x03: // FDIV
		binOp(c, i, double, func(a, b float64) float64 { return a / b })
	case 0x0b: // FSQRT
		unOp(c, i, double, math.Sqrt)
	case 0x04: // FSGNJ/FSGNJN/FSGNJX
		execSignInject(c, i, double)
	case 0x05: // FMIN/FMAX
		binOp(c, i, double, func(a, b float64) float64 {
			if i.Funct3() == 0 {
				return math.Min(a, b)
			}
			return math.Max(a, b)
		})
	case 0x14: // FEQ/FLT/FLE
		execFCompare(c, i, double)
	case 0x18: // FCVT.W[U]/L[U].S/D -- float to integer
		execFCvtToInt(c, i, double)
	case 0x1a: // FCVT.S/D.W[U]/L[U] -- integer to float
		execFCvtFromInt(c, i, double)
	case 0x08: // FCVT.S.D / FCVT.D.S
		if double {
			c.FP.SetDouble(i.Rd(), float64(c.FP.GetFloat(i.Rs1())))
		} else {
			c.FP.SetFloat(i.Rd(), float32(c.FP.GetDouble(i.Rs1())))
		}
	case 0x1c: // FMV.X.W/D, FCLASS
		execFMoveOrClass[T](c, i, double)
	case 0x1e: // FMV.W/D.X
		if double {
			c.FP.SetDouble(i.Rd(), math.Float64frombits(u64(c.Regs.Get(i.Rs1()))))
		} else {
			c.FP.SetFloat(i.Rd(), math.Float32frombits(uint32(c.Regs.Get(i.Rs1()))))
		}
	default:
		defs.Throw(defs.IllegalOpcode, "unimplemented OP-FP funct7", uint64(i))
	}
}

func binOp[T Word](c *CPU[T], i decode.Instr32, double bool, f func(a, b float64) float64) {
	if double {
		c.FP.SetDouble(i.Rd(), f(c.FP.GetDouble(i.Rs1()), c.FP.GetDouble(i.Rs2())))
	} else {
		r := f(float64(c.FP.GetFloat(i.Rs1())), float64(c.FP.GetFloat(i.Rs2())))
		c.FP.SetFloat(i.Rd(), float32(r))
	}
}

func unOp[T Word](c *CPU[T], i decode.Instr32, double bool, f func(float64) float64) {
	if double {
		c.FP.SetDouble(i.Rd(), f(c.FP.GetDouble(i.Rs1())))
	} else {
		c.FP.SetFloat(i.Rd(), float32(f(float64(c.FP.GetFloat(i.Rs1())))))
	}
}

func execSignInject[T Word](c *CPU[T], i decode.Instr32, double bool) {
	if double {
		a, b := c.FP.GetDouble(i.Rs1()), c.FP.GetDouble(i.Rs2())
		var r float64
		switch i.Funct3() {
		case 0:
			r = math.Copysign(a, b)
		case 1:
			r = math.Copysign(a, -b)
		case 2:
			r = math.Copysign(a, sign(a)*sign(b))
		}
		c.FP.SetDouble(i.Rd(), r)
		return
	}
	a, b := float64(c.FP.GetFloat(i.Rs1())), float64(c.FP.GetFloat(i.Rs2()))
	var r float64
	switch i.Funct3() {
	case 0:
		r = math.Copysign(a, b)
	case 1:
		r = math.Copysign(a, -b)
	case 2:
		r = math.Copysign(a, sign(a)*sign(b))
	}
	c.FP.SetFloat(i.Rd(), float32(r))
}

func sign(v float64) float64 {
	if math.Signbit(v) {
		return -1
	}
	return 1
}

func execFCompare[T Word](c *CPU[T], i decode.Instr32, double bool) {
	var a, b float64
	if double {
		a, b = c.FP.GetDouble(i.Rs1()), c.FP.GetDouble(i.Rs2())
	} else {
		a, b = float64(c.FP.GetFloat(i.Rs1())), float64(c.FP.GetFloat(i.Rs2()))
	}
	var r bool
	switch i.Funct3() {
	case 2:
		r = a == b
	case 1:
		r = a < b
	case 0:
		r = a <= b
	}
	c.Regs.Set(i.Rd(), asT[T](boolToInt64(r)))
}

func execFCvtToInt[T Word](c *CPU[T], i decode.Instr32, double bool) {
	var v float64
	if double {
		v = c.FP.GetDouble(i.Rs1())
	} else {
		v = float64(c.FP.GetFloat(i.Rs1()))
	}
	switch i.Rs2() {
	case 0: // W
		c.Regs.Set(i.Rd(), asT[T](int64(int32(v))))
	case 1: // WU
		c.Regs.Set(i.Rd(), asT[T](int64(uint32(v))))
	case 2: // L
		c.Regs.Set(i.Rd(), asT[T](int64(v)))
	case 3: // LU
		c.Regs.Set(i.Rd(), asT[T](int64(uint64(v))))
	}
}

func execFCvtFromInt[T Word](c *CPU[T], i decode.Instr32, double bool) {
	rs1 := c.Regs.Get(i.Rs1())
	var v float64
	switch i.Rs2() {
	case 0: // W
		v = float64(int32(rs1))
	case 1: // WU
		v = float64(uint32(rs1))
	case 2: // L
		v = float64(int64(u64(rs1)))
	case 3: // LU
		v = float64(u64(rs1))
	}
	if double {
		c.FP.SetDouble(i.Rd(), v)
	} else {
		c.FP.SetFloat(i.Rd(), float32(v))
	}
}

func execFMoveOrClass[T Word](c *CPU[T], i decode.Instr32, double bool) {
	if i.Funct3() == 1 {
		var v float64
		if double {
			v = c.FP.GetDouble(i.Rs1())
		} else {
			v = float64(c.FP.GetFloat(i.Rs1()))
		}
		c.Regs.Set(i.Rd(), asT[T](int64(classify(v))))
		return
	}
	if double {
		c.Regs.Set(i.Rd(), asT[T](int64(c.FP.F[i.Rs1()])))
	} else {
		c.Regs.Set(i.Rd(), asT[T](int64(int32(math.Float32bits(c.FP.GetFloat(i.Rs1()))))))
	}
}

// classify returns a minimal FCLASS bitmask: enough to distinguish the
// categories guest programs typically branch on.
func classify(v float64) uint32 {
	switch {
	case math.IsNaN(v):
		return 1 << 9
	case math.IsInf(v, -1):
		return 1 << 0
	case math.IsInf(v, 1):
		return 1 << 7
	case v == 0 && math.Signbit(v):
		return 1 << 3
	case v == 0:
		return 1 << 4
	case v < 0:
		return 1 << 1
	default:
		return 1 << 6
	}
}
