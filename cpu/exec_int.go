package cpu

import "github.com/mayhemheroes/libriscv/decode"

func execLI[T Word](c *CPU[T], w uint32) {
	i := decode.Instr32(w)
	c.Regs.Set(i.Rd(), asT[T](int64(i.ITypeImm())))
}

func execMV[T Word](c *CPU[T], w uint32) {
	i := decode.Instr32(w)
	c.Regs.Set(i.Rd(), c.Regs.Get(i.Rs1()))
}

func execADDI[T Word](c *CPU[T], w uint32) {
	i := decode.Instr32(w)
	v := signed(u64(c.Regs.Get(i.Rs1())), c.Opt.XLENBits) + int64(i.ITypeImm())
	c.Regs.Set(i.Rd(), asT[T](v))
}

func execLUI[T Word](c *CPU[T], w uint32) {
	i := decode.Instr32(w)
	c.Regs.Set(i.Rd(), asT[T](int64(i.UImm())))
}

func execAUIPC[T Word](c *CPU[T], w uint32) {
	i := decode.Instr32(w)
	c.Regs.Set(i.Rd(), asT[T](int64(u64(c.PC))+int64(i.UImm())))
}

// execLoad implements the typed load family; size is 1/2/4/8 bytes and
// signExt selects the sign- vs zero-extending variant.
func execLoad[T Word](c *CPU[T], w uint32, size int, signExt bool) {
	i := decode.Instr32(w)
	addr := asT[T](signed(u64(c.Regs.Get(i.Rs1())), c.Opt.XLENBits) + int64(i.ITypeImm()))
	var v int64
	switch size {
	case 1:
		b := c.Mem.Read8(addr)
		if signExt {
			v = int64(int8(b))
		} else {
			v = int64(b)
		}
	case 2:
		h := c.Mem.Read16(addr)
		if signExt {
			v = int64(int16(h))
		} else {
			v = int64(h)
		}
	case 4:
		w32 := c.Mem.Read32(addr)
		if signExt {
			v = int64(int32(w32))
		} else {
			v = int64(w32)
		}
	case 8:
		v = int64(c.Mem.Read64(addr))
	}
	c.Regs.Set(i.Rd(), asT[T](v))
}

func execStore[T Word](c *CPU[T], w uint32, size int) {
	i := decode.Instr32(w)
	addr := asT[T](signed(u64(c.Regs.Get(i.Rs1())), c.Opt.XLENBits) + int64(i.SImm()))
	val := u64(c.Regs.Get(i.Rs2()))
	switch size {
	case 1:
		c.Mem.Write8(addr, uint8(val))
	case 2:
		c.Mem.Write16(addr, uint16(val))
	case 4:
		c.Mem.Write32(addr, uint32(val))
	case 8:
		c.Mem.Write64(addr, val)
	}
}

type branchOp func(a, b int64, au, bu uint64) bool

func branchEQ(a, b int64, au, bu uint64) bool  { return au == bu }
func branchNE(a, b int64, au, bu uint64) bool  { return au != bu }
func branchLT(a, b int64, au, bu uint64) bool  { return a < b }
func branchGE(a, b int64, au, bu uint64) bool  { return a >= b }
func branchLTU(a, b int64, au, bu uint64) bool { return au < bu }
func branchGEU(a, b int64, au, bu uint64) bool { return au >= bu }

func execBranch[T Word](c *CPU[T], w uint32, op branchOp) {
	i := decode.Instr32(w)
	au, bu := u64(c.Regs.Get(i.Rs1())), u64(c.Regs.Get(i.Rs2()))
	a, b := signed(au, c.Opt.XLENBits), signed(bu, c.Opt.XLENBits)
	if op(a, b, au, bu) {
		c.PC = asT[T](int64(u64(c.PC)) + int64(i.BImm()))
	}
}

func execJAL[T Word](c *CPU[T], w uint32) {
	i := decode.Instr32(w)
	ret := asT[T](int64(u64(c.PC)) + 4)
	c.PC = asT[T](int64(u64(c.PC)) + int64(i.JImm()))
	c.Regs.Set(i.Rd(), ret)
}

func execJALR[T Word](c *CPU[T], w uint32) {
	i := decode.Instr32(w)
	target := asT[T](signed(u64(c.Regs.Get(i.Rs1())), c.Opt.XLENBits) + int64(i.ITypeImm()))
	target &^= 1
	ret := asT[T](int64(u64(c.PC)) + 4)
	c.PC = target
	c.Regs.Set(i.Rd(), ret)
}

// execOP handles the register-register base ALU ops reached when
// neither M-extension multiply nor Zba/Zbb matched at decode time.
func execOP[T Word](c *CPU[T], w uint32) {
	i := decode.Instr32(w)
	a := u64(c.Regs.Get(i.Rs1()))
	b := u64(c.Regs.Get(i.Rs2()))
	as, bs := signed(a, c.Opt.XLENBits), signed(b, c.Opt.XLENBits)
	shamt := uint(b) & (c.Opt.XLENBits - 1)

	var v int64
	switch i.Funct3() {
	case 0x0:
		if i.IsArithShiftOrSub() {
			v = as - bs
		} else {
			v = as + bs
		}
	case 0x1:
		v = int64(a << shamt)
	case 0x2:
		v = boolToInt64(as < bs)
	case 0x3:
		v = boolToInt64(a < b)
	case 0x4:
		v = as ^ bs
	case 0x5:
		if i.IsArithShiftOrSub() {
			v = as >> shamt
		} else {
			v = int64(logicalShiftRight(a, shamt, c.Opt.XLENBits))
		}
	case 0x6:
		v = as | bs
	case 0x7:
		v = as & bs
	}
	c.Regs.Set(i.Rd(), asT[T](v))
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func logicalShiftRight(v uint64, shamt uint, xlenBits uint) uint64 {
	if xlenBits <= 32 {
		return uint64(uint32(v) >> shamt)
	}
	return v >> shamt
}
