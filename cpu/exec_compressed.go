package cpu

import "github.com/mayhemheroes/libriscv/defs"

// bit extracts bit n of a 16-bit compressed word as 0 or 1, used
// throughout this file to assemble the scrambled immediate encodings the
// C extension packs into its 16-bit formats.
func bit(v uint16, n uint) uint32 {
	return uint32(v>>n) & 1
}

func creg(v uint16, shift uint) uint32 {
	return ((uint32(v) >> shift) & 0x7) + 8
}

// execCADDI and execCLI handle the fast-slot compressed forms of
// C.ADDI and C.LI: the decoder already confirmed rd != 0 (rd == 0
// collapsed to BC_NOP) and both use the same CI-type 6-bit signed
// immediate, bit(c,12)<<5 | bits(6:2).
func execCADDI[T Word](c *CPU[T], w uint16) {
	rd := (uint32(w) >> 7) & 0x1f
	v := signed(u64(c.Regs.Get(rd)), c.Opt.XLENBits) + cImm6(w)
	c.Regs.Set(rd, asT[T](v))
}

func execCLI[T Word](c *CPU[T], w uint16) {
	rd := (uint32(w) >> 7) & 0x1f
	c.Regs.Set(rd, asT[T](cImm6(w)))
}

// execCMV handles C.MV rd, rs2 (CR-type, rd != 0, rs2 != 0, already
// checked by the decoder).
func execCMV[T Word](c *CPU[T], w uint16) {
	rd := (uint32(w) >> 7) & 0x1f
	rs2 := (uint32(w) >> 2) & 0x1f
	c.Regs.Set(rd, c.Regs.Get(rs2))
}

// execCJALR handles C.JR rd (isJalr false) and C.JALR rd (isJalr true):
// CR-type, jump to the register named in the "rd" field, optionally
// linking PC+2 into x1.
func execCJALR[T Word](c *CPU[T], w uint16, isJalr bool) {
	rs1 := (uint32(w) >> 7) & 0x1f
	target := c.Regs.Get(rs1)
	target = asT[T](int64(u64(target)) &^ 1)
	ret := asT[T](int64(u64(c.PC)) + 2)
	c.PC = target
	if isJalr {
		c.Regs.Set(1, ret)
	}
}

// execCompressedRare parses, from scratch, every 16-bit shape the
// decoder didn't special-case into its own fast slot: stack-relative
// and register-relative loads/stores, C.ADDI4SPN, C.LUI/C.ADDI16SP,
// the SRLI/SRAI/ANDI/SUB/XOR/OR/AND/SUBW/ADDW group, C.J/C.JAL,
// C.BEQZ/C.BNEZ, C.ADDIW, and C.ADD.
func execCompressedRare[T Word](c *CPU[T], w uint16) {
	quadrant := w & 0x3
	funct3 := (w >> 13) & 0x7
	if c.Opt.XLENBits == 32 && quadrant != 1 && (funct3 == 0x3 || funct3 == 0x7) {
		// On RV32 these encodings are C.FLW/C.FSW/C.FLWSP/C.FSWSP.
		defs.Throw(defs.IllegalOpcode, "compressed FP load/store unsupported", uint64(w))
	}

	switch quadrant {
	case 0:
		execCQuadrant0(c, w, funct3)
	case 1:
		execCQuadrant1(c, w, funct3)
	case 2:
		execCQuadrant2(c, w, funct3)
	default:
		defs.Throw(defs.IllegalOpcode, "unreachable compressed quadrant", uint64(w))
	}
}

func execCQuadrant0[T Word](c *CPU[T], w uint16, funct3 uint16) {
	switch funct3 {
	case 0x0: // C.ADDI4SPN
		rd := creg(w, 2)
		nzuimm := bit(w, 12)<<5 | bit(w, 11)<<4 | bit(w, 10)<<9 | bit(w, 9)<<8 |
			bit(w, 8)<<7 | bit(w, 7)<<6 | bit(w, 6)<<2 | bit(w, 5)<<3
		if nzuimm == 0 {
			defs.Throw(defs.IllegalOpcode, "reserved C.ADDI4SPN encoding", uint64(w))
		}
		v := signed(u64(c.Regs.Get(2)), c.Opt.XLENBits) + int64(nzuimm)
		c.Regs.Set(rd, asT[T](v))
	case 0x2: // C.LW
		rd, rs1 := creg(w, 2), creg(w, 7)
		off := clwOffset(w)
		addr := asT[T](signed(u64(c.Regs.Get(rs1)), c.Opt.XLENBits) + int64(off))
		c.Regs.Set(rd, asT[T](int64(int32(c.Mem.Read32(addr)))))
	case 0x6: // C.SW
		rs2, rs1 := creg(w, 2), creg(w, 7)
		off := clwOffset(w)
		addr := asT[T](signed(u64(c.Regs.Get(rs1)), c.Opt.XLENBits) + int64(off))
		c.Mem.Write32(addr, uint32(u64(c.Regs.Get(rs2))))
	case 0x3: // C.LD (RV64/128)
		rd, rs1 := creg(w, 2), creg(w, 7)
		off := cldOffset(w)
		addr := asT[T](signed(u64(c.Regs.Get(rs1)), c.Opt.XLENBits) + int64(off))
		c.Regs.Set(rd, asT[T](int64(c.Mem.Read64(addr))))
	case 0x7: // C.SD (RV64/128)
		rs2, rs1 := creg(w, 2), creg(w, 7)
		off := cldOffset(w)
		addr := asT[T](signed(u64(c.Regs.Get(rs1)), c.Opt.XLENBits) + int64(off))
		c.Mem.Write64(addr, u64(c.Regs.Get(rs2)))
	default:
		defs.Throw(defs.IllegalOpcode, "unsupported compressed quadrant-0 shape", uint64(w))
	}
}

func clwOffset(w uint16) uint32 {
	return bit(w, 12)<<5 | bit(w, 11)<<4 | bit(w, 10)<<3 | bit(w, 6)<<2 | bit(w, 5)<<6
}

func cldOffset(w uint16) uint32 {
	return bit(w, 12)<<5 | bit(w, 11)<<4 | bit(w, 10)<<3 | bit(w, 6)<<7 | bit(w, 5)<<6
}

func execCQuadrant1[T Word](c *CPU[T], w uint16, funct3 uint16) {
	switch funct3 {
	case 0x1: // C.JAL (RV32) / C.ADDIW (RV64/128)
		if c.Opt.XLENBits == 32 {
			execCJumpLink(c, w, 1)
			return
		}
		rd := (uint32(w) >> 7) & 0x1f
		if rd == 0 {
			return // reserved/HINT, treated as no-op
		}
		imm := cImm6(w)
		v := int32(c.Regs.Get(rd)) + int32(imm)
		c.Regs.Set(rd, asT[T](int64(v)))
	case 0x3: // C.ADDI16SP (rd==2) / C.LUI (otherwise)
		rd := (uint32(w) >> 7) & 0x1f
		if rd == 2 {
			nzimm := bit(w, 12)<<9 | bit(w, 6)<<4 | bit(w, 5)<<6 | bit(w, 4)<<8 | bit(w, 3)<<7 | bit(w, 2)<<5
			imm := int64(int16(nzimm<<6) >> 6)
			v := signed(u64(c.Regs.Get(2)), c.Opt.XLENBits) + imm
			c.Regs.Set(2, asT[T](v))
			return
		}
		if rd == 0 {
			return
		}
		raw := bit(w, 12)<<17 | ((uint32(w) >> 2) & 0x1f << 12)
		var v int32
		if raw&(1<<17) != 0 {
			v = int32(raw | 0xfffc0000)
		} else {
			v = int32(raw)
		}
		c.Regs.Set(rd, asT[T](int64(v)))
	case 0x4: // SRLI/SRAI/ANDI/SUB/XOR/OR/AND/SUBW/ADDW
		execCArith(c, w)
	case 0x5: // C.J
		execCJumpLink(c, w, 0)
	case 0x6: // C.BEQZ
		execCBranch(c, w, true)
	case 0x7: // C.BNEZ
		execCBranch(c, w, false)
	default:
		defs.Throw(defs.IllegalOpcode, "unsupported compressed quadrant-1 shape", uint64(w))
	}
}

// cImm6 assembles the CI-type 6-bit signed immediate shared by C.ADDI,
// C.LI, and C.ADDIW: bit(c,12)<<5 | bits(6:2).
func cImm6(w uint16) int64 {
	raw := bit(w, 12)<<5 | (uint32(w)>>2)&0x1f
	return int64(int8(raw<<2) >> 2)
}

// execCJumpLink handles C.J/C.JAL: an 11-bit scrambled PC-relative
// offset, linking rd (x0 for C.J, x1 for C.JAL).
func execCJumpLink[T Word](c *CPU[T], w uint16, rd uint32) {
	raw := bit(w, 12)<<11 | bit(w, 11)<<4 | bit(w, 10)<<9 | bit(w, 9)<<8 |
		bit(w, 8)<<10 | bit(w, 7)<<6 | bit(w, 6)<<7 | bit(w, 5)<<3 |
		bit(w, 4)<<2 | bit(w, 3)<<1 | bit(w, 2)<<5
	off := int64(int16(raw<<4) >> 4)
	ret := asT[T](int64(u64(c.PC)) + 2)
	c.PC = asT[T](int64(u64(c.PC)) + off)
	if rd != 0 {
		c.Regs.Set(rd, ret)
	}
}

// execCBranch handles C.BEQZ/C.BNEZ: an 8-bit scrambled offset against
// a zero comparison of a compressed register.
func execCBranch[T Word](c *CPU[T], w uint16, branchIfZero bool) {
	rs1 := creg(w, 7)
	raw := bit(w, 12)<<8 | bit(w, 6)<<7 | bit(w, 5)<<6 | bit(w, 4)<<2 |
		bit(w, 3)<<1 | bit(w, 11)<<4 | bit(w, 10)<<3 | bit(w, 2)<<5
	off := int64(int16(raw<<7) >> 7)
	isZero := c.Regs.Get(rs1) == 0
	if isZero == branchIfZero {
		c.PC = asT[T](int64(u64(c.PC)) + off)
	}
}

func execCArith[T Word](c *CPU[T], w uint16) {
	rd := creg(w, 7)
	funct2a := (w >> 10) & 0x3
	switch funct2a {
	case 0x0, 0x1: // SRLI / SRAI
		shamt := bit(w, 12)<<5 | (uint32(w)>>2)&0x1f
		v := u64(c.Regs.Get(rd))
		if funct2a == 0x1 {
			c.Regs.Set(rd, asT[T](signed(v, c.Opt.XLENBits)>>shamt))
		} else {
			c.Regs.Set(rd, asT[T](int64(logicalShiftRight(v, uint(shamt), c.Opt.XLENBits))))
		}
	case 0x2: // ANDI
		imm := cImm6(w)
		c.Regs.Set(rd, asT[T](signed(u64(c.Regs.Get(rd)), c.Opt.XLENBits)&imm))
	case 0x3:
		rs2 := creg(w, 2)
		funct2b := (w >> 5) & 0x3
		a, b := u64(c.Regs.Get(rd)), u64(c.Regs.Get(rs2))
		if bit(w, 12) == 0 {
			switch funct2b {
			case 0x0:
				c.Regs.Set(rd, asT[T](int64(a-b)))
			case 0x1:
				c.Regs.Set(rd, asT[T](int64(a^b)))
			case 0x2:
				c.Regs.Set(rd, asT[T](int64(a|b)))
			case 0x3:
				c.Regs.Set(rd, asT[T](int64(a&b)))
			}
			return
		}
		switch funct2b {
		case 0x0: // SUBW
			c.Regs.Set(rd, asT[T](int64(int32(a)-int32(b))))
		case 0x1: // ADDW
			c.Regs.Set(rd, asT[T](int64(int32(a)+int32(b))))
		default:
			defs.Throw(defs.IllegalOpcode, "reserved compressed word-arith encoding", uint64(w))
		}
	}
}

func execCQuadrant2[T Word](c *CPU[T], w uint16, funct3 uint16) {
	rdFull := (uint32(w) >> 7) & 0x1f
	switch funct3 {
	case 0x0: // C.SLLI
		shamt := bit(w, 12)<<5 | (uint32(w)>>2)&0x1f
		v := u64(c.Regs.Get(rdFull)) << shamt
		c.Regs.Set(rdFull, asT[T](int64(v)))
	case 0x2: // C.LWSP
		if rdFull == 0 {
			defs.Throw(defs.IllegalOpcode, "reserved C.LWSP encoding", uint64(w))
		}
		off := bit(w, 12)<<5 | bit(w, 6)<<4 | bit(w, 5)<<3 | bit(w, 4)<<2 | bit(w, 3)<<7 | bit(w, 2)<<6
		addr := asT[T](signed(u64(c.Regs.Get(2)), c.Opt.XLENBits) + int64(off))
		c.Regs.Set(rdFull, asT[T](int64(int32(c.Mem.Read32(addr)))))
	case 0x3: // C.LDSP (RV64/128)
		if rdFull == 0 {
			defs.Throw(defs.IllegalOpcode, "reserved C.LDSP encoding", uint64(w))
		}
		off := bit(w, 12)<<5 | bit(w, 6)<<4 | bit(w, 5)<<3 | bit(w, 4)<<8 | bit(w, 3)<<7 | bit(w, 2)<<6
		addr := asT[T](signed(u64(c.Regs.Get(2)), c.Opt.XLENBits) + int64(off))
		c.Regs.Set(rdFull, asT[T](int64(c.Mem.Read64(addr))))
	case 0x6: // C.SWSP
		rs2 := (uint32(w) >> 2) & 0x1f
		off := bit(w, 12)<<5 | bit(w, 11)<<4 | bit(w, 10)<<3 | bit(w, 9)<<2 | bit(w, 8)<<7 | bit(w, 7)<<6
		addr := asT[T](signed(u64(c.Regs.Get(2)), c.Opt.XLENBits) + int64(off))
		c.Mem.Write32(addr, uint32(u64(c.Regs.Get(rs2))))
	case 0x7: // C.SDSP (RV64/128)
		rs2 := (uint32(w) >> 2) & 0x1f
		off := bit(w, 12)<<5 | bit(w, 11)<<4 | bit(w, 10)<<3 | bit(w, 9)<<8 | bit(w, 8)<<7 | bit(w, 7)<<6
		addr := asT[T](signed(u64(c.Regs.Get(2)), c.Opt.XLENBits) + int64(off))
		c.Mem.Write64(addr, u64(c.Regs.Get(rs2)))
	case 0x4: // C.ADD: the only quadrant-2/funct3=100 shape routed here
		// by the decoder (C.JR/C.JALR/C.MV/C.EBREAK get their own slots).
		rs2 := (uint32(w) >> 2) & 0x1f
		v := u64(c.Regs.Get(rdFull)) + u64(c.Regs.Get(rs2))
		c.Regs.Set(rdFull, asT[T](int64(v)))
	default:
		defs.Throw(defs.IllegalOpcode, "unsupported compressed quadrant-2 shape", uint64(w))
	}
}
