package cpu

import (
	"github.com/mayhemheroes/libriscv/decode"
	"github.com/mayhemheroes/libriscv/defs"
)

const (
	amoLR   = 0x02
	amoSC   = 0x03
	amoSwap = 0x01
	amoAdd  = 0x00
	amoXor  = 0x04
	amoAnd  = 0x0c
	amoOr   = 0x08
	amoMin  = 0x10
	amoMax  = 0x14
	amoMinU = 0x18
	amoMaxU = 0x1c
)

// execA implements LR/SC and the AMO read-modify-write family (spec
// §4.4: "a per-CPU reservation address and size", "AMOs as atomic
// read-modify-write under cooperative scheduling" — cooperative
// scheduling means no other hart can observe a partial update between
// the read and the write here, so plain load/store suffices).
func execA[T Word](c *CPU[T], w uint32) {
	i := decode.Instr32(w)
	op := i.Funct7() >> 2
	size := 4
	if i.Funct3() == 0x3 {
		size = 8
	}
	addr := c.Regs.Get(i.Rs1())

	switch op {
	case amoLR:
		c.resv = reservation[T]{valid: true, addr: addr, size: uint32(size)}
		c.Regs.Set(i.Rd(), readSized[T](c, addr, size))
		return
	case amoSC:
		if c.resv.valid && c.resv.addr == addr && c.resv.size == uint32(size) {
			writeSized(c, addr, size, u64(c.Regs.Get(i.Rs2())))
			c.Regs.Set(i.Rd(), 0)
		} else {
			c.Regs.Set(i.Rd(), 1)
		}
		c.resv.valid = false
		return
	}

	old := readSized[T](c, addr, size)
	oldU := u64(old)
	rhs := u64(c.Regs.Get(i.Rs2()))
	var result uint64
	switch op {
	case amoSwap:
		result = rhs
	case amoAdd:
		result = oldU + rhs
	case amoXor:
		result = oldU ^ rhs
	case amoAnd:
		result = oldU & rhs
	case amoOr:
		result = oldU | rhs
	case amoMin:
		if signed(oldU, uint(size*8)) < signed(rhs, uint(size*8)) {
			result = oldU
		} else {
			result = rhs
		}
	case amoMax:
		if signed(oldU, uint(size*8)) > signed(rhs, uint(size*8)) {
			result = oldU
		} else {
			result = rhs
		}
	case amoMinU:
		if oldU < rhs {
			result = oldU
		} else {
			result = rhs
		}
	case amoMaxU:
		if oldU > rhs {
			result = oldU
		} else {
			result = rhs
		}
	default:
		defs.Throw(defs.IllegalOpcode, "unknown AMO op", uint64(op))
	}
	writeSized(c, addr, size, result)
	c.Regs.Set(i.Rd(), old)
}

func readSized[T Word](c *CPU[T], addr T, size int) T {
	if size == 8 {
		return asT[T](int64(c.Mem.Read64(addr)))
	}
	return asT[T](int64(int32(c.Mem.Read32(addr))))
}

func writeSized[T Word](c *CPU[T], addr T, size int, v uint64) {
	if size == 8 {
		c.Mem.Write64(addr, v)
	} else {
		c.Mem.Write32(addr, uint32(v))
	}
}
