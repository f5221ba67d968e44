package cpu

import (
	"github.com/mayhemheroes/libriscv/decode"
	"github.com/mayhemheroes/libriscv/defs"
)

// execZbaZbb implements the Zba address-generation shifts SH1ADD/SH2ADD/
// SH3ADD: rd = (rs1 << shamt) + rs2, grounded on the isZbaZbb encoding
// recognized in decode.go (funct7=0010000, funct3 selecting the shift).
func execZbaZbb[T Word](c *CPU[T], w uint32) {
	i := decode.Instr32(w)
	a := u64(c.Regs.Get(i.Rs1()))
	b := u64(c.Regs.Get(i.Rs2()))

	var shamt uint
	switch i.Funct3() {
	case 0x2:
		shamt = 1
	case 0x4:
		shamt = 2
	case 0x6:
		shamt = 3
	default:
		defs.Throw(defs.IllegalOpcode, "unreachable Zba/Zbb funct3", uint64(w))
	}
	c.Regs.Set(i.Rd(), asT[T](int64(a<<shamt+b)))
}
