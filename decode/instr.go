package decode

// Instr32 is a parsed 32-bit RISC-V instruction word, with the bit-field
// accessors the decoder and the CPU's slow-path handlers both need. The
// field layout mirrors the teacher-independent RISC-V base encoding used
// throughout the pack's RISC-V reference files (other_examples' zkvm
// cpu.go and tinyrange-cc's rv64 package both extract fields this way);
// it is the direct analogue of the original project's rv32i_instruction
// bit-field union (lib/libriscv/decode_bytecodes.cpp).
type Instr32 uint32

func (i Instr32) Opcode() uint32  { return uint32(i) & 0x7f }
func (i Instr32) Rd() uint32      { return (uint32(i) >> 7) & 0x1f }
func (i Instr32) Funct3() uint32  { return (uint32(i) >> 12) & 0x7 }
func (i Instr32) Rs1() uint32     { return (uint32(i) >> 15) & 0x1f }
func (i Instr32) Rs2() uint32     { return (uint32(i) >> 20) & 0x1f }
func (i Instr32) Funct7() uint32  { return (uint32(i) >> 25) & 0x7f }
func (i Instr32) Funct2() uint32  { return (uint32(i) >> 25) & 0x3 } // R4-type (F/D fused multiply-add)
func (i Instr32) Rs3() uint32     { return (uint32(i) >> 27) & 0x1f }

// ITypeImm sign-extends the 12-bit I-type immediate.
func (i Instr32) ITypeImm() int32 {
	return int32(uint32(i)) >> 20
}

// SImm sign-extends the S-type (store) immediate.
func (i Instr32) SImm() int32 {
	hi := (uint32(i) >> 25) & 0x7f
	lo := (uint32(i) >> 7) & 0x1f
	v := (hi << 5) | lo
	return signExtend(v, 12)
}

// BImm sign-extends the B-type (branch) immediate.
func (i Instr32) BImm() int32 {
	u := uint32(i)
	b12 := (u >> 31) & 1
	b11 := (u >> 7) & 1
	b10_5 := (u >> 25) & 0x3f
	b4_1 := (u >> 8) & 0xf
	v := (b12 << 12) | (b11 << 11) | (b10_5 << 5) | (b4_1 << 1)
	return signExtend(v, 13)
}

// UImm returns the raw U-type immediate (already shifted into the high
// 20 bits, as LUI/AUIPC want it).
func (i Instr32) UImm() int32 {
	return int32(uint32(i) & 0xfffff000)
}

// JImm sign-extends the J-type (JAL) immediate.
func (i Instr32) JImm() int32 {
	u := uint32(i)
	b20 := (u >> 31) & 1
	b19_12 := (u >> 12) & 0xff
	b11 := (u >> 20) & 1
	b10_1 := (u >> 21) & 0x3ff
	v := (b20 << 20) | (b19_12 << 12) | (b11 << 11) | (b10_1 << 1)
	return signExtend(v, 21)
}

// ShiftAmount returns the shift amount field for SLLI/SRLI/SRAI, which
// is 5, 6, or 7 bits wide depending on XLEN (32/64/128).
func (i Instr32) ShiftAmount(xlenBits uint) uint32 {
	switch {
	case xlenBits > 64:
		return (uint32(i) >> 20) & 0x7f
	case xlenBits > 32:
		return (uint32(i) >> 20) & 0x3f
	default:
		return (uint32(i) >> 20) & 0x1f
	}
}

// IsArithShiftOrSub reports whether funct7 bit 5 (0x20) is set, which
// distinguishes SRAI from SRLI and SUB from ADD.
func (i Instr32) IsArithShiftOrSub() bool {
	return uint32(i)&(1<<30) != 0
}

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

// RM returns the rounding-mode field carried by F/D instructions.
func (i Instr32) RM() uint32 { return i.Funct3() }
