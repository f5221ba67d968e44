package decode

// decodeCompressed classifies a 16-bit compressed instruction word
// directly into a dispatch Entry, following the quadrant/funct3 switch
// in lib/libriscv/decode_bytecodes.cpp's CI_CODE table. Entries that
// would need their own full operand decode (e.g. C.LW/C.SW, C.ADDI4SPN)
// are routed to BC_FUNCTION/FuncCompressedRare, where the CPU's slow
// path re-parses the 16-bit word in full; the fast slots below cover the
// shapes the original project special-cases (C.ADDI, C.LI, C.MV,
// C.JR/C.JALR, C.NOP/C.EBREAK).
func decodeCompressed(c uint16) Entry {
	quadrant := c & 0x3
	funct3 := (c >> 13) & 0x7

	switch (funct3 << 2) | quadrant {
	case ciCode(0b000, 0b01): // C.ADDI / C.NOP
		rd := (c >> 7) & 0x1f
		if rd != 0 {
			return Entry{Index: BC_ADDI, Operand: uint32(rd), Length: 2}
		}
		return Entry{Index: BC_NOP, Length: 2}

	case ciCode(0b010, 0b01): // C.LI
		rd := (c >> 7) & 0x1f
		if rd != 0 {
			return Entry{Index: BC_LI, Operand: uint32(rd), Length: 2}
		}
		return Entry{Index: BC_NOP, Length: 2}

	case ciCode(0b001, 0b01), // C.ADDIW (RV64/128) or C.JAL (RV32)
		ciCode(0b101, 0b01), // C.J
		ciCode(0b110, 0b01), // C.BEQZ
		ciCode(0b111, 0b01): // C.BNEZ
		return Entry{Index: BC_FUNCTION, Operand: packOperand(FuncCompressedRare, uint32(c)), Length: 2}

	case ciCode(0b100, 0b10): // C.JR / C.JALR / C.MV / C.ADD / C.EBREAK
		topbit := c&(1<<12) != 0
		rd := (c >> 7) & 0x1f
		rs2 := (c >> 2) & 0x1f
		switch {
		case !topbit && rd != 0 && rs2 == 0: // C.JR rd
			return Entry{Index: BC_JALR, Operand: 0, Length: 2}
		case topbit && rd != 0 && rs2 == 0: // C.JALR ra, rd+0
			return Entry{Index: BC_JALR, Operand: 1, Length: 2}
		case !topbit && rd != 0 && rs2 != 0: // C.MV rd, rs2
			return Entry{Index: BC_MV, Operand: uint32(rd), Length: 2}
		case rd != 0: // C.ADD rd, rd+rs2
			return Entry{Index: BC_FUNCTION, Operand: packOperand(FuncCompressedRare, uint32(c)), Length: 2}
		case topbit && rd == 0 && rs2 == 0: // C.EBREAK
			return Entry{Index: BC_EBREAK, Length: 2}
		default:
			return Entry{Index: BC_INVALID, Length: 2}
		}

	default:
		// Stack/register loads and stores, C.ADDI4SPN, C.ADDI16SP,
		// C.LUI, C.SLLI/SRLI/SRAI/ANDI, and the RV64C/RV128C double-
		// width forms all land here.
		return Entry{Index: BC_FUNCTION, Operand: packOperand(FuncCompressedRare, uint32(c)), Length: 2}
	}
}

func ciCode(f3, quadrant uint16) uint16 {
	return (f3 << 2) | quadrant
}
