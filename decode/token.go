// Package decode turns raw RISC-V instruction words into the compact
// dispatch tokens the CPU core's hot loop switches on, and caches those
// tokens per execute segment so a segment is scanned at most once.
//
// The front-end parse (splitting an instruction word into opcode,
// funct3/funct7, register fields, and classifying 16-bit compressed
// forms) is a hand-rolled bit-field parser (Instr32 in instr.go,
// decode32/decodeCompressed below) rather than a full disassembler,
// since the hot path only ever needs a handful of field extractions per
// instruction, not a mnemonic. golang.org/x/arch/riscv64/riscv64asm is
// used off the hot path instead, in disasm.go, to render fault/debug
// messages.
package decode

// BytecodeIndex is the compact integer identifying which CPU handler
// executes a decoded instruction. Every value other than BC_FUNCTION,
// BC_TRANSLATOR and BC_INVALID names a fast-path shape; BC_FUNCTION is
// the catch-all slow path into the
// full instruction table for opcodes that don't earn their own fast
// slot (M/A/F/D extension ops, Zba/Zbb, and rare base encodings).
type BytecodeIndex uint16

const (
	BC_INVALID BytecodeIndex = iota
	BC_NOP
	BC_LI
	BC_MV
	BC_ADDI
	BC_LUI
	BC_AUIPC

	BC_LOAD8
	BC_LOAD8U
	BC_LOAD16
	BC_LOAD16U
	BC_LOAD32
	BC_LOAD32U
	BC_LOAD64

	BC_STORE8
	BC_STORE16
	BC_STORE32
	BC_STORE64

	BC_BEQ
	BC_BNE
	BC_BLT
	BC_BGE
	BC_BLTU
	BC_BGEU

	BC_JAL
	BC_JALR

	BC_OP_IMM
	BC_OP

	BC_SYSCALL
	BC_EBREAK

	// BC_FUNCTION dispatches through the full decoded-instruction table
	// (Operand carries the index into that table). It covers M, A, F, D,
	// Zba/Zbb, and any base-ISA shape that does not get its own fast
	// slot above.
	BC_FUNCTION

	// BC_TRANSLATOR is reserved for the optional ahead-of-time
	// translation hook (spec §4.3); the stock decoder never emits it.
	BC_TRANSLATOR
)

// Entry is one slot of a segment's decoder cache: the dispatch token
// plus a small operand hint (register numbers, immediate, or an index
// into the CPU's slow-path function table, depending on Index).
type Entry struct {
	Index   BytecodeIndex
	Operand uint32
	// Length is the instruction's encoded length in bytes: 2 for a
	// compressed instruction, 4 otherwise. The CPU core advances PC by
	// exactly this amount unless the handler itself writes a new PC.
	Length uint8
}

// Divisor returns the cache-slot divisor for the given compressed-
// extension setting: 2 when C is enabled (since instructions may be
// 16-bit aligned), 4 otherwise.
func Divisor(compressedEnabled bool) int {
	if compressedEnabled {
		return 2
	}
	return 4
}
