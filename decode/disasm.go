package decode

import (
	"fmt"

	"golang.org/x/arch/riscv64/riscv64asm"
)

// Disassemble renders the instruction at the start of raw in GNU-ish
// mnemonic form, for fault messages and the optional debug_print/
// verbose-trace hooks. It is never on the hot execute path — only the
// BC_* dispatch table in decode.go/compressed.go is — so reaching for a
// full disassembler here instead of hand-rolling mnemonic printing is
// the right tradeoff: golang.org/x/arch/riscv64/riscv64asm already knows
// every RVGC mnemonic including the compressed-to-base expansion, and
// cpu.CPU.Simulate's fault path calls this to annotate the fault it
// returns.
func Disassemble(raw []byte) string {
	inst, err := riscv64asm.Decode(raw)
	if err != nil {
		if len(raw) >= 4 {
			return fmt.Sprintf("(unknown %08x)", uint32(raw[0])|uint32(raw[1])<<8|uint32(raw[2])<<16|uint32(raw[3])<<24)
		}
		return "(unknown)"
	}
	return inst.String()
}
