package cpu

import (
	"github.com/mayhemheroes/libriscv/decode"
	"github.com/mayhemheroes/libriscv/defs"
)

// dispatch is the single switch spec §4.3 describes as "the table
// entries are indexed by offset/DIVISOR": entry.Index picks a handler,
// BC_FUNCTION entries carry a FuncSlot in their Operand that picks a
// second-level table instead of bloating the first-level switch with
// every rare shape.
func dispatch[T Word](c *CPU[T], entry decode.Entry, raw []byte) {
	switch entry.Index {
	case decode.BC_INVALID:
		defs.Throw(defs.IllegalOpcode, "invalid or unimplemented encoding", uint64(c.PC))
	case decode.BC_NOP:
		// rd==0 shapes and FENCE/FENCE.I collapse here.
	case decode.BC_LI:
		if entry.Length == 2 {
			execCLI(c, fetch16(raw))
		} else {
			execLI(c, fetch32(raw))
		}
	case decode.BC_MV:
		if entry.Length == 2 {
			execCMV(c, fetch16(raw))
		} else {
			execMV(c, fetch32(raw))
		}
	case decode.BC_ADDI:
		if entry.Length == 2 {
			execCADDI(c, fetch16(raw))
		} else {
			execADDI(c, fetch32(raw))
		}
	case decode.BC_LUI:
		execLUI(c, fetch32(raw))
	case decode.BC_AUIPC:
		execAUIPC(c, fetch32(raw))
	case decode.BC_LOAD8:
		execLoad(c, fetch32(raw), 1, true)
	case decode.BC_LOAD8U:
		execLoad(c, fetch32(raw), 1, false)
	case decode.BC_LOAD16:
		execLoad(c, fetch32(raw), 2, true)
	case decode.BC_LOAD16U:
		execLoad(c, fetch32(raw), 2, false)
	case decode.BC_LOAD32:
		execLoad(c, fetch32(raw), 4, true)
	case decode.BC_LOAD32U:
		execLoad(c, fetch32(raw), 4, false)
	case decode.BC_LOAD64:
		execLoad(c, fetch32(raw), 8, true)
	case decode.BC_STORE8:
		execStore(c, fetch32(raw), 1)
	case decode.BC_STORE16:
		execStore(c, fetch32(raw), 2)
	case decode.BC_STORE32:
		execStore(c, fetch32(raw), 4)
	case decode.BC_STORE64:
		execStore(c, fetch32(raw), 8)
	case decode.BC_BEQ:
		execBranch(c, fetch32(raw), branchEQ)
	case decode.BC_BNE:
		execBranch(c, fetch32(raw), branchNE)
	case decode.BC_BLT:
		execBranch(c, fetch32(raw), branchLT)
	case decode.BC_BGE:
		execBranch(c, fetch32(raw), branchGE)
	case decode.BC_BLTU:
		execBranch(c, fetch32(raw), branchLTU)
	case decode.BC_BGEU:
		execBranch(c, fetch32(raw), branchGEU)
	case decode.BC_JAL:
		execJAL(c, fetch32(raw))
	case decode.BC_JALR:
		if entry.Length == 2 {
			execCJALR(c, fetch16(raw), entry.Operand != 0)
		} else {
			execJALR(c, fetch32(raw))
		}
	case decode.BC_OP:
		execOP(c, fetch32(raw))
	case decode.BC_SYSCALL:
		if c.OnSyscall != nil {
			c.OnSyscall(c)
		}
	case decode.BC_EBREAK:
		if c.OnEBreak != nil {
			c.OnEBreak(c)
		}
	case decode.BC_FUNCTION:
		dispatchFunction(c, entry, raw)
	case decode.BC_TRANSLATOR:
		// An ahead-of-time translated block publishes its own behavior;
		// the base interpreter has nothing further to do here.
	default:
		defs.Throw(defs.IllegalOpcode, "unhandled bytecode index", uint64(entry.Index))
	}
}

func dispatchFunction[T Word](c *CPU[T], entry decode.Entry, raw []byte) {
	slot, _ := decode.UnpackOperand(entry.Operand)
	switch slot {
	case decode.FuncBase:
		execRareBase(c, fetch32(raw))
	case decode.FuncM:
		execM(c, fetch32(raw))
	case decode.FuncA:
		execA(c, fetch32(raw))
	case decode.FuncF:
		execFP(c, fetch32(raw), false)
	case decode.FuncD:
		execFP(c, fetch32(raw), true)
	case decode.FuncZbaZbb:
		execZbaZbb(c, fetch32(raw))
	case decode.FuncCompressedRare:
		execCompressedRare(c, fetch16(raw))
	default:
		defs.Throw(defs.IllegalOpcode, "unknown function slot", uint64(slot))
	}
}
