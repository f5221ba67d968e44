package machine

import (
	"github.com/mayhemheroes/libriscv/cpu"
	"github.com/mayhemheroes/libriscv/defs"
	"github.com/mayhemheroes/libriscv/thread"
)

// Fork produces a child Machine sharing this one's read-only area and
// CoW-referencing every forkable page, per spec §9's Fork definition
// and mem.Memory.Fork's own doc comment. The child gets a fresh CPU
// with the parent's register file and PC copied by value (so each side
// can diverge independently from the fork point on), a fresh thread
// table seeded with one running thread, and its own signal table
// initialized to all-default (the original project's fork does not
// carry signal handlers across, since a forked child runs as an
// independent guest process).
func (m *Machine[T]) Fork() *Machine[T] {
	childMem := m.Memory.Fork()

	child := &Machine[T]{
		Memory:          childMem,
		Image:           m.Image,
		Threads:         thread.NewTable[cpu.IntRegs[T]](),
		Signals:         thread.NewSignalTable(),
		maxInstructions: m.maxInstructions,
		printer:         m.printer,
		stdin:           m.stdin,
		debugPrinter:    m.debugPrinter,
		faultHandler:    m.faultHandler,
	}
	child.syscalls = m.syscalls
	child.onUnhandled = m.onUnhandled

	child.CPU = cpu.New[T](child.Memory, m.CPU.Opt)
	child.CPU.Regs = m.CPU.Regs
	child.CPU.FP = m.CPU.FP
	child.CPU.PC = m.CPU.PC
	child.CPU.InstructionCounter = m.CPU.InstructionCounter
	child.CPU.MaxInstructions = m.CPU.MaxInstructions

	child.CPU.OnSyscall = func(c *cpu.CPU[T]) { child.dispatchSyscall() }
	child.CPU.OnEBreak = func(c *cpu.CPU[T]) { c.Stop() }
	child.CPU.OnFault = func(c *cpu.CPU[T], f *defs.Fault) bool {
		if child.faultHandler == nil {
			return false
		}
		return child.faultHandler(child, f)
	}

	return child
}
