package machine

import (
	"github.com/mayhemheroes/libriscv/cpu"
	"github.com/mayhemheroes/libriscv/thread"
)

// signalFrameWords is how many 8-byte guest-stack slots a delivered
// signal's saved register frame occupies: the 32 integer registers plus
// the saved PC.
const signalFrameWords = 33

// DeliverSignal implements spec §4.6's signal-handler invocation: it
// pushes the target thread's register state onto its alt-stack (or its
// current stack pointer, if SignalAction.AltStack is unset) and
// redirects it to the handler, mirroring Vmcall's push-then-redirect-PC
// pattern (machine/vmcall.go). An unset handler is the POSIX default —
// it terminates the thread instead of invoking anything. This is the
// delivery mechanism only: a syscall layer implementing tgkill/kill
// needs only to call this with the signal number it decoded.
func (m *Machine[T]) DeliverSignal(tid int, sig int) {
	th := m.Threads.Get(tid)
	if th == nil {
		return
	}
	act := m.Signals.Action(sig)
	if act.IsUnset() {
		th.State = thread.Exited
		if tid == m.Threads.TID() {
			m.Stop()
		}
		return
	}

	if tid == m.Threads.TID() {
		m.deliverToRunning(act, sig)
		return
	}
	m.deliverToSuspended(th, act, sig)
}

// RestoreSignal implements sigreturn: it pops the register frame
// DeliverSignal pushed at frameBase and resumes execution at the PC the
// signal interrupted. A syscall layer implementing sigreturn needs only
// to call this with the frame pointer the handler was invoked with (a1,
// per DeliverSignal's calling convention below).
func (m *Machine[T]) RestoreSignal(frameBase T) {
	regs, pc := m.popFrame(frameBase)
	m.CPU.Regs = regs
	m.CPU.PC = pc
}

func (m *Machine[T]) deliverToRunning(act thread.SignalAction, sig int) {
	base := m.frameBase(m.CPU.Regs.Get(2), act.AltStack)
	m.pushFrame(base, m.CPU.Regs, m.CPU.PC)

	m.CPU.Regs.Set(2, base)                     // sp: handler runs on the signal frame
	m.CPU.Regs.Set(10, T(uint64(sig)))          // a0: signal number
	m.CPU.Regs.Set(11, base)                    // a1: frame pointer, for sigreturn
	m.CPU.Regs.Set(1, m.Memory.ExitTrampoline)  // ra: falls through to EBREAK if the handler never sigreturns
	m.CPU.PC = T(act.Handler)
}

func (m *Machine[T]) deliverToSuspended(th *thread.Thread[cpu.IntRegs[T]], act thread.SignalAction, sig int) {
	base := m.frameBase(th.SavedRegisters.Get(2), act.AltStack)
	m.pushFrame(base, th.SavedRegisters, th.SavedPC)

	th.SavedRegisters.Set(2, base)
	th.SavedRegisters.Set(10, T(uint64(sig)))
	th.SavedRegisters.Set(11, base)
	th.SavedRegisters.Set(1, m.Memory.ExitTrampoline)
	th.SavedPC = T(act.Handler)
}

func (m *Machine[T]) frameBase(sp T, altStack uint64) T {
	top := sp
	if altStack != 0 {
		top = T(altStack)
	}
	return top - T(signalFrameWords*8)
}

func (m *Machine[T]) pushFrame(base T, regs cpu.IntRegs[T], pc T) {
	for i := uint32(0); i < 32; i++ {
		m.Memory.Write64(base+T(i*8), uint64(regs.Get(i)))
	}
	m.Memory.Write64(base+T(32*8), uint64(pc))
}

func (m *Machine[T]) popFrame(base T) (cpu.IntRegs[T], T) {
	var regs cpu.IntRegs[T]
	for i := uint32(0); i < 32; i++ {
		regs.Set(i, T(m.Memory.Read64(base+T(i*8))))
	}
	pc := T(m.Memory.Read64(base + T(32*8)))
	return regs, pc
}
