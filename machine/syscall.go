package machine

import (
	"github.com/mayhemheroes/libriscv/cpu"
	"github.com/mayhemheroes/libriscv/defs"
)

// InstallSyscallHandler registers fn for syscall number n, grounded on
// _examples/original_source/lib/libriscv/system_calls.cpp's flat,
// compile-time-bounded syscall array plus a separate unhandled-syscall
// callback.
func (m *Machine[T]) InstallSyscallHandler(n int, fn SyscallHandler[T]) {
	if n < 0 || n >= maxSyscalls {
		defs.Throw(defs.UnhandledSyscall, "syscall number out of table range", uint64(n))
	}
	m.syscalls[n] = fn
}

// OnUnhandledSyscall installs the catch-all invoked when no handler is
// registered for the requested syscall number.
func (m *Machine[T]) OnUnhandledSyscall(fn SyscallHandler[T]) { m.onUnhandled = fn }

// dispatchSyscall reads the syscall number from a7 (the calling
// convention spec §4.5 names for ints), finds its handler, and invokes
// it; an unregistered number with no catch-all raises UNHANDLED_SYSCALL.
func (m *Machine[T]) dispatchSyscall() {
	n := uint64(m.CPU.Regs.Get(17)) // a7
	var h SyscallHandler[T]
	if n < maxSyscalls {
		h = m.syscalls[n]
	}
	if h == nil {
		h = m.onUnhandled
	}
	if h == nil {
		defs.Throw(defs.UnhandledSyscall, "no handler registered", n)
	}
	h(m)
}

// SyscallArg reads argument i (0-indexed) from the a0..a7 integer
// calling-convention registers, per spec §6's sysarg<T>(i), grounded on
// machine.sysarg<T>(i) in system_calls.cpp. R is one of int32, int64,
// uint32, uint64, int, uint, or float32/float64, in which case the value
// comes from fa0..fa7 instead.
func SyscallArg[R any, T cpu.Word](m *Machine[T], i int) R {
	var zero R
	switch any(zero).(type) {
	case float32:
		return any(m.CPU.FP.GetFloat(uint32(10 + i))).(R)
	case float64:
		return any(m.CPU.FP.GetDouble(uint32(10 + i))).(R)
	}
	v := m.CPU.Regs.Get(uint32(10 + i))
	raw := uint64(v)
	switch any(zero).(type) {
	case int32:
		return any(int32(raw)).(R)
	case int64:
		return any(int64(raw)).(R)
	case uint32:
		return any(uint32(raw)).(R)
	case uint64:
		return any(raw).(R)
	case int:
		return any(int(int64(raw))).(R)
	case uint:
		return any(uint(raw)).(R)
	default:
		defs.Throw(defs.IllegalOperation, "unsupported SyscallArg type", uint64(i))
		return zero
	}
}

// SetSyscallReturn writes v into a0, the integer return-value register.
func (m *Machine[T]) SetSyscallReturn(v int64) {
	m.CPU.Regs.Set(10, cpuAsT[T](v))
}

func cpuAsT[T cpu.Word](v int64) T { return T(uint64(v)) }

// SetSyscallReturnErrno writes -errno into a0, the Linux convention for
// a failed syscall.
func (m *Machine[T]) SetSyscallReturnErrno(errno int) {
	m.SetSyscallReturn(-int64(errno))
}
