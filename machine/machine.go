// Package machine is the top-level composition spec §4.5 describes:
// it owns a CPU, a Memory, the thread and signal tables, the syscall
// handler array, the printer/stdin/debug-print callbacks, and the
// instruction-counter budget. It is grounded on
// _examples/original_source/lib/libriscv/machine.cpp's constructor and
// on the teacher's top-level VM type (biscuit's machine/runtime
// composition) for how a host-facing façade wires together lower-level
// pieces without leaking their internals.
package machine

import (
	"github.com/mayhemheroes/libriscv/cpu"
	"github.com/mayhemheroes/libriscv/decode"
	"github.com/mayhemheroes/libriscv/defs"
	"github.com/mayhemheroes/libriscv/elfload"
	"github.com/mayhemheroes/libriscv/mem"
	"github.com/mayhemheroes/libriscv/thread"
)

const maxSyscalls = 512

// Printer is the guest's stdout/stderr sink, installed with SetPrinter.
type Printer func(data []byte)

// StdinReader supplies guest reads from the host's stdin, installed
// with SetStdin.
type StdinReader func(buf []byte) int

// DebugPrinter receives diagnostic lines from debug-trap handlers or an
// instrumented syscall layer, distinct from Printer's guest-facing
// stdout stream.
type DebugPrinter func(line string)

// SyscallHandler services one ECALL. It reads arguments with
// SyscallArg[R](m, i) and sets a return value with m.CPU.Regs.Set(10, ...).
type SyscallHandler[T cpu.Word] func(m *Machine[T])

// Options configures New, mirroring spec §4.2/§4.5's MachineOptions
// enumeration. It embeds elfload.Options so loader and machine
// configuration travel together the way the original project's single
// options struct does.
type Options[T cpu.Word] struct {
	elfload.Options
	Decode decode.Options

	// MemoryMax caps total resident bytes; 0 means unbounded. Converted
	// to a page count before reaching mem.New.
	MemoryMax int

	// MaxInstructions is the default budget Simulate uses when called
	// with max == 0; 0 here means "run until the guest stops itself or
	// Simulate's caller supplies an explicit budget".
	MaxInstructions uint64

	// PageFaultHandler overrides Memory's default permissive handler,
	// per spec §4.2's "optional custom page_fault_handler".
	PageFaultHandler mem.PageFaultHandler[T]
}

// Machine is one RISC-V guest process: CPU, Memory, thread/signal
// tables, the syscall array, and the host-facing callback surface.
type Machine[T cpu.Word] struct {
	CPU    *cpu.CPU[T]
	Memory *mem.Memory[T]
	Image  *elfload.Image

	Threads *thread.Table[cpu.IntRegs[T]]
	Signals *thread.SignalTable

	syscalls        [maxSyscalls]SyscallHandler[T]
	onUnhandled     SyscallHandler[T]
	printer         Printer
	stdin           StdinReader
	debugPrinter    DebugPrinter
	userdata        any
	faultHandler    func(m *Machine[T], f *defs.Fault) bool
	maxInstructions uint64
}

// New parses and loads binary per opt, wiring a CPU over the resulting
// Memory and installing the syscall/EBREAK trampolines that route ECALL
// and EBREAK back into this Machine.
func New[T cpu.Word](binary []byte, opt Options[T]) *Machine[T] {
	pagesMax := 0
	if opt.MemoryMax > 0 {
		pagesMax = opt.MemoryMax / mem.PageSize
	}

	loaded := elfload.Load[T](binary, pagesMax, opt.Options, opt.Decode)
	if opt.PageFaultHandler != nil {
		loaded.Memory.SetPageFaultHandler(opt.PageFaultHandler)
	}

	m := &Machine[T]{
		Memory:          loaded.Memory,
		Image:           loaded.Image,
		Threads:         thread.NewTable[cpu.IntRegs[T]](),
		Signals:         thread.NewSignalTable(),
		maxInstructions: opt.MaxInstructions,
	}
	m.CPU = cpu.New[T](m.Memory, opt.Decode)
	m.CPU.PC = m.Memory.Entry
	m.CPU.Regs.Set(2, m.Memory.StackTop) // sp
	m.CPU.OnSyscall = func(c *cpu.CPU[T]) { m.dispatchSyscall() }
	m.CPU.OnEBreak = func(c *cpu.CPU[T]) { c.Stop() }
	m.CPU.OnFault = func(c *cpu.CPU[T], f *defs.Fault) bool {
		if m.faultHandler == nil {
			return false
		}
		return m.faultHandler(m, f)
	}
	return m
}

// Simulate runs at most max additional instructions, or
// m.maxInstructions if max is zero and a nonzero budget was configured
// at construction. It returns the fault that stopped it, if any.
func (m *Machine[T]) Simulate(max uint64) *defs.Fault {
	if max == 0 {
		max = m.maxInstructions
	}
	if max == 0 {
		max = ^uint64(0)
	}
	return m.CPU.Simulate(max)
}

// Stop requests that Simulate return at the next instruction boundary.
func (m *Machine[T]) Stop() { m.CPU.Stop() }

// SetResult writes v into a0, the register ReturnValue reads back,
// matching the original's set_result/return_value<T> pair being two
// views of the same register rather than a separately tracked slot.
func (m *Machine[T]) SetResult(v T) { m.CPU.Regs.Set(10, v) }

// ReturnValue reads the guest's return value: a0 reinterpreted as R,
// truncated/widened as needed. Most callers pass the same width as T;
// the type parameter exists so narrower host types (e.g. int32 exit
// codes) can be read directly.
func ReturnValue[T cpu.Word, R ~int32 | ~int64 | ~uint32 | ~uint64](m *Machine[T]) R {
	return R(m.CPU.Regs.Get(10))
}

// InstructionCounter returns the number of instructions retired so far.
func (m *Machine[T]) InstructionCounter() uint64 { return m.CPU.InstructionCounter }

// MaxInstructions returns the configured default budget.
func (m *Machine[T]) MaxInstructions() uint64 { return m.maxInstructions }

// SetPrinter installs the guest stdout/stderr sink.
func (m *Machine[T]) SetPrinter(p Printer) { m.printer = p }

// SetStdin installs the guest stdin source.
func (m *Machine[T]) SetStdin(r StdinReader) { m.stdin = r }

// SetDebugPrinter installs the diagnostic-line sink.
func (m *Machine[T]) SetDebugPrinter(p DebugPrinter) { m.debugPrinter = p }

// SetUserdata attaches an arbitrary host-owned value retrievable from
// syscall handlers via Userdata.
func (m *Machine[T]) SetUserdata(v any) { m.userdata = v }

// Userdata returns whatever was last passed to SetUserdata.
func (m *Machine[T]) Userdata() any { return m.userdata }

// SetFaultHandler installs the per-Machine fault handler consulted
// before a fault unwinds out of Simulate.
func (m *Machine[T]) SetFaultHandler(h func(m *Machine[T], f *defs.Fault) bool) {
	m.faultHandler = h
}

// Print writes data through the installed printer, a no-op if none is
// set.
func (m *Machine[T]) Print(data []byte) {
	if m.printer != nil {
		m.printer(data)
	}
}

// ReadStdin reads through the installed stdin source, returning 0 if
// none is set.
func (m *Machine[T]) ReadStdin(buf []byte) int {
	if m.stdin == nil {
		return 0
	}
	return m.stdin(buf)
}

// Debug forwards a line to the installed debug printer.
func (m *Machine[T]) Debug(line string) {
	if m.debugPrinter != nil {
		m.debugPrinter(line)
	}
}
