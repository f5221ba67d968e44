package cpu

import (
	"fmt"

	"github.com/mayhemheroes/libriscv/decode"
	"github.com/mayhemheroes/libriscv/defs"
	"github.com/mayhemheroes/libriscv/mem"
)

// Word is re-exported from mem so callers never need to import mem just
// to spell the address-width constraint on a CPU[T].
type Word = mem.Word

// SyscallHandler is invoked on ECALL with a7 already loaded into the
// register file; it is Machine's syscall dispatcher, wired in after
// construction to avoid an import cycle between cpu and machine.
type SyscallHandler[T Word] func(c *CPU[T])

// FaultHandler is consulted before a fault unwinds past Simulate. It
// may repair CPU/Memory state and return true to resume execution at
// the (possibly adjusted) PC, or return false to let the fault
// propagate.
type FaultHandler[T Word] func(c *CPU[T], f *defs.Fault) bool

// reservation is the per-CPU LR/SC monitor (spec §4.4's "per-CPU
// reservation address and size").
type reservation[T Word] struct {
	valid bool
	addr  T
	size  uint32
}

// CPU is one RISC-V hart: its register file, program counter, bound
// execute segment, and the hooks Machine wires in.
type CPU[T Word] struct {
	Regs IntRegs[T]
	FP   FPRegs
	PC   T

	Mem *mem.Memory[T]
	Opt decode.Options

	InstructionCounter uint64
	MaxInstructions    uint64
	stopped            bool

	segment *mem.ExecuteSegment[T]
	resv    reservation[T]

	OnSyscall SyscallHandler[T]
	OnEBreak  SyscallHandler[T]
	OnFault   FaultHandler[T]
}

// New constructs a CPU bound to m, with PC and the stack pointer (x2)
// left for the caller (or Machine.Reset) to initialize.
func New[T Word](m *mem.Memory[T], opt decode.Options) *CPU[T] {
	return &CPU[T]{Mem: m, Opt: opt}
}

// Stop requests that Simulate return at the next instruction boundary.
func (c *CPU[T]) Stop() { c.stopped = true }

// Jump sets PC directly, invalidating the bound-segment fast path so
// the next Simulate iteration re-resolves it.
func (c *CPU[T]) Jump(addr T) {
	c.PC = addr
	c.segment = nil
}

// Simulate runs at most max additional instructions (spec §4.4). It
// returns the fault that stopped it, if any; running out of the budget
// is itself reported as a TIMEOUT fault. A nil return means Stop() was
// called, or that OnFault accepted a fault after the budget was used up.
func (c *CPU[T]) Simulate(max uint64) (fault *defs.Fault) {
	budget := c.InstructionCounter + max
	c.stopped = false

	// A handler that repairs and resumes loops back here rather than
	// re-entering Simulate recursively, so a long run handling many
	// faults one after another stays at constant stack depth.
	for {
		f := c.runUntilFault(budget)
		if f == nil {
			return nil
		}
		if c.OnFault != nil && c.OnFault(c, f) {
			if c.stopped || c.InstructionCounter >= budget {
				return nil
			}
			continue
		}
		if asm := c.disassembleCurrent(); asm != "" {
			f.Message = fmt.Sprintf("%s [%s]", f.Message, asm)
		}
		return f
	}
}

// runUntilFault executes instructions up to budget, turning a panic
// raised by defs.Throw into a returned Fault instead of letting it
// unwind past this call.
func (c *CPU[T]) runUntilFault(budget uint64) (fault *defs.Fault) {
	defer func() {
		if r := recover(); r != nil {
			fault = defs.Recover(r)
		}
	}()

	for c.InstructionCounter < budget && !c.stopped {
		c.step()
		c.InstructionCounter++
	}
	if c.InstructionCounter >= budget && !c.stopped {
		defs.Throw(defs.Timeout, "instruction budget exhausted", c.InstructionCounter)
	}
	return nil
}

// step fetches, decodes (via the segment's cache), dispatches, and
// advances PC by the decoded length, per spec §4.4.
func (c *CPU[T]) step() {
	seg := c.resolveSegment(c.PC)
	entry, ok := seg.FetchEntry(c.PC)
	if !ok {
		defs.Throw(defs.ExecutionSpaceProtectionFault, "fetch past end of execute segment", uint64(c.PC))
	}

	off := int(c.PC - seg.Base)
	raw := seg.Raw[off:]

	pcBefore := c.PC
	dispatch(c, entry, raw)
	if c.PC == pcBefore {
		// No branch/jump touched PC: advance by the decoded length.
		c.PC += T(entry.Length)
	}
}

// resolveSegment implements spec §4.4's execute-segment binding: fast
// path when PC is still within the bound segment, otherwise a slow path
// that searches Memory's segment list, lazily creates one over a
// directly-executable page if none is registered, or raises
// EXECUTION_SPACE_PROTECTION_FAULT. An exec trap on the underlying page,
// if any, fires on every rebind (every slow-path transition into the
// segment), which is what makes a repeatedly re-entered trap page fire
// every time rather than only once.
func (c *CPU[T]) resolveSegment(pc T) *mem.ExecuteSegment[T] {
	if c.segment != nil && c.segment.Contains(pc) {
		return c.segment
	}

	seg := c.Mem.FindSegment(pc)
	if seg == nil {
		pageno := mem.PageNo(pc)
		pg := c.Mem.GetExecutablePage(pageno)
		if pg == nil {
			defs.Throw(defs.ExecutionSpaceProtectionFault, "no enclosing execute segment", uint64(pc))
		}
		base := pageno << mem.PageShift
		seg = c.Mem.InstallExecuteSegment(base, pg.Data, c.Opt)
	}

	if pg := c.Mem.PeekPageIfPresent(mem.PageNo(pc)); pg != nil && pg.HasTrap() {
		pg.Fire(mem.Offset(pc), mem.TrapExec, int64(pc))
	}

	c.segment = seg
	return seg
}

// EvictSegmentBinding clears the fast-path cache, used after
// EvictExecuteSegments so a stale pointer is never dereferenced.
func (c *CPU[T]) EvictSegmentBinding() { c.segment = nil }

// disassembleCurrent renders the instruction at the faulting PC for the
// fault message, best-effort: an absent page, or one with no data at
// PC, yields "" rather than a second fault; near the end of a page only
// the bytes that remain are handed to the disassembler.
func (c *CPU[T]) disassembleCurrent() (asm string) {
	defer func() { recover() }()
	pg := c.Mem.PeekPageIfPresent(mem.PageNo(c.PC))
	if pg == nil {
		return ""
	}
	off := mem.Offset(c.PC)
	if int(off) >= len(pg.Data) {
		return ""
	}
	end := off + 4
	if int(end) > len(pg.Data) {
		end = uint32(len(pg.Data))
	}
	return decode.Disassemble(pg.Data[off:end])
}
