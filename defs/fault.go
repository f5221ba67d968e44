// Package defs holds the fault kinds and small cross-cutting constants
// shared by every other package in the emulator core. It plays the same
// role the teacher's defs package plays for biscuit: a leaf package that
// everything else imports and that imports nothing domain-specific.
package defs

import "fmt"

// Kind identifies the reason a Fault was raised. The twelve values below
// are exactly the error kinds enumerated in the specification's error
// handling table.
type Kind int

const (
	// ProtectionFault is raised when a read, write, or execute is
	// attempted against a page whose attributes forbid it.
	ProtectionFault Kind = iota + 1
	// ExecutionSpaceProtectionFault is raised when the program counter
	// lands outside of any executable segment and no enclosing segment
	// can be found.
	ExecutionSpaceProtectionFault
	// IllegalOpcode is raised when the decoder yields BC_INVALID or a
	// reserved encoding is executed.
	IllegalOpcode
	// IllegalOperation is raised on misuse of the host API, such as
	// installing a shared page over a live, non-sentinel page.
	IllegalOperation
	// InvalidAlignment is raised when alignment checking is enabled and
	// an unaligned access occurs.
	InvalidAlignment
	// InvalidProgram is raised when ELF validation fails.
	InvalidProgram
	// OutOfMemory is raised when page allocation would exceed the
	// configured memory_max.
	OutOfMemory
	// FeatureDisabled is raised when an operation requires a feature
	// that was not built into this image (e.g. vector extension).
	FeatureDisabled
	// DeadlockReached is raised when a futex wait finds no runnable
	// thread left to schedule.
	DeadlockReached
	// UnhandledSyscall is raised when no syscall handler is registered
	// for the requested number and no catch-all has been installed.
	UnhandledSyscall
	// UnimplementedInstructionLength is raised when the decoder
	// computes an instruction length other than 2 or 4 bytes.
	UnimplementedInstructionLength
	// Timeout is raised when the instruction budget passed to Simulate
	// is exhausted before the guest stops itself.
	Timeout
)

var names = map[Kind]string{
	ProtectionFault:                 "PROTECTION_FAULT",
	ExecutionSpaceProtectionFault:   "EXECUTION_SPACE_PROTECTION_FAULT",
	IllegalOpcode:                   "ILLEGAL_OPCODE",
	IllegalOperation:                "ILLEGAL_OPERATION",
	InvalidAlignment:                "INVALID_ALIGNMENT",
	InvalidProgram:                  "INVALID_PROGRAM",
	OutOfMemory:                     "OUT_OF_MEMORY",
	FeatureDisabled:                 "FEATURE_DISABLED",
	DeadlockReached:                 "DEADLOCK_REACHED",
	UnhandledSyscall:                "UNHANDLED_SYSCALL",
	UnimplementedInstructionLength:  "UNIMPLEMENTED_INSTRUCTION_LENGTH",
	Timeout:                         "TIMEOUT",
}

// String returns the all-caps spec name for the kind, e.g. "OUT_OF_MEMORY".
func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Fault is the carrier type for every synchronous exception the core can
// raise. It is an ordinary Go error, but it is also used as a panic
// payload across the CPU/Memory -> Machine unwind boundary described in
// the specification's error propagation section: faults are presented to
// a per-CPU fault handler first, and only escape Simulate if that handler
// does not repair the state itself.
type Fault struct {
	Kind    Kind
	Message string
	// Address is the faulting address, bad instruction word, or other
	// numeric datum relevant to the fault kind. Its meaning depends on
	// Kind and is zero when not applicable.
	Address uint64
}

func (f *Fault) Error() string {
	if f.Message == "" {
		return fmt.Sprintf("%s at 0x%x", f.Kind, f.Address)
	}
	return fmt.Sprintf("%s: %s (0x%x)", f.Kind, f.Message, f.Address)
}

// New builds a Fault. It is the sole constructor used throughout the
// core so that every fault site is easy to grep for.
func New(kind Kind, message string, address uint64) *Fault {
	return &Fault{Kind: kind, Message: message, Address: address}
}

// Throw panics with a *Fault. Throw never returns; this mirrors the
// source project's trigger_exception, which the specification's open
// questions section says never returns in practice, so Go's panic/
// recover unwind is a faithful rendering of the original control flow.
func Throw(kind Kind, message string, address uint64) {
	panic(New(kind, message, address))
}

// Recover is called with the result of recover() at an unwind boundary
// (CPU.Simulate, Machine.Simulate). It returns the *Fault if the
// recovered value was one raised by Throw, and re-panics otherwise so
// that genuine programming errors are not swallowed.
func Recover(r any) *Fault {
	if r == nil {
		return nil
	}
	if f, ok := r.(*Fault); ok {
		return f
	}
	panic(r)
}
