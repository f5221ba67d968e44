// Package elfload parses a statically-linked RISC-V ELF image, installs
// its PT_LOAD segments into a mem.Memory, computes the guest's initial
// register/address state, and resolves symbols against .symtab/.strtab.
// It is grounded on debug/elf for header parsing (no third-party ELF
// parser appears anywhere in the retrieved corpus; debug/elf is the
// idiomatic choice other Go hypervisors/loaders in the pack reach for,
// e.g. bobuhiro11/gokvm's machine.go) and on the teacher's option-struct
// conventions (biscuit/src/vm configuration style) for MachineOptions.
package elfload

// Options configures Load. The zero value loads nothing, since
// LoadProgram and ProtectSegments are both false; DefaultOptions
// returns the usual settings (load the program, protect segments,
// reject W^X, no verbosity).
type Options struct {
	// MemoryMax is not read by Load, which takes its page limit as the
	// pagesMax argument.
	MemoryMax int
	// StackSize is the guest stack's size in bytes; 0 selects a 1 MiB
	// default.
	StackSize int
	// LoadProgram, when false, makes Load parse and validate only the
	// ELF header and record the entry point: PT_LOAD segments are neither
	// validated nor installed, and no heap, stack or exit-trampoline
	// state is computed.
	LoadProgram bool
	// ProtectSegments enforces each PT_LOAD segment's Read/Write/Exec
	// flags on the installed pages; when false, every installed page is
	// fully permissive.
	ProtectSegments bool
	// AllowWriteExecSegment disables the W^X rejection.
	AllowWriteExecSegment bool
	// EnforceExecOnly strips Read from every executable segment,
	// whatever its program-header flags say.
	EnforceExecOnly bool
	// VerboseLoader logs segment and symbol counts and the computed
	// layout through log/slog.
	VerboseLoader bool
	// MinimalFork skips recording the raw ELF image in the Memory via
	// mem.Memory.SetELFImage; mem.Memory.Fork copies whatever image the
	// Memory holds. The symbol table lives in Image and is not affected.
	MinimalFork bool
}

// DefaultOptions returns the conservative defaults spec.md §4.2 implies:
// load the program, protect segment permissions, reject W^X.
func DefaultOptions() Options {
	return Options{
		StackSize:       1 << 20,
		LoadProgram:     true,
		ProtectSegments: true,
	}
}
