package elfload

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/mayhemheroes/libriscv/defs"
)

// maxProgramHeaders bounds program-header count per spec §4.2.
const maxProgramHeaders = 16

// Image is a validated, parsed ELF executable: the program headers
// debug/elf extracted, plus the symbol table (best-effort — a stripped
// binary has none and that's fine, symbol lookup just always misses).
type Image struct {
	Raw     []byte
	File    *elf.File
	Class   elf.Class
	Entry   uint64
	Symbols []elf.Symbol
}

// Parse validates header, class, type and machine, and loads the
// section/symbol tables debug/elf can give us. It never installs
// anything into a Memory; see Install for that. Every validation
// failure raises INVALID_PROGRAM through defs.Throw rather than
// returning an error.
func Parse(raw []byte) *Image {
	f, err := elf.NewFile(bytes.NewReader(raw))
	if err != nil {
		defs.Throw(defs.InvalidProgram, "not a valid ELF image: "+err.Error(), 0)
	}
	if f.Type != elf.ET_EXEC {
		defs.Throw(defs.InvalidProgram, fmt.Sprintf("not ET_EXEC (got %s)", f.Type), 0)
	}
	if f.Machine != elf.EM_RISCV {
		defs.Throw(defs.InvalidProgram, fmt.Sprintf("not EM_RISCV (got %s)", f.Machine), 0)
	}
	if f.Class != elf.ELFCLASS32 && f.Class != elf.ELFCLASS64 {
		defs.Throw(defs.InvalidProgram, "unrecognized ELF class", 0)
	}
	if f.ByteOrder != binary.LittleEndian {
		defs.Throw(defs.InvalidProgram, "ELF is not little-endian", 0)
	}
	if len(f.Progs) == 0 || len(f.Progs) > maxProgramHeaders {
		defs.Throw(defs.InvalidProgram, fmt.Sprintf("program header count %d out of range [1,%d]", len(f.Progs), maxProgramHeaders), 0)
	}

	img := &Image{Raw: raw, File: f, Class: f.Class, Entry: f.Entry}
	if syms, err := f.Symbols(); err == nil {
		img.Symbols = syms
	}
	return img
}
