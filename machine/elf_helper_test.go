package machine

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/mayhemheroes/libriscv/decode"
	"github.com/mayhemheroes/libriscv/elfload"
)

// elf64Header and elf64Phdr mirror the ELF64 on-disk layout exactly, the
// same minimal synthetic-binary trick elfload's own tests use, duplicated
// here since a _test.go helper isn't exported across packages.
type elf64Header struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type elf64Phdr struct {
	Type   uint32
	Flags  uint32
	Offset uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

func decOpt() decode.Options { return decode.Options{XLENBits: 64} }

func rv64Opts() Options[uint64] {
	return Options[uint64]{Options: elfload.DefaultOptions(), Decode: decOpt()}
}

// buildRiscvELF assembles a single-PT_LOAD, R+X ET_EXEC RISC-V image
// with code as its entire contents, entry at the segment's base.
func buildRiscvELF(t *testing.T, base uint64, code []byte) []byte {
	t.Helper()
	const phOff = 64
	const phEntSize = 56

	hdr := elf64Header{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_RISCV),
		Version:   1,
		Entry:     base,
		Phoff:     phOff,
		Ehsize:    64,
		Phentsize: phEntSize,
		Phnum:     1,
	}
	hdr.Ident[0] = 0x7f
	hdr.Ident[1] = 'E'
	hdr.Ident[2] = 'L'
	hdr.Ident[3] = 'F'
	hdr.Ident[4] = byte(elf.ELFCLASS64)
	hdr.Ident[5] = byte(elf.ELFDATA2LSB)
	hdr.Ident[6] = byte(elf.EV_CURRENT)

	ph := elf64Phdr{
		Type:   uint32(elf.PT_LOAD),
		Flags:  uint32(elf.PF_R | elf.PF_X),
		Offset: phOff + phEntSize,
		Vaddr:  base,
		Paddr:  base,
		Filesz: uint64(len(code)),
		Memsz:  uint64(len(code)),
		Align:  0x1000,
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		t.Fatalf("binary.Write(header): %v", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, ph); err != nil {
		t.Fatalf("binary.Write(phdr): %v", err)
	}
	buf.Write(code)
	return buf.Bytes()
}

func encodeI(opcode, funct3, rd, rs1 uint32, imm int32) uint32 {
	return uint32(imm&0xFFF)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeS(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	hi := uint32(imm>>5) & 0x7F
	lo := uint32(imm) & 0x1F
	return hi<<25 | rs2<<20 | rs1<<15 | funct3<<12 | lo<<7 | opcode
}

func putWord(buf []byte, off int, w uint32) {
	binary.LittleEndian.PutUint32(buf[off:], w)
}

const ebreakWord = 0x00100073
const ecallWord = 0x00000073
