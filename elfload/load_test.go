package elfload

import (
	"debug/elf"
	"testing"

	"github.com/mayhemheroes/libriscv/decode"
	"github.com/mayhemheroes/libriscv/mem"
)

func decOpt() decode.Options { return decode.Options{XLENBits: 64} }

func TestLoadInstallsExecutableSegment(t *testing.T) {
	code := execWord()
	raw := buildELF(t, elf.EM_RISCV, elf.ET_EXEC, 0x10000, []testSeg{
		{vaddr: 0x10000, memsz: 0x1000, flags: elf.PF_R | elf.PF_X, data: code},
	})

	loaded := Load[uint64](raw, 0, DefaultOptions(), decOpt())

	if loaded.Memory.Entry != 0x10000 {
		t.Fatalf("Entry got: %#x expected: %#x", loaded.Memory.Entry, 0x10000)
	}
	if got := loaded.Memory.Read32(0x10000); got != 0x00100073 {
		t.Errorf("Read32(entry) got: %#x expected: %#x", got, 0x00100073)
	}
	if seg := loaded.Memory.FindSegment(0x10000); seg == nil {
		t.Error("FindSegment(entry) got: nil, expected an installed execute segment")
	}
}

func TestLoadComputesOrderedState(t *testing.T) {
	raw := buildELF(t, elf.EM_RISCV, elf.ET_EXEC, 0x10000, []testSeg{
		{vaddr: 0x10000, memsz: 0x2000, flags: elf.PF_R | elf.PF_X, data: execWord()},
	})

	loaded := Load[uint64](raw, 0, DefaultOptions(), decOpt())
	m := loaded.Memory

	if m.HeapBase < 0x12000 {
		t.Errorf("HeapBase got: %#x expected at least %#x", m.HeapBase, 0x12000)
	}
	if m.StackTop <= m.HeapBase {
		t.Errorf("StackTop got: %#x expected greater than HeapBase %#x", m.StackTop, m.HeapBase)
	}
	if m.ExitTrampoline < m.StackTop {
		t.Errorf("ExitTrampoline got: %#x expected at least StackTop %#x", m.ExitTrampoline, m.StackTop)
	}
	if m.MmapCursor <= m.ExitTrampoline {
		t.Errorf("MmapCursor got: %#x expected greater than ExitTrampoline %#x", m.MmapCursor, m.ExitTrampoline)
	}
	if got := m.Read32(m.ExitTrampoline); got != 0x00100073 {
		t.Errorf("Read32(ExitTrampoline) got: %#x expected EBREAK %#x", got, 0x00100073)
	}
}

func TestLoadRejectsWriteExecSegmentByDefault(t *testing.T) {
	raw := buildELF(t, elf.EM_RISCV, elf.ET_EXEC, 0x10000, []testSeg{
		{vaddr: 0x10000, memsz: 0x1000, flags: elf.PF_R | elf.PF_W | elf.PF_X, data: execWord()},
	})

	defer func() {
		if recover() == nil {
			t.Fatal("Load() got: no panic, expected InvalidProgram (W^X) fault")
		}
	}()
	Load[uint64](raw, 0, DefaultOptions(), decOpt())
}

func TestLoadSkipsInstallWhenLoadProgramFalse(t *testing.T) {
	raw := buildELF(t, elf.EM_RISCV, elf.ET_EXEC, 0x10000, []testSeg{
		{vaddr: 0x10000, memsz: 0x1000, flags: elf.PF_R | elf.PF_X, data: execWord()},
	})

	opt := DefaultOptions()
	opt.LoadProgram = false
	loaded := Load[uint64](raw, 0, opt, decOpt())

	if loaded.Memory.Entry != 0x10000 {
		t.Fatalf("Entry got: %#x expected: %#x", loaded.Memory.Entry, 0x10000)
	}
	if seg := loaded.Memory.FindSegment(0x10000); seg != nil {
		t.Error("FindSegment(entry) got: an installed segment, expected nil since LoadProgram was false")
	}
}

func TestLoadReadOnlyAreaFastPathForMultiPageSegment(t *testing.T) {
	data := make([]byte, 3*mem.PageSize)
	for i := range data {
		data[i] = byte(i)
	}
	const vaddr = 0x20010 // unaligned, so the fast path's boundary pages are genuinely partial
	raw := buildELF(t, elf.EM_RISCV, elf.ET_EXEC, vaddr, []testSeg{
		{vaddr: vaddr, memsz: uint64(len(data)), flags: elf.PF_R, data: data},
	})

	loaded := Load[uint64](raw, 0, DefaultOptions(), decOpt())
	dst := make([]byte, len(data))
	loaded.Memory.CopyFromGuest(dst, vaddr)
	for i := range data {
		if dst[i] != data[i] {
			t.Fatalf("CopyFromGuest()[%d] got: %#x expected: %#x", i, dst[i], data[i])
		}
	}
}
