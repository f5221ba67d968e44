package elfload

import (
	"encoding/binary"

	"github.com/mayhemheroes/libriscv/decode"
	"github.com/mayhemheroes/libriscv/mem"
)

// brkMax is the gap reserved between the computed heap base and the
// start of the mmap region, mirroring the original project's default
// growth allowance for brk() before it collides with mmap allocations.
const brkMax = 16 << 20

// ebreakWord is a little-endian RV32/RV64 EBREAK encoding (funct12=1,
// opcode SYSTEM). The exit trampoline is a single page holding exactly
// this instruction.
var ebreakWord = [4]byte{}

func init() {
	binary.LittleEndian.PutUint32(ebreakWord[:], 0x00100073)
}

// computeState fills in Entry/HeapBase/MmapCursor/StackTop/
// ExitTrampoline on m and installs the exit trampoline page, per spec
// §4.2's "computes initial state" paragraph.
func computeState[T mem.Word](img *Image, segs []loadSeg, m *mem.Memory[T], opt Options, decOpt decode.Options) {
	var heapEnd uint64
	for _, s := range segs {
		end := alignUp(s.vaddr+s.memsz, mem.PageSize)
		if end > heapEnd {
			heapEnd = end
		}
	}

	m.Entry = T(img.Entry)
	m.HeapBase = T(heapEnd)

	cursor := heapEnd + brkMax
	stackSize := uint64(opt.StackSize)
	if stackSize == 0 {
		stackSize = 1 << 20
	}
	stackSize = alignUp(stackSize, mem.PageSize)

	stackBase := cursor
	cursor += stackSize
	m.StackTop = T(stackBase + stackSize)

	trampolineBase := cursor
	cursor += mem.PageSize
	m.MmapCursor = T(cursor)
	m.ExitTrampoline = T(trampolineBase)

	m.CopyToGuest(T(trampolineBase), ebreakWord[:])
	m.SetPageAttr(T(trampolineBase), mem.PageSize, mem.Attr{Read: true, Exec: true, Cacheable: true})
	m.InstallExecuteSegment(T(trampolineBase), ebreakWord[:], decOpt)
}
