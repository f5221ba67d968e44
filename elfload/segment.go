package elfload

import (
	"debug/elf"
	"fmt"

	"github.com/mayhemheroes/libriscv/decode"
	"github.com/mayhemheroes/libriscv/defs"
	"github.com/mayhemheroes/libriscv/mem"
)

// loadSeg is a validated PT_LOAD, carrying only what Install needs.
type loadSeg struct {
	vaddr, memsz, filesz uint64
	data                 []byte // filesz bytes, from the image
	read, write, exec    bool
}

// validateLoads checks every PT_LOAD in img against spec §4.2: in-bounds
// file ranges, no overflow, no overlap, and W^X unless allowed.
func validateLoads(img *Image, opt Options) []loadSeg {
	var segs []loadSeg
	for _, p := range img.File.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		if p.Filesz > p.Memsz {
			defs.Throw(defs.InvalidProgram, "PT_LOAD filesz exceeds memsz", p.Vaddr)
		}
		if p.Off+p.Filesz < p.Off || p.Off+p.Filesz > uint64(len(img.Raw)) {
			defs.Throw(defs.InvalidProgram, "PT_LOAD file range out of bounds", p.Vaddr)
		}
		if p.Vaddr+p.Memsz < p.Vaddr {
			defs.Throw(defs.InvalidProgram, "PT_LOAD virtual range overflows", p.Vaddr)
		}
		read := p.Flags&elf.PF_R != 0
		write := p.Flags&elf.PF_W != 0
		exec := p.Flags&elf.PF_X != 0
		if write && exec && !opt.AllowWriteExecSegment {
			defs.Throw(defs.InvalidProgram, "W^X segment rejected", p.Vaddr)
		}
		if exec && opt.EnforceExecOnly {
			read = false
		}
		segs = append(segs, loadSeg{
			vaddr:  p.Vaddr,
			memsz:  p.Memsz,
			filesz: p.Filesz,
			data:   img.Raw[p.Off : p.Off+p.Filesz],
			read:   read,
			write:  write,
			exec:   exec,
		})
	}
	for i := 0; i < len(segs); i++ {
		for j := i + 1; j < len(segs); j++ {
			if rangesOverlap(segs[i].vaddr, segs[i].memsz, segs[j].vaddr, segs[j].memsz) {
				defs.Throw(defs.InvalidProgram, fmt.Sprintf("overlapping PT_LOAD segments at 0x%x and 0x%x", segs[i].vaddr, segs[j].vaddr), segs[j].vaddr)
			}
		}
	}
	return segs
}

func rangesOverlap(a0, alen, b0, blen uint64) bool {
	a1, b1 := a0+alen, b0+blen
	return a0 < b1 && b0 < a1
}

// textSection returns the [start,end) virtual range of .text if present
// and non-empty, for the "prefer .text" rule in spec §4.2.
func textSection(img *Image) (uint64, uint64, bool) {
	s := img.File.Section(".text")
	if s == nil || s.Size == 0 {
		return 0, 0, false
	}
	return s.Addr, s.Addr + s.Size, true
}

// installSegments installs every validated PT_LOAD into m, selecting the
// narrowest enclosing executable range for the bound execute segment
// (preferring .text when it is contained in the chosen PT_LOAD) and
// attempting the read-only-area fast path for readable, non-writable
// segments.
func installSegments[T mem.Word](img *Image, segs []loadSeg, m *mem.Memory[T], opt Options, decOpt decode.Options) {
	var execBase, execEnd uint64
	haveExec := false

	for _, s := range segs {
		base := alignDown(s.vaddr, mem.PageSize)
		end := alignUp(s.vaddr+s.memsz, mem.PageSize)

		switch {
		case s.exec:
			lo, hi := s.vaddr, s.vaddr+s.memsz
			if tlo, thi, ok := textSection(img); ok && tlo >= s.vaddr && thi <= s.vaddr+s.memsz {
				lo, hi = tlo, thi
			}
			installOwned[T](m, base, end, s, opt)
			raw := make([]byte, hi-lo)
			copyIntoGuestRange(raw, lo, s.vaddr, s.data)
			m.InstallExecuteSegment(T(lo), raw, decOpt)
			if !haveExec || lo < execBase {
				execBase, haveExec = lo, true
			}
			if hi > execEnd {
				execEnd = hi
			}

		case s.read && !s.write:
			if !installReadOnlyArea[T](m, base, end, s) {
				installOwned[T](m, base, end, s, opt)
			}

		default:
			installOwned[T](m, base, end, s, opt)
		}
	}
}

// installOwned byte-copies a segment's contents into freshly owned
// pages spanning [base,end), applying its permissions when
// opt.ProtectSegments is set.
func installOwned[T mem.Word](m *mem.Memory[T], base, end uint64, s loadSeg, opt Options) {
	final := mem.DefaultAttr()
	if opt.ProtectSegments {
		final.Read, final.Write, final.Exec = s.read, s.write, s.exec
	} else {
		final.Read, final.Write, final.Exec = true, true, true
	}
	for addr := base; addr < end; addr += mem.PageSize {
		// CopyToGuest materializes an absent page as writable through the
		// default fault handler; fix up the real permissions afterward.
		var buf [mem.PageSize]byte
		copyIntoGuestRange(buf[:], addr, s.vaddr, s.data)
		m.CopyToGuest(T(addr), buf[:])
		m.SetPageAttr(T(addr), mem.PageSize, final)
	}
}

// installReadOnlyArea attempts the boundary-page fast path from spec
// §4.2: two owned boundary pages for partial first/last page content,
// with the fully-contained interior pages pointed directly into the ELF
// image as non-owning. It reports false (falling back to byte-copy) when
// the segment spans fewer than two pages.
func installReadOnlyArea[T mem.Word](m *mem.Memory[T], base, end uint64, s loadSeg) bool {
	if end-base < 2*mem.PageSize {
		return false
	}
	interiorBase := alignUp(s.vaddr, mem.PageSize)
	interiorEnd := alignDown(s.vaddr+s.filesz, mem.PageSize)
	if interiorEnd <= interiorBase {
		return false
	}

	final := mem.Attr{Read: true, Cacheable: true}
	// first boundary page, byte-copied (absent when vaddr is aligned).
	if base < interiorBase {
		var buf [mem.PageSize]byte
		copyIntoGuestRange(buf[:], base, s.vaddr, s.data)
		m.CopyToGuest(T(base), buf[:])
		m.SetPageAttr(T(base), mem.PageSize, final)
	}
	// last boundary page, byte-copied (may coincide with interior end).
	lastBase := end - mem.PageSize
	if lastBase >= interiorEnd {
		var buf [mem.PageSize]byte
		copyIntoGuestRange(buf[:], lastBase, s.vaddr, s.data)
		m.CopyToGuest(T(lastBase), buf[:])
		m.SetPageAttr(T(lastBase), mem.PageSize, final)
	}
	// interior: a single non-owning read-only area pointing into the
	// image bytes directly.
	off := (interiorBase - s.vaddr)
	data := s.data[off : off+(interiorEnd-interiorBase)]
	m.InsertNonOwnedMemory(T(interiorBase), data)
	m.SetELFImage(s.data)
	return true
}

// copyIntoGuestRange fills dst (which represents [rangeBase,
// rangeBase+len(dst)) of guest address space) with the overlap between
// that range and [segVaddr, segVaddr+len(segData)), leaving the rest
// zero — mirroring a PT_LOAD's .bss tail.
func copyIntoGuestRange(dst []byte, rangeBase, segVaddr uint64, segData []byte) {
	segEnd := segVaddr + uint64(len(segData))
	rangeEnd := rangeBase + uint64(len(dst))
	lo := max64(rangeBase, segVaddr)
	hi := min64(rangeEnd, segEnd)
	if lo >= hi {
		return
	}
	copy(dst[lo-rangeBase:hi-rangeBase], segData[lo-segVaddr:hi-segVaddr])
}

func alignDown(v uint64, size uint64) uint64 { return v &^ (size - 1) }
func alignUp(v uint64, size uint64) uint64   { return (v + size - 1) &^ (size - 1) }
func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
