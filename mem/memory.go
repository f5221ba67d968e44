package mem

import (
	"sync"

	"github.com/mayhemheroes/libriscv/defs"
)

// Word is the address/page-number width constraint shared by every
// generic type in the core. RV32 and RV64 are fully generic over this
// constraint. There is no RV128 implementation: Go has no native
// 128-bit integer to put in this union, and the u128 package provides
// only the integer type itself.
type Word interface {
	~uint32 | ~uint64
}

// PageFaultHandler is invoked when an access misses the page table. It
// must either return a fresh page to install, or raise a *defs.Fault
// (typically OUT_OF_MEMORY or PROTECTION_FAULT) via defs.Throw. write
// reports whether the triggering access was a write.
type PageFaultHandler[T Word] func(m *Memory[T], pageno T, write bool) *Page

// PageWriteHandler resolves a CoW fault: it is handed the existing
// (CoW) page and must return a writable replacement. The default
// implementation clones the CoW backing with Page.MakeWritable.
type PageWriteHandler[T Word] func(m *Memory[T], pageno T, existing *Page) *Page

// roArea is the contiguous read-only area used to hold ELF read-only
// segments without per-page map overhead (spec §4.2): begin/end are
// page-aligned guest addresses, and data is the backing storage (either
// the raw ELF image itself, for non-owning interior pages, or a
// byte-copied fallback).
type roArea[T Word] struct {
	begin, end T
	data       []byte // len == end-begin
}

// Memory is the paged address space of a single guest. It is generic
// over the guest's address width (uint32 for RV32, uint64 for RV64).
type Memory[T Word] struct {
	mu sync.Mutex

	pages map[T]*Page
	ro    roArea[T]
	hasRO bool

	pagesMax int
	npages   int

	faultHandler PageFaultHandler[T]
	writeHandler PageWriteHandler[T]

	// single-entry read cache, invalidated by any structural mutation;
	// named after the original's CachedPage<W,T> helper (page.hpp).
	cachedNo T
	cached   *Page
	cacheOK  bool

	elfImage []byte

	segments []*ExecuteSegment[T]

	Entry           T
	HeapBase        T
	MmapCursor      T
	StackTop        T
	ExitTrampoline  T

	AlignmentCheck bool
}

// New creates an empty address space with the guard page installed at
// page 0, as spec §3 requires.
func New[T Word](pagesMax int) *Memory[T] {
	m := &Memory[T]{
		pages:    make(map[T]*Page),
		pagesMax: pagesMax,
	}
	m.pages[0] = GuardPage()
	m.faultHandler = defaultPageFaultHandler[T]
	m.writeHandler = defaultPageWriteHandler[T]
	return m
}

// PageNo returns addr's page number.
func PageNo[T Word](addr T) T { return addr >> PageShift }

// Offset returns addr's offset within its page.
func Offset[T Word](addr T) uint32 { return uint32(addr) & (PageSize - 1) }

// SetPageFaultHandler installs a custom fault handler, overriding the
// permissive default (spec §4.2's custom page_fault_handler option).
func (m *Memory[T]) SetPageFaultHandler(h PageFaultHandler[T]) { m.faultHandler = h }

// SetPageWriteHandler installs a custom CoW-resolution handler.
func (m *Memory[T]) SetPageWriteHandler(h PageWriteHandler[T]) { m.writeHandler = h }

func (m *Memory[T]) invalidateCache() { m.cacheOK = false }

// defaultPageFaultHandler is deliberately permissive: it has no notion
// of valid vs. invalid address ranges (that policy is delegated to a
// custom handler per spec §4.2) and simply grows the address space on
// demand, subject to pagesMax. This mirrors how the end-to-end test
// scenarios in spec §8 install pages at arbitrary high addresses
// (0xF0000000) without first declaring a region for them.
func defaultPageFaultHandler[T Word](m *Memory[T], pageno T, write bool) *Page {
	if m.pagesMax > 0 && m.npages >= m.pagesMax {
		defs.Throw(defs.OutOfMemory, "page allocation exceeds memory_max", uint64(pageno)<<PageShift)
	}
	attr := DefaultAttr()
	if !write {
		// A read fault against never-touched memory is served by the
		// shared CoW zero page without allocating anything; the first
		// write resolves the CoW and allocates for real.
		return CoWZeroPage()
	}
	return newOwned(attr)
}

func defaultPageWriteHandler[T Word](m *Memory[T], pageno T, existing *Page) *Page {
	clone := newOwned(existing.Attr)
	copy(clone.Data, existing.Data)
	clone.Attr.CoW = false
	clone.Attr.Write = true
	clone.Attr.NonOwning = false
	return clone
}

// lookup returns the page mapped at pageno, trying the read-only area
// first (it is never present in m.pages, per the mutual-exclusion
// invariant in spec §8), then the page map, then nil.
func (m *Memory[T]) lookup(pageno T) (*Page, bool) {
	if m.hasRO && pageno >= m.ro.begin && pageno < m.ro.end {
		return m.roPageView(pageno), true
	}
	pg, ok := m.pages[pageno]
	return pg, ok
}

func (m *Memory[T]) roPageView(pageno T) *Page {
	off := int(pageno-m.ro.begin) * PageSize
	return newView(Attr{Read: true, Cacheable: true}, m.ro.data[off:off+PageSize])
}

// GetReadablePage implements spec §4.1's read path.
func (m *Memory[T]) GetReadablePage(pageno T) *Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getReadablePageLocked(pageno)
}

func (m *Memory[T]) getReadablePageLocked(pageno T) *Page {
	if m.cacheOK && m.cachedNo == pageno {
		return m.cached
	}
	if pg, ok := m.lookup(pageno); ok {
		pg.checkRead(uint64(pageno))
		m.cachedNo, m.cached, m.cacheOK = pageno, pg, true
		return pg
	}
	pg := m.faultHandler(m, pageno, false)
	m.install(pageno, pg)
	m.cachedNo, m.cached, m.cacheOK = pageno, pg, true
	return pg
}

func (m *Memory[T]) install(pageno T, pg *Page) {
	if _, existed := m.pages[pageno]; !existed {
		m.npages++
	}
	m.pages[pageno] = pg
}

// CreateWritablePage implements spec §4.1's write path.
func (m *Memory[T]) CreateWritablePage(pageno T, init bool) *Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createWritablePageLocked(pageno, init)
}

func (m *Memory[T]) createWritablePageLocked(pageno T, init bool) *Page {
	if pg, ok := m.lookup(pageno); ok {
		if pg.Attr.Write {
			m.invalidateCache()
			return pg
		}
		if pg.Attr.CoW {
			fresh := m.writeHandler(m, pageno, pg)
			m.install(pageno, fresh)
			m.invalidateCache()
			return fresh
		}
		defs.Throw(defs.ProtectionFault, "page not writable", uint64(pageno)<<PageShift)
	}
	pg := m.faultHandler(m, pageno, true)
	if !pg.Attr.Write {
		defs.Throw(defs.ProtectionFault, "fault handler produced a non-writable page", uint64(pageno)<<PageShift)
	}
	if init {
		for i := range pg.Data {
			pg.Data[i] = 0
		}
	}
	m.install(pageno, pg)
	m.invalidateCache()
	return pg
}

// InstallSharedPage places a non-owning page pointing at template's
// backing memory (spec §4.1). Overwriting a non-sentinel page, or
// installing a zero-data RWX page, is illegal.
func (m *Memory[T]) InstallSharedPage(pageno T, template *Page) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.pages[pageno]; ok && !IsSentinel(existing) {
		defs.Throw(defs.IllegalOperation, "refusing to overwrite a live page", uint64(pageno)<<PageShift)
	}
	if template.Attr.Read && template.Attr.Write && template.Attr.Exec && isAllZero(template.Data) {
		defs.Throw(defs.IllegalOperation, "refusing to install a zero-data RWX page", uint64(pageno)<<PageShift)
	}
	m.install(pageno, template.Loan())
	m.invalidateCache()
}

func isAllZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// FreePages erases every page in [addr, addr+len). No compaction.
func (m *Memory[T]) FreePages(addr T, length T) {
	if length == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	first := PageNo(addr)
	last := PageNo(addr + length - 1)
	for p := first; p <= last; p++ {
		if _, ok := m.pages[p]; ok {
			delete(m.pages, p)
			m.npages--
		}
		if p == last {
			break
		}
	}
	m.invalidateCache()
}

// SetPageAttr walks every page in [addr, addr+len) and applies attrs,
// per spec §4.1: default-attribute writes to unmapped pages are no-ops,
// and non-default attributes on unmapped pages materialize a page.
func (m *Memory[T]) SetPageAttr(addr, length T, attrs Attr) {
	if length == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	first := PageNo(addr)
	last := PageNo(addr + length - 1)
	for p := first; ; p++ {
		if pg, ok := m.pages[p]; ok {
			pg.Attr.Read, pg.Attr.Write, pg.Attr.Exec = attrs.Read, attrs.Write, attrs.Exec
			pg.Attr.UserBits = attrs.UserBits
		} else if !attrs.IsDefault() {
			fresh := newOwned(attrs)
			m.install(p, fresh)
		}
		if p == last {
			break
		}
	}
	m.invalidateCache()
}

// InsertNonOwnedMemory installs a contiguous read-only area backed
// directly by data, for ELF read-only segments (spec §4.2). data must
// be a multiple of PageSize and begin must be page-aligned.
func (m *Memory[T]) InsertNonOwnedMemory(begin T, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ro = roArea[T]{begin: PageNo(begin), end: PageNo(begin) + T(len(data)/PageSize), data: data}
	m.hasRO = true
	m.invalidateCache()
}

// SetELFImage records the backing ELF image bytes, kept alive for the
// lifetime of every non-owning page that views into it.
func (m *Memory[T]) SetELFImage(b []byte) { m.elfImage = b }

// PeekPageIfPresent returns the page mapped at pageno without invoking
// the fault handler, or nil if nothing is mapped there. CPU's segment
// rebind path uses this to decide whether an exec trap should fire,
// without materializing memory just to ask the question.
func (m *Memory[T]) PeekPageIfPresent(pageno T) *Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	pg, ok := m.lookup(pageno)
	if !ok {
		return nil
	}
	return pg
}

// GetExecutablePage returns the page backing pageno for instruction
// fetch, used when the CPU needs to bind an execute segment that was
// never registered through InstallExecuteSegment (spec §4.4's "lands
// outside the bound segment" case, exercised by a page whose exec bit
// was set directly through SetPageAttr). It raises PROTECTION_FAULT if
// the page exists but isn't executable, and returns nil (not a fault)
// if nothing is mapped there at all, leaving the
// EXECUTION_SPACE_PROTECTION_FAULT decision to the caller.
func (m *Memory[T]) GetExecutablePage(pageno T) *Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	pg, ok := m.lookup(pageno)
	if !ok {
		return nil
	}
	if !pg.Attr.Exec {
		defs.Throw(defs.ProtectionFault, "page not executable", uint64(pageno)<<PageShift)
	}
	return pg
}
