// Package mem implements the paged virtual memory subsystem: pages with
// copy-on-write and trap attributes, the page table, the contiguous
// read-only area used for ELF read-only segments, and the execute
// segment registry. It is grounded on the teacher's biscuit/src/mem and
// biscuit/src/vm packages (physical page refcounting and the CoW
// page-fault resolution in Vm_t.Sys_pgfault), generalized from a kernel
// address space to a single guest's flat virtual memory, and on
// _examples/original_source/lib/libriscv/page.hpp for the exact
// attribute and trap semantics the specification names.
package mem

import "github.com/mayhemheroes/libriscv/defs"

// PageSize is the size of a single page in bytes. The specification
// allows any power-of-two; 4 KiB is the canonical default used
// throughout this module.
const PageSize = 4096

// PageShift is log2(PageSize).
const PageShift = 12

// Attr holds a page's access and bookkeeping bits. The zero value is
// NOT the default page attribute (see DefaultAttr) because Go's zero
// value for bool is false, while a freshly faulted-in page is
// conventionally readable and writable.
type Attr struct {
	Read       bool
	Write      bool
	Exec       bool
	CoW        bool
	NonOwning  bool
	DontFork   bool
	Cacheable  bool
	UserBits   uint8 // 8 user-defined bits, spec §3
}

// DefaultAttr is the attribute set a freshly materialized anonymous page
// gets: readable and writable, not executable, cacheable.
func DefaultAttr() Attr {
	return Attr{Read: true, Write: true, Cacheable: true}
}

// IsDefault reports whether a matches DefaultAttr in its read/write/exec
// bits, which is all spec §4.1's set_page_attr cares about when deciding
// whether an attribute write to an unmapped page is a no-op.
func (a Attr) IsDefault() bool {
	d := DefaultAttr()
	return a.Read == d.Read && a.Write == d.Write && a.Exec == d.Exec
}

// TrapMode identifies the kind of access that fired a page trap. The
// values occupy the upper nibble of a small int, as spec §4.1 requires,
// so a future revision could pack a size or other qualifier into the
// low bits without colliding.
type TrapMode int

const (
	TrapRead  TrapMode = 0x1000
	TrapWrite TrapMode = 0x2000
	TrapExec  TrapMode = 0x4000
)

// Mode extracts the trap mode from a combined mode+qualifier value.
func Mode(combined int) TrapMode { return TrapMode(combined & 0xF000) }

// TrapFunc is a user-installed callback fired on access to a page. value
// carries the read result, the value about to be written, or the
// faulting virtual address for TrapExec.
type TrapFunc func(p *Page, offset uint32, mode TrapMode, value int64)

// Page is one fixed-size unit of guest memory plus its attributes. A
// page is either owned (Data is this Page's own backing array, freed
// with it) or non-owning (Data is a view into memory whose lifetime is
// managed elsewhere, e.g. the ELF image or a shared read-only region);
// Attr.NonOwning records which. Go's garbage collector means
// non-owning is purely a semantic marker here — it exists so
// FreePages/the fork path know never to mutate shared backing storage
// through a page that merely borrows it.
type Page struct {
	Attr Attr
	Data []byte
	trap TrapFunc
}

// newOwned allocates a fresh, zeroed, owned page with the given
// attributes.
func newOwned(attr Attr) *Page {
	return &Page{Attr: attr, Data: make([]byte, PageSize)}
}

// newView constructs a non-owning page over an existing byte slice,
// which must be exactly PageSize long.
func newView(attr Attr, data []byte) *Page {
	attr.NonOwning = true
	return &Page{Attr: attr, Data: data}
}

// HasTrap reports whether a callback is installed.
func (p *Page) HasTrap() bool { return p.trap != nil }

// SetTrap installs cb as the page's access callback. Setting a non-nil
// trap makes the page uncacheable; clearing it (cb == nil) restores
// cacheability, per spec §4.1.
func (p *Page) SetTrap(cb TrapFunc) {
	p.trap = cb
	p.Attr.Cacheable = cb == nil
}

// Fire invokes the trap callback, if any, with the given offset, mode,
// and value.
func (p *Page) Fire(offset uint32, mode TrapMode, value int64) {
	if p.trap != nil {
		p.trap(p, offset, mode, value)
	}
}

// MakeWritable converts a CoW or non-owning page into a private, owned,
// writable page, copying the current contents first. This is the direct
// analogue of the original project's Page::make_writable
// (lib/libriscv/page.hpp).
func (p *Page) MakeWritable() {
	fresh := make([]byte, PageSize)
	copy(fresh, p.Data)
	p.Data = fresh
	p.Attr.Write = true
	p.Attr.CoW = false
	p.Attr.NonOwning = false
}

// Loan returns a new non-owning page that shares master's backing data
// and attributes, named after Page::loan in the same header: "Loan a
// page from somewhere else, that will not be deleted here."
func (p *Page) Loan() *Page {
	attr := p.Attr
	attr.NonOwning = true
	return &Page{Attr: attr, Data: p.Data}
}

// checkRead raises PROTECTION_FAULT if the page cannot be read.
func (p *Page) checkRead(pageno uint64) {
	if !p.Attr.Read {
		defs.Throw(defs.ProtectionFault, "page not readable", pageno<<PageShift)
	}
}
