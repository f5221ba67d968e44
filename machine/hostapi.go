package machine

import (
	"github.com/mayhemheroes/libriscv/elfload"
	"github.com/mayhemheroes/libriscv/mem"
)

// CopyToGuest writes src into guest memory starting at addr, per spec
// §6's Machine::copy_to_guest.
func (m *Machine[T]) CopyToGuest(addr T, src []byte) { m.Memory.CopyToGuest(addr, src) }

// CopyFromGuest reads len(dst) bytes starting at addr into dst, per
// spec §6's Machine::copy_from_guest.
func (m *Machine[T]) CopyFromGuest(dst []byte, addr T) { m.Memory.CopyFromGuest(dst, addr) }

// Memset fills length bytes starting at addr with v.
func (m *Machine[T]) Memset(addr T, v byte, length T) { m.Memory.Memset(addr, v, length) }

// Memcpy copies length bytes from src to dst, both guest addresses.
func (m *Machine[T]) Memcpy(dst, src T, length T) { m.Memory.Memcpy(dst, src, length) }

// GatherBuffers returns the host-memory fragments backing [addr,
// addr+length), for zero-copy readv/writev-style syscall handlers.
func (m *Machine[T]) GatherBuffers(addr, length T) []mem.Fragment {
	return m.Memory.GatherBuffers(addr, length)
}

// AddressOf resolves symbol to its guest address, per spec §6's
// Machine::address_of(symbol); ok is false if the symbol is absent
// from .symtab.
func (m *Machine[T]) AddressOf(symbol string) (addr uint64, ok bool) {
	if m.Image == nil {
		return 0, false
	}
	sym, found := m.Image.ResolveSymbol(symbol)
	if !found {
		return 0, false
	}
	return sym.Address, true
}

// ResolveSymbol demangles and returns the symbol, if any, whose range
// contains addr, per spec §6's Machine::resolve_symbol(name) (here
// named by the address it resolves, matching the loader's own
// LookupByAddress direction).
func (m *Machine[T]) ResolveSymbol(addr uint64) (elfload.Symbol, bool) {
	if m.Image == nil {
		return elfload.Symbol{}, false
	}
	return m.Image.LookupByAddress(addr)
}
