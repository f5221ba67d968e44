package elfload

import (
	"debug/elf"

	"github.com/ianlancetaylor/demangle"
)

// Symbol is a resolved .symtab entry, with Name already run through the
// demangler (spec §4.2: "demangles using a pluggable demangler" — the
// filter is a no-op on names that don't look mangled, so this is safe
// to apply unconditionally).
type Symbol struct {
	Name    string
	Raw     string
	Value   uint64
	Size    uint64
	Address uint64
}

// ResolveSymbol finds the exact-name match for name in .symtab.
func (img *Image) ResolveSymbol(name string) (Symbol, bool) {
	for _, s := range img.Symbols {
		if s.Name == name || demangle.Filter(s.Name) == name {
			return toSymbol(s), true
		}
	}
	return Symbol{}, false
}

// LookupByAddress finds the symbol whose [st_value, st_value+st_size)
// range contains addr, falling back to the symbol with the largest
// st_value <= addr when no range matches exactly (spec §4.2).
func (img *Image) LookupByAddress(addr uint64) (Symbol, bool) {
	var best *elf.Symbol
	for i := range img.Symbols {
		s := &img.Symbols[i]
		if s.Value == 0 {
			continue
		}
		if addr >= s.Value && addr < s.Value+s.Size {
			return toSymbol(*s), true
		}
		if s.Value <= addr && (best == nil || s.Value > best.Value) {
			best = s
		}
	}
	if best != nil {
		return toSymbol(*best), true
	}
	return Symbol{}, false
}

func toSymbol(s elf.Symbol) Symbol {
	return Symbol{
		Name:    demangle.Filter(s.Name),
		Raw:     s.Name,
		Value:   s.Value,
		Size:    s.Size,
		Address: s.Value,
	}
}
