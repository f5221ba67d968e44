package elfload

import (
	"debug/elf"
	"testing"
)

func TestResolveSymbolExactMatch(t *testing.T) {
	img := &Image{Symbols: []elf.Symbol{
		{Name: "main", Value: 0x10100, Size: 0x40},
		{Name: "helper", Value: 0x10200, Size: 0x20},
	}}

	sym, ok := img.ResolveSymbol("main")
	if !ok {
		t.Fatal("ResolveSymbol(main) got: not found")
	}
	if sym.Address != 0x10100 {
		t.Errorf("ResolveSymbol(main).Address got: %#x expected: %#x", sym.Address, 0x10100)
	}

	if _, ok := img.ResolveSymbol("missing"); ok {
		t.Error("ResolveSymbol(missing) got: found, expected false")
	}
}

func TestLookupByAddressRangeAndFallback(t *testing.T) {
	img := &Image{Symbols: []elf.Symbol{
		{Name: "main", Value: 0x10100, Size: 0x40},
		{Name: "_start", Value: 0x10000, Size: 0}, // zero-size: only matches as a fallback floor
	}}

	sym, ok := img.LookupByAddress(0x10110)
	if !ok || sym.Name != "main" {
		t.Fatalf("LookupByAddress(in-range) got: %+v, %v expected: main, true", sym, ok)
	}

	sym, ok = img.LookupByAddress(0x10050)
	if !ok || sym.Name != "_start" {
		t.Fatalf("LookupByAddress(fallback) got: %+v, %v expected: _start, true", sym, ok)
	}

	if _, ok := img.LookupByAddress(0x0FF); ok {
		t.Error("LookupByAddress(before every symbol) got: found, expected false")
	}
}
