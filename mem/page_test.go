package mem

import "testing"

func TestDefaultAttrIsReadWriteCacheable(t *testing.T) {
	a := DefaultAttr()
	if !a.Read || !a.Write || a.Exec || !a.Cacheable {
		t.Errorf("DefaultAttr() got: %+v expected read/write/cacheable, not exec", a)
	}
}

func TestIsDefaultIgnoresNonRWXBits(t *testing.T) {
	a := DefaultAttr()
	a.UserBits = 3
	a.CoW = true
	if !a.IsDefault() {
		t.Errorf("IsDefault() got: %v expected: %v", false, true)
	}
	a.Exec = true
	if a.IsDefault() {
		t.Errorf("IsDefault() with Exec set got: %v expected: %v", true, false)
	}
}

func TestMakeWritableClonesAndClearsFlags(t *testing.T) {
	backing := make([]byte, PageSize)
	backing[0] = 7
	p := newView(Attr{Read: true, CoW: true}, backing)

	p.MakeWritable()

	if !p.Attr.Write || p.Attr.CoW || p.Attr.NonOwning {
		t.Errorf("MakeWritable() Attr got: %+v expected Write=true CoW=false NonOwning=false", p.Attr)
	}
	if p.Data[0] != 7 {
		t.Errorf("MakeWritable() lost data got: %v expected: %v", p.Data[0], 7)
	}
	backing[1] = 9
	if p.Data[1] == 9 {
		t.Errorf("MakeWritable() did not copy: mutation of old backing leaked through")
	}
}

func TestLoanSharesDataAsNonOwning(t *testing.T) {
	p := newOwned(DefaultAttr())
	p.Data[0] = 5
	loan := p.Loan()
	if !loan.Attr.NonOwning {
		t.Errorf("Loan().Attr.NonOwning got: %v expected: %v", loan.Attr.NonOwning, true)
	}
	if loan.Data[0] != 5 {
		t.Errorf("Loan() data got: %v expected: %v", loan.Data[0], 5)
	}
	p.Data[0] = 9
	if loan.Data[0] != 9 {
		t.Errorf("Loan() should alias the same backing array, got independent copy")
	}
}

func TestSetTrapTogglesCacheable(t *testing.T) {
	p := newOwned(DefaultAttr())
	if !p.Attr.Cacheable {
		t.Fatalf("precondition: fresh page should be cacheable")
	}
	fired := false
	p.SetTrap(func(pg *Page, off uint32, mode TrapMode, v int64) { fired = true })
	if p.Attr.Cacheable {
		t.Errorf("Attr.Cacheable after SetTrap got: %v expected: %v", true, false)
	}
	p.Fire(0, TrapRead, 1)
	if !fired {
		t.Errorf("Fire() did not invoke installed trap callback")
	}
	p.SetTrap(nil)
	if !p.Attr.Cacheable {
		t.Errorf("Attr.Cacheable after clearing trap got: %v expected: %v", false, true)
	}
}

func TestModeExtractsTrapModeFromCombinedValue(t *testing.T) {
	if got := Mode(int(TrapWrite) | 0x003); got != TrapWrite {
		t.Errorf("Mode() got: %v expected: %v", got, TrapWrite)
	}
}
