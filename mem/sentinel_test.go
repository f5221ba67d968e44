package mem

import "testing"

func TestCoWZeroPageIsReadOnlyAndShared(t *testing.T) {
	a := CoWZeroPage()
	b := CoWZeroPage()
	if a != b {
		t.Errorf("CoWZeroPage() got two distinct pages, expected the same shared sentinel")
	}
	if !a.Attr.Read || a.Attr.Write || !a.Attr.CoW {
		t.Errorf("CoWZeroPage().Attr got: %+v expected Read=true Write=false CoW=true", a.Attr)
	}
}

func TestGuardPageDeniesEverything(t *testing.T) {
	g := GuardPage()
	if g.Attr.Read || g.Attr.Write || g.Attr.Exec {
		t.Errorf("GuardPage().Attr got: %+v expected all-deny", g.Attr)
	}
}

func TestIsSentinelDistinguishesOrdinaryPages(t *testing.T) {
	if !IsSentinel(CoWZeroPage()) {
		t.Errorf("IsSentinel(CoWZeroPage()) got: %v expected: %v", false, true)
	}
	if !IsSentinel(GuardPage()) {
		t.Errorf("IsSentinel(GuardPage()) got: %v expected: %v", false, true)
	}
	if IsSentinel(newOwned(DefaultAttr())) {
		t.Errorf("IsSentinel(ordinary page) got: %v expected: %v", true, false)
	}
}
