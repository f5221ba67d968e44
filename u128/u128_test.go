package u128

import "testing"

func TestAddCarriesAcrossHalves(t *testing.T) {
	a := U128{Lo: ^uint64(0), Hi: 0}
	got := a.Add(FromUint64(1))
	want := U128{Lo: 0, Hi: 1}
	if !got.Equal(want) {
		t.Errorf("Add() got: %+v expected: %+v", got, want)
	}
}

func TestSubBorrowsAcrossHalves(t *testing.T) {
	a := U128{Lo: 0, Hi: 1}
	got := a.Sub(FromUint64(1))
	want := U128{Lo: ^uint64(0), Hi: 0}
	if !got.Equal(want) {
		t.Errorf("Sub() got: %+v expected: %+v", got, want)
	}
}

func TestShlCrossesHalfBoundary(t *testing.T) {
	a := FromUint64(1)
	got := a.Shl(64)
	want := U128{Lo: 0, Hi: 1}
	if !got.Equal(want) {
		t.Errorf("Shl(64) got: %+v expected: %+v", got, want)
	}
}

func TestShrCrossesHalfBoundary(t *testing.T) {
	a := U128{Lo: 0, Hi: 1}
	got := a.Shr(64)
	want := FromUint64(1)
	if !got.Equal(want) {
		t.Errorf("Shr(64) got: %+v expected: %+v", got, want)
	}
}

func TestLessOrdersOnHighHalfFirst(t *testing.T) {
	small := U128{Lo: ^uint64(0), Hi: 0}
	big := U128{Lo: 0, Hi: 1}
	if !small.Less(big) {
		t.Errorf("Less() got: %v expected: %v", small.Less(big), true)
	}
	if big.Less(small) {
		t.Errorf("Less() reversed got: %v expected: %v", big.Less(small), false)
	}
}

func TestIsZero(t *testing.T) {
	if !(U128{}).IsZero() {
		t.Errorf("IsZero() got: %v expected: %v", false, true)
	}
	if (U128{Lo: 1}).IsZero() {
		t.Errorf("IsZero() got: %v expected: %v", true, false)
	}
}

func TestNotComplementsBothHalves(t *testing.T) {
	got := (U128{}).Not()
	want := U128{Lo: ^uint64(0), Hi: ^uint64(0)}
	if !got.Equal(want) {
		t.Errorf("Not() got: %+v expected: %+v", got, want)
	}
}

func TestBitwiseOps(t *testing.T) {
	a := U128{Lo: 0xF0, Hi: 0x0F}
	b := U128{Lo: 0x0F, Hi: 0xF0}

	if got, want := a.And(b), (U128{}); !got.Equal(want) {
		t.Errorf("And() got: %+v expected: %+v", got, want)
	}
	if got, want := a.Or(b), (U128{Lo: 0xFF, Hi: 0xFF}); !got.Equal(want) {
		t.Errorf("Or() got: %+v expected: %+v", got, want)
	}
	if got, want := a.Xor(b), (U128{Lo: 0xFF, Hi: 0xFF}); !got.Equal(want) {
		t.Errorf("Xor() got: %+v expected: %+v", got, want)
	}
}

func TestFromUint64AndUint64NarrowDiscardsHi(t *testing.T) {
	v := FromUint64(0x1234)
	if v.Hi != 0 {
		t.Errorf("FromUint64().Hi got: %v expected: %v", v.Hi, 0)
	}
	wide := U128{Lo: 0x1234, Hi: 0xFF}
	if got := wide.Uint64(); got != 0x1234 {
		t.Errorf("Uint64() got: %#x expected: %#x", got, 0x1234)
	}
}

func TestShlShrByZeroIsIdentity(t *testing.T) {
	a := U128{Lo: 1, Hi: 2}
	if got := a.Shl(0); !got.Equal(a) {
		t.Errorf("Shl(0) got: %+v expected: %+v", got, a)
	}
	if got := a.Shr(0); !got.Equal(a) {
		t.Errorf("Shr(0) got: %+v expected: %+v", got, a)
	}
}
