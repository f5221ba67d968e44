package mem

import "testing"

func TestWriteReadRoundTripAcrossSizes(t *testing.T) {
	m := New[uint64](0)
	m.Write8(0x1000, 0xAB)
	m.Write16(0x1002, 0x1234)
	m.Write32(0x1008, 0xDEADBEEF)
	m.Write64(0x1010, 0x0102030405060708)

	if got := m.Read8(0x1000); got != 0xAB {
		t.Errorf("Read8() got: %#x expected: %#x", got, 0xAB)
	}
	if got := m.Read16(0x1002); got != 0x1234 {
		t.Errorf("Read16() got: %#x expected: %#x", got, 0x1234)
	}
	if got := m.Read32(0x1008); got != 0xDEADBEEF {
		t.Errorf("Read32() got: %#x expected: %#x", got, 0xDEADBEEF)
	}
	if got := m.Read64(0x1010); got != 0x0102030405060708 {
		t.Errorf("Read64() got: %#x expected: %#x", got, 0x0102030405060708)
	}
}

func TestAlignmentCheckRaisesOnMisalignedAccess(t *testing.T) {
	m := New[uint64](0)
	m.AlignmentCheck = true
	defer func() {
		if recover() == nil {
			t.Errorf("Write32 at odd address got: no panic, expected InvalidAlignment")
		}
	}()
	m.Write32(0x1001, 1)
}

func TestCopyToFromGuestCrossesPageBoundary(t *testing.T) {
	m := New[uint64](0)
	src := make([]byte, PageSize+16)
	for i := range src {
		src[i] = byte(i)
	}
	addr := uint64(PageSize - 8)
	m.CopyToGuest(addr, src)

	dst := make([]byte, len(src))
	m.CopyFromGuest(dst, addr)
	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("CopyFromGuest()[%d] got: %v expected: %v", i, dst[i], src[i])
		}
	}
}

func TestMemsetFillsRange(t *testing.T) {
	m := New[uint64](0)
	m.Memset(0x2000, 0x7F, 10)
	dst := make([]byte, 10)
	m.CopyFromGuest(dst, 0x2000)
	for i, b := range dst {
		if b != 0x7F {
			t.Errorf("Memset()[%d] got: %#x expected: %#x", i, b, 0x7F)
		}
	}
}

func TestWrite64ReadAtPageBoundaryDoesNotPanic(t *testing.T) {
	m := New[uint64](0)
	m.AlignmentCheck = false
	addr := uint64(PageSize - 4) // straddles pages PageNo(addr) and PageNo(addr)+1

	m.Write64(addr, 0x0102030405060708)
	if got := m.Read64(addr); got != 0x0102030405060708 {
		t.Errorf("Read64() across page boundary got: %#x expected: %#x", got, 0x0102030405060708)
	}
}

func TestWrite32ReadAtPageBoundaryDoesNotPanic(t *testing.T) {
	m := New[uint64](0)
	addr := uint64(PageSize - 2)

	m.Write32(addr, 0xCAFEBABE)
	if got := m.Read32(addr); got != 0xCAFEBABE {
		t.Errorf("Read32() across page boundary got: %#x expected: %#x", got, 0xCAFEBABE)
	}
}

func TestMemcpyCopiesWithinAddressSpace(t *testing.T) {
	m := New[uint64](0)
	m.CopyToGuest(0x3000, []byte("hello world"))
	m.Memcpy(0x4000, 0x3000, 11)

	dst := make([]byte, 11)
	m.CopyFromGuest(dst, 0x4000)
	if string(dst) != "hello world" {
		t.Errorf("Memcpy() got: %q expected: %q", dst, "hello world")
	}
}
