package mem

import (
	"encoding/binary"

	"github.com/mayhemheroes/libriscv/defs"
)

func (m *Memory[T]) checkAlign(addr T, size uint32) {
	if m.AlignmentCheck && uint32(addr)%size != 0 {
		defs.Throw(defs.InvalidAlignment, "misaligned access", uint64(addr))
	}
}

// Read8 through Read64 are the typed read accessors from spec §4.1.
// A read that straddles a page boundary (e.g. an unaligned 64-bit read)
// is split across the pages it touches, each looked up separately.
func (m *Memory[T]) Read8(addr T) uint8 { return m.readN(addr, 1)[0] }

func (m *Memory[T]) Read16(addr T) uint16 {
	m.checkAlign(addr, 2)
	return binary.LittleEndian.Uint16(m.readN(addr, 2))
}

func (m *Memory[T]) Read32(addr T) uint32 {
	m.checkAlign(addr, 4)
	return binary.LittleEndian.Uint32(m.readN(addr, 4))
}

func (m *Memory[T]) Read64(addr T) uint64 {
	m.checkAlign(addr, 8)
	return binary.LittleEndian.Uint64(m.readN(addr, 8))
}

// readN reads n bytes starting at addr, splitting across page boundaries
// the same way CopyFromGuest does: an unaligned multi-byte access is
// legal guest behavior whenever AlignmentCheck is off (spec §4.1), and
// must not index past a single page's backing array.
func (m *Memory[T]) readN(addr T, n uint32) []byte {
	buf := make([]byte, n)
	var touched []*Page
	var touchedOff []uint32

	remaining := n
	cur := addr
	o := uint32(0)
	for remaining > 0 {
		pageno := PageNo(cur)
		off := Offset(cur)
		m.mu.Lock()
		pg := m.getReadablePageLocked(pageno)
		m.mu.Unlock()

		chunk := uint32(PageSize) - off
		if chunk > remaining {
			chunk = remaining
		}
		copy(buf[o:o+chunk], pg.Data[off:off+chunk])
		touched = append(touched, pg)
		touchedOff = append(touchedOff, off)

		cur += T(chunk)
		o += chunk
		remaining -= chunk
	}

	v := decodeLE(buf)
	for i, pg := range touched {
		if pg.HasTrap() {
			pg.Fire(touchedOff[i], TrapRead, v)
		}
	}
	return buf
}

// decodeLE interprets b (length 1, 2, 4, or 8) as a little-endian
// integer, for the value a read/write trap callback receives.
func decodeLE(b []byte) int64 {
	switch len(b) {
	case 1:
		return int64(b[0])
	case 2:
		return int64(binary.LittleEndian.Uint16(b))
	case 4:
		return int64(binary.LittleEndian.Uint32(b))
	case 8:
		return int64(binary.LittleEndian.Uint64(b))
	default:
		return 0
	}
}

// Write8 through Write64 are the typed write accessors from spec §4.1.
func (m *Memory[T]) Write8(addr T, v uint8) { m.writeN(addr, []byte{v}) }

func (m *Memory[T]) Write16(addr T, v uint16) {
	m.checkAlign(addr, 2)
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	m.writeN(addr, b[:])
}

func (m *Memory[T]) Write32(addr T, v uint32) {
	m.checkAlign(addr, 4)
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	m.writeN(addr, b[:])
}

func (m *Memory[T]) Write64(addr T, v uint64) {
	m.checkAlign(addr, 8)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	m.writeN(addr, b[:])
}

// writeN writes data starting at addr, splitting across page boundaries
// the same way CopyToGuest does (see readN).
func (m *Memory[T]) writeN(addr T, data []byte) {
	var touched []*Page
	var touchedOff []uint32

	remaining := uint32(len(data))
	cur := addr
	o := uint32(0)
	for remaining > 0 {
		pageno := PageNo(cur)
		off := Offset(cur)
		m.mu.Lock()
		pg := m.createWritablePageLocked(pageno, false)
		m.mu.Unlock()

		chunk := uint32(PageSize) - off
		if chunk > remaining {
			chunk = remaining
		}
		copy(pg.Data[off:off+chunk], data[o:o+chunk])
		touched = append(touched, pg)
		touchedOff = append(touchedOff, off)

		cur += T(chunk)
		o += chunk
		remaining -= chunk
	}

	v := decodeLE(data)
	for i, pg := range touched {
		if pg.HasTrap() {
			pg.Fire(touchedOff[i], TrapWrite, v)
		}
	}
}

// CopyToGuest copies src into guest memory starting at addr, crossing
// page boundaries and resolving CoW/faults as needed.
func (m *Memory[T]) CopyToGuest(addr T, src []byte) {
	for len(src) > 0 {
		pageno := PageNo(addr)
		off := Offset(addr)
		m.mu.Lock()
		pg := m.createWritablePageLocked(pageno, false)
		m.mu.Unlock()
		n := PageSize - int(off)
		if n > len(src) {
			n = len(src)
		}
		copy(pg.Data[off:], src[:n])
		if pg.HasTrap() {
			pg.Fire(off, TrapWrite, 0)
		}
		src = src[n:]
		addr += T(n)
	}
}

// CopyFromGuest copies len(dst) bytes from guest memory starting at
// addr into dst.
func (m *Memory[T]) CopyFromGuest(dst []byte, addr T) {
	for len(dst) > 0 {
		pageno := PageNo(addr)
		off := Offset(addr)
		m.mu.Lock()
		pg := m.getReadablePageLocked(pageno)
		m.mu.Unlock()
		n := PageSize - int(off)
		if n > len(dst) {
			n = len(dst)
		}
		copy(dst[:n], pg.Data[off:off+uint32(n)])
		dst = dst[n:]
		addr += T(n)
	}
}

// Memset fills length bytes starting at addr with v.
func (m *Memory[T]) Memset(addr T, v byte, length T) {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = v
	}
	m.CopyToGuest(addr, buf)
}

// Memcpy copies length bytes from src to dst within the same address
// space, reading the whole span first so overlapping regions behave
// like C's memmove rather than undefined behavior.
func (m *Memory[T]) Memcpy(dst, src T, length T) {
	buf := make([]byte, length)
	m.CopyFromGuest(buf, src)
	m.CopyToGuest(dst, buf)
}
