package mem

// Fragment is one contiguous run of host memory backing a slice of
// guest address space, as returned by GatherBuffers.
type Fragment struct {
	Host []byte
}

// GatherBuffers returns the list of host-memory fragments spanning
// [addr, addr+length) without copying, for syscall fast paths such as
// readv/writev (spec §4.1, §6).
func (m *Memory[T]) GatherBuffers(addr, length T) []Fragment {
	var frags []Fragment
	for length > 0 {
		pageno := PageNo(addr)
		off := Offset(addr)
		m.mu.Lock()
		pg := m.getReadablePageLocked(pageno)
		m.mu.Unlock()
		n := T(PageSize - int(off))
		if n > length {
			n = length
		}
		frags = append(frags, Fragment{Host: pg.Data[off : uint32(off)+uint32(n)]})
		addr += n
		length -= n
	}
	return frags
}
