package mem

import "github.com/mayhemheroes/libriscv/decode"

// ExecuteSegment is an immutable window of guest code plus its decoder
// cache (spec §3). Once published it is never mutated except through
// the decoder cache's Patch method (the optional binary-translation
// hook).
type ExecuteSegment[T Word] struct {
	Base   T
	Length int
	Raw    []byte
	Cache  *decode.Cache
}

// Contains reports whether pc falls within the segment.
func (s *ExecuteSegment[T]) Contains(pc T) bool {
	return pc >= s.Base && uint64(pc-s.Base) < uint64(s.Length)
}

// FetchEntry returns the decoded entry for pc, which must satisfy
// Contains(pc).
func (s *ExecuteSegment[T]) FetchEntry(pc T) (decode.Entry, bool) {
	return s.Cache.At(int(pc - s.Base))
}

// InstallExecuteSegment scans raw once and registers the resulting
// execute segment at guest address base. Memory keeps every installed
// segment, with no bound on their number, until EvictExecuteSegments
// drops it.
func (m *Memory[T]) InstallExecuteSegment(base T, raw []byte, opt decode.Options) *ExecuteSegment[T] {
	seg := &ExecuteSegment[T]{
		Base:   base,
		Length: len(raw),
		Raw:    raw,
		Cache:  decode.Build(raw, opt),
	}
	m.mu.Lock()
	m.segments = append(m.segments, seg)
	m.mu.Unlock()
	return seg
}

// FindSegment returns the execute segment enclosing pc, if any. This is
// the slow-path lookup CPU.resolveSegment uses when a jump lands outside
// the currently bound segment (spec §4.4).
func (m *Memory[T]) FindSegment(pc T) *ExecuteSegment[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.segments {
		if s.Contains(pc) {
			return s
		}
	}
	return nil
}

// EvictExecuteSegments drops up to n registered segments (n<=0 evicts
// all of them). It is legal at any quiescent point, per spec §4.4; it
// is the caller's responsibility to ensure no CPU is currently bound to
// an evicted segment.
func (m *Memory[T]) EvictExecuteSegments(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || n >= len(m.segments) {
		m.segments = nil
		return
	}
	m.segments = m.segments[n:]
}

// Segments returns a snapshot of the currently live execute segments.
func (m *Memory[T]) Segments() []*ExecuteSegment[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ExecuteSegment[T], len(m.segments))
	copy(out, m.segments)
	return out
}
