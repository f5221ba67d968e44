package mem

// Fork builds a child address space sharing this Memory's read-only
// area by reference and every non-DontFork page as a CoW-referencing
// non-owning view (spec §4.5, §5, §9's "Fork" glossary entry). Writes
// performed through the child materialize private pages via the normal
// CoW write path and never touch the parent; this mirrors
// Vm_t.Sys_pgfault's VANON CoW-claim logic in the teacher
// (biscuit/src/vm/as.go), generalized to a flat page map instead of a
// hardware page table.
func (m *Memory[T]) Fork() *Memory[T] {
	m.mu.Lock()
	defer m.mu.Unlock()

	child := &Memory[T]{
		pages:          make(map[T]*Page, len(m.pages)),
		ro:             m.ro,
		hasRO:          m.hasRO,
		pagesMax:       m.pagesMax,
		faultHandler:   m.faultHandler,
		writeHandler:   m.writeHandler,
		elfImage:       m.elfImage,
		segments:       append([]*ExecuteSegment[T]{}, m.segments...),
		Entry:          m.Entry,
		HeapBase:       m.HeapBase,
		MmapCursor:     m.MmapCursor,
		StackTop:       m.StackTop,
		ExitTrampoline: m.ExitTrampoline,
		AlignmentCheck: m.AlignmentCheck,
	}

	for pageno, pg := range m.pages {
		if pg.Attr.DontFork {
			continue
		}
		if IsSentinel(pg) {
			child.pages[pageno] = pg
			continue
		}
		view := pg.Loan()
		if view.Attr.Write {
			// Writable pages become CoW in both parent and child: the
			// next write on either side clones privately.
			view.Attr.CoW = true
			view.Attr.Write = false
			pg.Attr.CoW = true
			pg.Attr.Write = false
		}
		child.pages[pageno] = view
	}
	child.npages = len(child.pages)
	return child
}
