package mem

import "testing"

func TestGatherBuffersSpansPageBoundaryWithoutCopying(t *testing.T) {
	m := New[uint64](0)
	m.CopyToGuest(PageSize-4, []byte{1, 2, 3, 4, 5, 6, 7, 8})

	frags := m.GatherBuffers(PageSize-4, 8)
	if len(frags) != 2 {
		t.Fatalf("GatherBuffers() fragment count got: %v expected: %v", len(frags), 2)
	}
	if len(frags[0].Host) != 4 || len(frags[1].Host) != 4 {
		t.Errorf("GatherBuffers() fragment sizes got: %v/%v expected: 4/4", len(frags[0].Host), len(frags[1].Host))
	}
	if frags[0].Host[0] != 1 || frags[1].Host[0] != 5 {
		t.Errorf("GatherBuffers() fragment contents got: %v/%v expected first bytes 1/5", frags[0].Host[0], frags[1].Host[0])
	}
}

func TestGatherBuffersSinglePageNoSplit(t *testing.T) {
	m := New[uint64](0)
	m.CopyToGuest(0x1000, []byte{9, 9, 9})
	frags := m.GatherBuffers(0x1000, 3)
	if len(frags) != 1 {
		t.Errorf("GatherBuffers() fragment count got: %v expected: %v", len(frags), 1)
	}
}
