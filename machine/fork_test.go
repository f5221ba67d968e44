package machine

import "testing"

// TestForkIsolation is spec §9's mandatory fork scenario: once forked,
// parent and child diverge independently, in both registers and memory,
// with neither side observing the other's writes.
func TestForkIsolation(t *testing.T) {
	const base = 0x10000
	code := make([]byte, 4)
	putWord(code, 0, ebreakWord)
	raw := buildRiscvELF(t, base, code)

	parent := New[uint64](raw, rv64Opts())
	const dataAddr = 0x5000
	parent.CopyToGuest(dataAddr, []byte{1, 2, 3, 4})
	parent.CPU.Regs.Set(10, 100) // a0

	child := parent.Fork()

	parent.CPU.Regs.Set(10, 111)
	child.CPU.Regs.Set(10, 222)
	if got := parent.CPU.Regs.Get(10); got != 111 {
		t.Errorf("parent a0 got: %d expected: %d", got, 111)
	}
	if got := child.CPU.Regs.Get(10); got != 222 {
		t.Errorf("child a0 got: %d expected: %d", got, 222)
	}

	child.CopyToGuest(dataAddr, []byte{9, 9, 9, 9})
	parentData := make([]byte, 4)
	childData := make([]byte, 4)
	parent.CopyFromGuest(parentData, dataAddr)
	child.CopyFromGuest(childData, dataAddr)

	if string(parentData) != string([]byte{1, 2, 3, 4}) {
		t.Errorf("parent memory got: %v expected: %v, a child write leaked across the fork", parentData, []byte{1, 2, 3, 4})
	}
	if string(childData) != string([]byte{9, 9, 9, 9}) {
		t.Errorf("child memory got: %v expected: %v", childData, []byte{9, 9, 9, 9})
	}
}
