package cpu

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/mayhemheroes/libriscv/decode"
	"github.com/mayhemheroes/libriscv/defs"
	"github.com/mayhemheroes/libriscv/mem"
)

func rv64Opt() decode.Options { return decode.Options{XLENBits: 64} }

func encodeI(opcode, funct3, rd, rs1 uint32, imm int32) uint32 {
	return uint32(imm&0xFFF)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeR(opcode, funct3, funct7, rd, rs1, rs2 uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeS(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	hi := uint32(imm>>5) & 0x7F
	lo := uint32(imm) & 0x1F
	return hi<<25 | rs2<<20 | rs1<<15 | funct3<<12 | lo<<7 | opcode
}

func putWord(buf []byte, off int, w uint32) {
	binary.LittleEndian.PutUint32(buf[off:], w)
}

const ebreakWord = 0x00100073

// newTestCPU builds a CPU over a fresh Memory with code installed as a
// single execute segment at base, backed by a real readable/executable
// page (so fault-path disassembly, which reads through Memory rather
// than the segment's raw bytes, has something to read), and OnEBreak
// wired to Stop the way machine.New wires it, so straight-line test
// programs can end in an EBREAK instead of running off the end of the
// segment.
func newTestCPU(t *testing.T, code []byte, base uint64) *CPU[uint64] {
	t.Helper()
	m := mem.New[uint64](0)
	c := New[uint64](m, rv64Opt())
	m.CopyToGuest(base, code)
	m.SetPageAttr(base, mem.PageSize, mem.Attr{Read: true, Exec: true, Cacheable: true})
	m.InstallExecuteSegment(base, code, rv64Opt())
	c.PC = base
	c.OnEBreak = func(c *CPU[uint64]) { c.Stop() }
	return c
}

func TestSimulateAddiThenEbreakReturnsLiteral(t *testing.T) {
	code := make([]byte, 8)
	putWord(code, 0, encodeI(decode.OpOpImm, 0, 10, 0, 42)) // addi a0, zero, 42
	putWord(code, 4, ebreakWord)

	c := newTestCPU(t, code, 0x1000)
	if f := c.Simulate(100); f != nil {
		t.Fatalf("Simulate() got fault: %v", f)
	}
	if got := c.Regs.Get(10); got != 42 {
		t.Errorf("a0 got: %d expected: %d", got, 42)
	}
}

func TestSimulateStoreThenLoadRoundTrips(t *testing.T) {
	code := make([]byte, 20)
	putWord(code, 0, 1<<12|5<<7|decode.OpLui)              // lui t0, 1 (t0 = 0x1000)
	putWord(code, 4, encodeI(decode.OpOpImm, 0, 6, 0, 7))  // addi t1, zero, 7
	putWord(code, 8, encodeS(decode.OpStore, 2, 5, 6, 0))  // sw t1, 0(t0)
	putWord(code, 12, encodeI(decode.OpLoad, 2, 17, 5, 0)) // lw a7, 0(t0)
	putWord(code, 16, ebreakWord)

	c := newTestCPU(t, code, 0x2000)
	if f := c.Simulate(100); f != nil {
		t.Fatalf("Simulate() got fault: %v", f)
	}
	if got := c.Mem.Read32(0x1000); got != 7 {
		t.Errorf("Mem.Read32(0x1000) got: %d expected: %d", got, 7)
	}
	if got := c.Regs.Get(17); got != 7 {
		t.Errorf("a7 got: %d expected: %d", got, 7)
	}
}

func TestSimulateBranchNotTakenFallsThrough(t *testing.T) {
	code := make([]byte, 16)
	putWord(code, 0, encodeI(decode.OpOpImm, 0, 10, 0, 1))               // addi a0, zero, 1
	putWord(code, 4, encodeR(decode.OpBranch, 0 /*beq*/, 0, 0, 10, 0))   // beq a0, zero, +imm(=0 here, harmless)
	putWord(code, 8, encodeI(decode.OpOpImm, 0, 10, 10, 41))             // addi a0, a0, 41
	putWord(code, 12, ebreakWord)

	c := newTestCPU(t, code, 0x3000)
	if f := c.Simulate(100); f != nil {
		t.Fatalf("Simulate() got fault: %v", f)
	}
	if got := c.Regs.Get(10); got != 42 {
		t.Errorf("a0 got: %d expected: %d", got, 42)
	}
}

func TestSimulateIllegalOpcodeFaultsAndAnnotatesDisassembly(t *testing.T) {
	code := make([]byte, 4)
	putWord(code, 0, 0x00000000) // funct3/opcode 0 with no defined meaning: BC_INVALID

	c := newTestCPU(t, code, 0x4000)
	f := c.Simulate(10)
	if f == nil {
		t.Fatal("Simulate() got: nil fault, expected IllegalOpcode")
	}
	if !strings.Contains(f.Message, "[") {
		t.Errorf("Fault.Message got: %q, expected a disassembly annotation in brackets", f.Message)
	}
}

func TestSimulateExecutionSpaceProtectionFaultOnUnmappedPC(t *testing.T) {
	m := mem.New[uint64](0)
	c := New[uint64](m, rv64Opt())
	c.PC = 0xF0000000

	f := c.Simulate(10)
	if f == nil {
		t.Fatal("Simulate() got: nil fault, expected ExecutionSpaceProtectionFault")
	}
}

func TestSimulateTimeoutWhenBudgetExhausted(t *testing.T) {
	// Four NOPs (rd==x0 addi), long enough that a 3-instruction budget
	// never falls off the end of the segment before it runs out.
	code := make([]byte, 16)
	for off := 0; off < len(code); off += 4 {
		putWord(code, off, encodeI(decode.OpOpImm, 0, 0, 0, 0))
	}

	c := newTestCPU(t, code, 0x5000)
	f := c.Simulate(3)
	if f == nil {
		t.Fatal("Simulate() got: nil fault, expected Timeout")
	}
	if f.Kind != defs.Timeout {
		t.Errorf("Fault.Kind got: %v expected: %v", f.Kind, defs.Timeout)
	}
}

func TestFaultHandlerCanRepairAndResume(t *testing.T) {
	code := make([]byte, 12)
	putWord(code, 0, 0x00000000) // BC_INVALID: faults once
	putWord(code, 4, encodeI(decode.OpOpImm, 0, 10, 0, 99))
	putWord(code, 8, ebreakWord)

	c := newTestCPU(t, code, 0x6000)
	repairs := 0
	c.OnFault = func(c *CPU[uint64], f *defs.Fault) bool {
		if f.Kind != defs.IllegalOpcode || repairs > 0 {
			return false
		}
		repairs++
		c.PC += 4 // skip the bad instruction and resume
		return true
	}

	if f := c.Simulate(100); f != nil {
		t.Fatalf("Simulate() got fault: %v, expected the handler to repair and resume", f)
	}
	if repairs != 1 {
		t.Errorf("OnFault invocation count got: %d expected: %d", repairs, 1)
	}
	if got := c.Regs.Get(10); got != 99 {
		t.Errorf("a0 got: %d expected: %d", got, 99)
	}
}

func TestFaultHandlerRepairsAcrossManyConsecutiveFaults(t *testing.T) {
	const faults = 50
	code := make([]byte, (faults+1)*4)
	for i := 0; i < faults; i++ {
		putWord(code, i*4, 0x00000000) // BC_INVALID, repaired by skipping past it
	}
	putWord(code, faults*4, ebreakWord)

	c := newTestCPU(t, code, 0x7000)
	repairs := 0
	c.OnFault = func(c *CPU[uint64], f *defs.Fault) bool {
		if f.Kind != defs.IllegalOpcode {
			return false
		}
		repairs++
		c.PC += 4
		return true
	}

	if f := c.Simulate(1000); f != nil {
		t.Fatalf("Simulate() got fault: %v, expected every fault to be repaired", f)
	}
	if repairs != faults {
		t.Errorf("OnFault invocation count got: %d expected: %d", repairs, faults)
	}
}
