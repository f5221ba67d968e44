package thread

import "testing"

type regs struct{ x [32]uint64 }

func TestNewTableStartsWithOneRunningThread(t *testing.T) {
	tbl := NewTable[regs]()
	if got := tbl.TID(); got != 1 {
		t.Errorf("TID() got: %v expected: %v", got, 1)
	}
	cur := tbl.Current()
	if cur == nil || cur.State != Running {
		t.Errorf("Current().State got: %v expected: %v", cur.State, Running)
	}
}

func TestCreateAssignsMonotonicTIDs(t *testing.T) {
	tbl := NewTable[regs]()
	a := tbl.Create(0x1000, 0x2000, 0x3000)
	b := tbl.Create(0x1000, 0x2000, 0x3000)
	if a.TID != 2 {
		t.Errorf("a.TID got: %v expected: %v", a.TID, 2)
	}
	if b.TID != 3 {
		t.Errorf("b.TID got: %v expected: %v", b.TID, 3)
	}
	if a.State != Ready {
		t.Errorf("a.State got: %v expected: %v", a.State, Ready)
	}
}

func TestActivateSwitchesRunningThreadAndSavesState(t *testing.T) {
	tbl := NewTable[regs]()
	child := tbl.Create(0, 0, 0)

	tbl.Activate(child, regs{x: [32]uint64{1: 42}}, 0x8000)

	if tbl.TID() != child.TID {
		t.Errorf("TID() got: %v expected: %v", tbl.TID(), child.TID)
	}
	main := tbl.Get(1)
	if main.State != Ready {
		t.Errorf("main.State got: %v expected: %v", main.State, Ready)
	}
	if main.SavedRegisters.x[1] != 42 {
		t.Errorf("main.SavedRegisters.x[1] got: %v expected: %v", main.SavedRegisters.x[1], 42)
	}
	if main.SavedPC != 0x8000 {
		t.Errorf("main.SavedPC got: %v expected: %v", main.SavedPC, uint64(0x8000))
	}
}

func TestExitReturnsTrueOnlyWhenAllThreadsExited(t *testing.T) {
	tbl := NewTable[regs]()
	child := tbl.Create(0, 0, 0)
	tbl.Activate(child, regs{}, 0)

	if done := tbl.Exit(); done {
		t.Errorf("Exit() with main still Ready got: %v expected: %v", done, false)
	}

	tbl.Activate(tbl.Get(1), regs{}, 0)
	if done := tbl.Exit(); !done {
		t.Errorf("Exit() with every thread exited got: %v expected: %v", done, true)
	}
}

func TestYieldPicksNextReadyThreadRoundRobin(t *testing.T) {
	tbl := NewTable[regs]()
	b := tbl.Create(0, 0, 0)
	c := tbl.Create(0, 0, 0)
	b.State = Ready
	c.State = Ready

	next := tbl.Yield()
	if next == nil || next.TID != b.TID {
		t.Errorf("Yield() got: %v expected: %v", next, b.TID)
	}
}

func TestYieldReturnsNilWhenNoneRunnable(t *testing.T) {
	tbl := NewTable[regs]()
	if next := tbl.Yield(); next != nil {
		t.Errorf("Yield() with a lone running thread got: %v expected: %v", next, nil)
	}
}

func TestFutexWaitRaisesDeadlockWhenNoneRunnable(t *testing.T) {
	tbl := NewTable[regs]()

	defer func() {
		r := recover()
		if r == nil {
			t.Errorf("FutexWait with no runnable thread got: %v expected: %v", "no panic", "a panic")
		}
	}()
	tbl.FutexWait(0x4000, regs{}, 0)
}

func TestFutexWaitSwitchesToAnotherReadyThread(t *testing.T) {
	tbl := NewTable[regs]()
	other := tbl.Create(0, 0, 0)
	other.State = Ready

	tbl.FutexWait(0x4000, regs{}, 0x100)

	main := tbl.Get(1)
	if main.State != Blocked {
		t.Errorf("main.State got: %v expected: %v", main.State, Blocked)
	}
	if main.FutexKey != 0x4000 {
		t.Errorf("main.FutexKey got: %v expected: %v", main.FutexKey, uint64(0x4000))
	}
	if tbl.TID() != other.TID {
		t.Errorf("TID() got: %v expected: %v", tbl.TID(), other.TID)
	}
}

func TestFutexWakeMovesBlockedThreadsToReady(t *testing.T) {
	tbl := NewTable[regs]()
	a := tbl.Create(0, 0, 0)
	b := tbl.Create(0, 0, 0)
	a.State, a.FutexKey = Blocked, 0x10
	b.State, b.FutexKey = Blocked, 0x10

	woken := tbl.FutexWake(0x10, 1)
	if woken != 1 {
		t.Errorf("FutexWake() got: %v expected: %v", woken, 1)
	}
	if a.State != Ready {
		t.Errorf("a.State got: %v expected: %v", a.State, Ready)
	}
	if b.State != Blocked {
		t.Errorf("b.State got: %v expected: %v", b.State, Blocked)
	}
}

func TestStopAllExitsEveryThread(t *testing.T) {
	tbl := NewTable[regs]()
	tbl.Create(0, 0, 0)
	tbl.Create(0, 0, 0)

	tbl.StopAll()
	for _, th := range tbl.Threads() {
		if th.State != Exited {
			t.Errorf("thread %d State got: %v expected: %v", th.TID, th.State, Exited)
		}
	}
}
