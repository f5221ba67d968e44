// Package thread implements the cooperative multi-threading and signal
// machinery spec §4.6 describes: a thread table with saved register
// snapshots, futex wait/wake keyed by guest address, and a 64-entry
// signal table with explicit tgkill-style delivery. It is grounded on
// _examples/original_source/fuzz/lib/libriscv/posix_threads.cpp's
// MultiThreading<W> (create/suspend/activate/exit, the futex WAIT/WAKE
// op codes, and tgkill's unset-handler-exits-thread rule) and on
// multiprocessing.hpp for the ownership rule that this state lives
// inside a Machine rather than a free-standing singleton.
package thread

import "github.com/mayhemheroes/libriscv/defs"

// State is one of the four states spec §3's Thread Table record names.
type State int

const (
	Ready State = iota
	Running
	Blocked
	Exited
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Blocked:
		return "blocked"
	case Exited:
		return "exited"
	default:
		return "unknown"
	}
}

// Thread is one guest thread record, per spec §3's Thread Table entry.
type Thread[T any] struct {
	TID int

	SavedRegisters T
	SavedPC        uint64

	ClearTidAddr uint64
	ChildTidAddr uint64
	StackBase    uint64
	TLSPointer   uint64

	State State
	// FutexKey is the guest address this thread is blocked on when
	// State == Blocked; zero otherwise.
	FutexKey uint64
}

// Table owns every thread of one Machine, assigning TIDs monotonically
// from 1 as spec §3 requires, and tracks which one is current.
type Table[T any] struct {
	threads   []*Thread[T]
	byTID     map[int]*Thread[T]
	nextTID   int
	currentID int
}

// NewTable creates a table with a single thread (TID 1, Running) for
// the Machine's initial hart, mirroring MultiThreading<W>'s
// construction of the main thread alongside the object itself.
func NewTable[T any]() *Table[T] {
	tbl := &Table[T]{byTID: make(map[int]*Thread[T]), nextTID: 1}
	main := &Thread[T]{TID: tbl.nextTID, State: Running}
	tbl.nextTID++
	tbl.threads = append(tbl.threads, main)
	tbl.byTID[main.TID] = main
	tbl.currentID = main.TID
	return tbl
}

// Current returns the running thread.
func (t *Table[T]) Current() *Thread[T] { return t.byTID[t.currentID] }

// TID returns the running thread's ID, matching MultiThreading::get_tid.
func (t *Table[T]) TID() int { return t.currentID }

// Get looks up a thread by TID, matching MultiThreading::get_thread(tid).
func (t *Table[T]) Get(tid int) *Thread[T] { return t.byTID[tid] }

// Create makes a new Ready thread with the clone()-supplied parameters
// and returns it without activating it, mirroring
// MultiThreading::create's construction step (activation is a separate
// call in the original, done by the clone syscall handler once it has
// decided which of parent/child keeps running).
func (t *Table[T]) Create(stackBase, tls, childTid uint64) *Thread[T] {
	th := &Thread[T]{
		TID:          t.nextTID,
		State:        Ready,
		StackBase:    stackBase,
		TLSPointer:   tls,
		ChildTidAddr: childTid,
	}
	t.nextTID++
	t.threads = append(t.threads, th)
	t.byTID[th.TID] = th
	return th
}

// Activate switches the running thread to th, saving the previous
// thread's registers/PC (supplied by the caller, since Table has no
// CPU reference) and marking it Ready, then marking th Running.
func (t *Table[T]) Activate(th *Thread[T], prevRegs T, prevPC uint64) {
	if cur := t.Current(); cur != nil && cur.TID != th.TID {
		cur.SavedRegisters = prevRegs
		cur.SavedPC = prevPC
		if cur.State == Running {
			cur.State = Ready
		}
	}
	th.State = Running
	t.currentID = th.TID
}

// Exit marks the running thread Exited and reports whether the whole
// program should stop: true when it was the last thread standing,
// matching Thread::exit()'s "exit returns true if the program ended".
func (t *Table[T]) Exit() bool {
	cur := t.Current()
	if cur == nil {
		return true
	}
	cur.State = Exited
	for _, th := range t.threads {
		if th.State != Exited {
			return false
		}
	}
	return true
}

// Suspend marks the running thread Ready; a caller that wants to block
// it on a futex key should set th.State/FutexKey directly first.
func (t *Table[T]) Suspend() {
	if cur := t.Current(); cur != nil && cur.State == Running {
		cur.State = Ready
	}
}

// Yield picks the next Ready thread (round-robin over the table in
// TID order starting after the current one) and returns it, or nil if
// none is runnable. It does not itself switch state; callers combine
// it with Activate.
func (t *Table[T]) Yield() *Thread[T] {
	if len(t.threads) == 0 {
		return nil
	}
	start := 0
	for i, th := range t.threads {
		if th.TID == t.currentID {
			start = i
			break
		}
	}
	for i := 1; i <= len(t.threads); i++ {
		th := t.threads[(start+i)%len(t.threads)]
		if th.State == Ready {
			return th
		}
	}
	return nil
}

// FutexWait blocks the running thread on key, matching MultiThreading's
// FUTEX_WAIT loop: the caller re-checks the guest word itself (Table
// has no Memory reference) and calls FutexWait once per failed check.
// If no other thread is runnable, it raises DEADLOCK_REACHED, the same
// escape hatch posix_threads.cpp's suspend_and_yield failure path uses.
func (t *Table[T]) FutexWait(key uint64, prevRegs T, prevPC uint64) {
	cur := t.Current()
	cur.State = Blocked
	cur.FutexKey = key

	next := t.Yield()
	if next == nil {
		cur.State = Running
		cur.FutexKey = 0
		defs.Throw(defs.DeadlockReached, "futex wait found no runnable thread", key)
	}
	t.Activate(next, prevRegs, prevPC)
}

// FutexWake moves up to n threads blocked on key from Blocked to Ready,
// matching MultiThreading's FUTEX_WAKE, and returns how many it woke.
func (t *Table[T]) FutexWake(key uint64, n int) int {
	woken := 0
	for _, th := range t.threads {
		if woken >= n {
			break
		}
		if th.State == Blocked && th.FutexKey == key {
			th.State = Ready
			th.FutexKey = 0
			woken++
		}
	}
	return woken
}

// Threads returns every thread record, for diagnostics and the
// cancellation sweep in Table.StopAll.
func (t *Table[T]) Threads() []*Thread[T] { return t.threads }

// StopAll marks every thread Exited, implementing spec §4.6's
// Machine-level stop() cancellation ("terminates all threads at the
// next check").
func (t *Table[T]) StopAll() {
	for _, th := range t.threads {
		th.State = Exited
	}
}
