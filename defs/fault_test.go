package defs

import "testing"

func TestKindStringKnownAndUnknown(t *testing.T) {
	if got := OutOfMemory.String(); got != "OUT_OF_MEMORY" {
		t.Errorf("String() got: %v expected: %v", got, "OUT_OF_MEMORY")
	}
	if got := Kind(999).String(); got != "Kind(999)" {
		t.Errorf("String() got: %v expected: %v", got, "Kind(999)")
	}
}

func TestFaultErrorFormatsWithAndWithoutMessage(t *testing.T) {
	f := New(ProtectionFault, "", 0x1000)
	if got, want := f.Error(), "PROTECTION_FAULT at 0x1000"; got != want {
		t.Errorf("Error() got: %v expected: %v", got, want)
	}

	f2 := New(IllegalOpcode, "bad encoding", 0xcafe)
	if got, want := f2.Error(), "ILLEGAL_OPCODE: bad encoding (0xcafe)"; got != want {
		t.Errorf("Error() got: %v expected: %v", got, want)
	}
}

func TestThrowPanicsWithFault(t *testing.T) {
	defer func() {
		r := recover()
		f, ok := r.(*Fault)
		if !ok {
			t.Fatalf("recover() got: %T expected: %v", r, "*defs.Fault")
		}
		if f.Kind != Timeout {
			t.Errorf("f.Kind got: %v expected: %v", f.Kind, Timeout)
		}
	}()
	Throw(Timeout, "budget exhausted", 42)
}

func TestRecoverReturnsFaultAndRepanicsOtherwise(t *testing.T) {
	got := func() (f *Fault) {
		defer func() { f = Recover(recover()) }()
		Throw(DeadlockReached, "", 0)
		return nil
	}()
	if got == nil || got.Kind != DeadlockReached {
		t.Errorf("Recover() got: %v expected kind: %v", got, DeadlockReached)
	}

	defer func() {
		r := recover()
		if r != "not a fault" {
			t.Errorf("re-panic value got: %v expected: %v", r, "not a fault")
		}
	}()
	func() {
		defer func() { Recover(recover()) }()
		panic("not a fault")
	}()
}

func TestRecoverNilIsNil(t *testing.T) {
	if Recover(nil) != nil {
		t.Errorf("Recover(nil) got: %v expected: %v", Recover(nil), nil)
	}
}
