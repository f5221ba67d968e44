package thread

import "testing"

func TestNewSignalTableDefaultsToUnset(t *testing.T) {
	st := NewSignalTable()
	act := st.Action(11)
	if !act.IsUnset() {
		t.Errorf("Action(11).IsUnset() got: %v expected: %v", act.IsUnset(), true)
	}
}

func TestSetActionRoundTrips(t *testing.T) {
	st := NewSignalTable()
	want := SignalAction{Handler: 0x4000, AltStack: 0x8000, Mask: 0x2}
	st.SetAction(11, want)

	got := st.Action(11)
	if got != want {
		t.Errorf("Action(11) got: %+v expected: %+v", got, want)
	}
	if got.IsUnset() {
		t.Errorf("Action(11).IsUnset() got: %v expected: %v", got.IsUnset(), false)
	}
}

func TestOutOfRangeSignalIsIgnored(t *testing.T) {
	st := NewSignalTable()
	st.SetAction(NumSignals+1, SignalAction{Handler: 1})

	if act := st.Action(NumSignals + 1); !act.IsUnset() {
		t.Errorf("out-of-range Action() got: %v expected: %v", act, SignalAction{})
	}
	if act := st.Action(-1); !act.IsUnset() {
		t.Errorf("negative Action() got: %v expected: %v", act, SignalAction{})
	}
}
