package hid

import (
	"testing"

	"padbridge/internal/evdev"
)

func decodeBurst(t *testing.T, b []byte) []evdev.Event {
	t.Helper()
	if len(b)%evdev.EventSize != 0 {
		t.Fatalf("burst length %d is not a whole number of records", len(b))
	}
	var out []evdev.Event
	for i := 0; i < len(b); i += evdev.EventSize {
		out = append(out, evdev.Decode(b[i:i+evdev.EventSize]))
	}
	return out
}

func expectSyn(t *testing.T, ev evdev.Event) {
	t.Helper()
	if ev.Type != evdev.EV_SYN || ev.Code != evdev.SYN_REPORT {
		t.Errorf("burst must end with SYN_REPORT, got %+v", ev)
	}
}

func TestEncodeMouseMove(t *testing.T) {
	evs := decodeBurst(t, EncodeMouseMove(-3, 7))
	if len(evs) != 3 {
		t.Fatalf("mouse move encoded %d records, wanted 3", len(evs))
	}
	if evs[0] != (evdev.Event{Type: evdev.EV_REL, Code: evdev.REL_X, Value: -3}) {
		t.Errorf("first record %+v", evs[0])
	}
	if evs[1] != (evdev.Event{Type: evdev.EV_REL, Code: evdev.REL_Y, Value: 7}) {
		t.Errorf("second record %+v", evs[1])
	}
	expectSyn(t, evs[2])
}

func TestEncodeMouseMoveElidesZeroAxis(t *testing.T) {
	evs := decodeBurst(t, EncodeMouseMove(5, 0))
	if len(evs) != 2 {
		t.Fatalf("encoded %d records, wanted REL_X + SYN", len(evs))
	}
	if evs[0].Code != evdev.REL_X || evs[0].Value != 5 {
		t.Errorf("first record %+v", evs[0])
	}
	expectSyn(t, evs[1])

	if EncodeMouseMove(0, 0) != nil {
		t.Error("a zero move must encode nothing")
	}
}

func TestEncodeMouseButton(t *testing.T) {
	evs := decodeBurst(t, EncodeMouseButton(MouseRight, true))
	if len(evs) != 2 {
		t.Fatalf("click encoded %d records, wanted 2", len(evs))
	}
	if evs[0] != (evdev.Event{Type: evdev.EV_KEY, Code: evdev.BTN_RIGHT, Value: 1}) {
		t.Errorf("press record %+v", evs[0])
	}
	expectSyn(t, evs[1])

	evs = decodeBurst(t, EncodeMouseButton(MouseLeft, false))
	if evs[0] != (evdev.Event{Type: evdev.EV_KEY, Code: evdev.BTN_LEFT, Value: 0}) {
		t.Errorf("release record %+v", evs[0])
	}

	if EncodeMouseButton(9, true) != nil {
		t.Error("unknown buttons must encode nothing")
	}
}

func TestEncodeScroll(t *testing.T) {
	evs := decodeBurst(t, EncodeScroll(-1))
	if len(evs) != 2 {
		t.Fatalf("scroll encoded %d records, wanted 2", len(evs))
	}
	if evs[0] != (evdev.Event{Type: evdev.EV_REL, Code: evdev.REL_WHEEL, Value: -1}) {
		t.Errorf("wheel record %+v", evs[0])
	}
	expectSyn(t, evs[1])

	if EncodeScroll(0) != nil {
		t.Error("a zero scroll must encode nothing")
	}
}

func TestEncodeKey(t *testing.T) {
	evs := decodeBurst(t, EncodeKey(30, true)) // KEY_A
	if len(evs) != 2 {
		t.Fatalf("key encoded %d records, wanted 2", len(evs))
	}
	if evs[0] != (evdev.Event{Type: evdev.EV_KEY, Code: 30, Value: 1}) {
		t.Errorf("key record %+v", evs[0])
	}
	expectSyn(t, evs[1])
}

func TestMissingHelperDegradesToNoop(t *testing.T) {
	b := Start("/nonexistent/uinput-helper")
	// Every action must be a harmless no-op.
	b.MouseMove(1, 1)
	b.MouseButton(MouseLeft, true)
	b.Scroll(1)
	b.Key(30, true)
	b.Close()
}
