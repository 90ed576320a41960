package pad

import (
	"os"
	"testing"
	"time"

	"padbridge/internal/devices"
	"padbridge/internal/evdev"
)

type frame struct {
	slot int
	st   State
}

// testMux wires a Mux to in-memory pipes so assignments read crafted streams
// instead of /dev/input. Calibration ioctls fail on a pipe, which exercises
// the fallback-range path.
type testMux struct {
	*Mux
	frames  chan frame
	changes chan int
	writers map[string]*os.File
}

func newTestMux(t *testing.T) *testMux {
	t.Helper()
	tm := &testMux{
		frames:  make(chan frame, 64),
		changes: make(chan int, 64),
		writers: make(map[string]*os.File),
	}
	sink := SinkFunc(func(slot int, st State) {
		tm.frames <- frame{slot, st}
	})
	tm.Mux = NewMux(sink, DefaultTriggerThreshold, func(slot int) {
		tm.changes <- slot
	})
	tm.Mux.open = func(path string) (*os.File, error) {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, err
		}
		if old, ok := tm.writers[path]; ok {
			_ = old.Close()
		}
		tm.writers[path] = w
		return r, nil
	}
	t.Cleanup(func() {
		tm.Mux.Close()
		for _, w := range tm.writers {
			_ = w.Close()
		}
	})
	return tm
}

func (tm *testMux) push(t *testing.T, path string, events ...evdev.Event) {
	t.Helper()
	w, ok := tm.writers[path]
	if !ok {
		t.Fatalf("no writer for %s", path)
	}
	var buf []byte
	for _, ev := range events {
		buf = append(buf, evdev.Encode(ev)...)
	}
	if _, err := w.Write(buf); err != nil {
		t.Fatalf("push: %v", err)
	}
}

func (tm *testMux) waitFrame(t *testing.T) frame {
	t.Helper()
	select {
	case f := <-tm.frames:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a pad frame")
		return frame{}
	}
}

func (tm *testMux) waitChange(t *testing.T) int {
	t.Helper()
	select {
	case s := <-tm.changes:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a slot change")
		return -1
	}
}

func dev(path string) devices.Detected {
	return devices.Detected{Name: "test pad", EventPath: path, Vendor: 0x1234}
}

func TestAssignBadSlot(t *testing.T) {
	tm := newTestMux(t)
	if err := tm.Assign(-1, dev("/p/a")); err != ErrBadSlot {
		t.Errorf("Assign(-1) = %v, wanted ErrBadSlot", err)
	}
	if err := tm.Assign(SlotCount, dev("/p/a")); err != ErrBadSlot {
		t.Errorf("Assign(4) = %v, wanted ErrBadSlot", err)
	}
	if err := tm.Unassign(SlotCount); err != ErrBadSlot {
		t.Errorf("Unassign(4) = %v, wanted ErrBadSlot", err)
	}
}

func TestAssignMovesDeviceBetweenSlots(t *testing.T) {
	tm := newTestMux(t)

	if err := tm.Assign(0, dev("/p/a")); err != nil {
		t.Fatalf("assign slot 0: %v", err)
	}
	tm.waitChange(t)

	if err := tm.Assign(2, dev("/p/a")); err != nil {
		t.Fatalf("assign slot 2: %v", err)
	}

	snap := tm.Snapshot()
	if snap[0].Active || snap[0].Controller != nil {
		t.Error("slot 0 must be empty and inactive after the move")
	}
	if snap[0].State != Rest() {
		t.Errorf("slot 0 state %+v, wanted rest values", snap[0].State)
	}
	if !snap[2].Active || snap[2].Controller == nil {
		t.Fatal("slot 2 must hold the device, active")
	}
	if snap[2].Controller.EventPath != "/p/a" {
		t.Errorf("slot 2 holds %q", snap[2].Controller.EventPath)
	}

	// No two occupied slots may ever share an event path.
	seen := map[string]bool{}
	for _, info := range snap {
		if info.Controller == nil {
			continue
		}
		if seen[info.Controller.EventPath] {
			t.Fatalf("event path %q bound to two slots", info.Controller.EventPath)
		}
		seen[info.Controller.EventPath] = true
	}
}

func TestUnassignIdempotent(t *testing.T) {
	tm := newTestMux(t)

	if err := tm.Assign(1, dev("/p/a")); err != nil {
		t.Fatalf("assign: %v", err)
	}
	tm.waitChange(t)

	if err := tm.Unassign(1); err != nil {
		t.Fatalf("first unassign: %v", err)
	}
	tm.waitChange(t)
	first := tm.Snapshot()[1]

	if err := tm.Unassign(1); err != nil {
		t.Fatalf("second unassign: %v", err)
	}
	second := tm.Snapshot()[1]

	if first != second {
		t.Errorf("unassign is not idempotent: %+v vs %+v", first, second)
	}
	if second.Active || second.Controller != nil || second.State != Rest() {
		t.Errorf("slot not at rest after unassign: %+v", second)
	}
}

func TestSyncBoundaryPushesOneFrame(t *testing.T) {
	tm := newTestMux(t)

	if err := tm.Assign(0, dev("/p/a")); err != nil {
		t.Fatalf("assign: %v", err)
	}
	tm.waitChange(t)

	// Several mutations, one SYN: exactly one push, reflecting all of them.
	tm.push(t, "/p/a",
		evdev.Event{Type: evdev.EV_KEY, Code: evdev.BTN_SOUTH, Value: 1},
		evdev.Event{Type: evdev.EV_ABS, Code: evdev.ABS_X, Value: 32767},
		evdev.Event{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT},
	)

	f := tm.waitFrame(t)
	if f.slot != 0 {
		t.Errorf("frame slot %d, wanted 0", f.slot)
	}
	if f.st.Buttons&BtnCross == 0 {
		t.Error("frame missing the button set before the SYN")
	}
	// Fallback range for a generic vendor is signed 16-bit; 32767 is full
	// deflection.
	if f.st.LX != 255 {
		t.Errorf("LX = %d, wanted 255", f.st.LX)
	}

	select {
	case extra := <-tm.frames:
		t.Fatalf("unexpected extra frame %+v before a second SYN", extra)
	case <-time.After(50 * time.Millisecond):
	}

	if got := tm.Frames(); got != 1 {
		t.Errorf("frame counter %d, wanted 1", got)
	}

	// Published slot state matches the pushed frame.
	if st := tm.Snapshot()[0].State; st != f.st {
		t.Errorf("snapshot state %+v, frame %+v", st, f.st)
	}
}

func TestPartialFrameNotPublished(t *testing.T) {
	tm := newTestMux(t)

	if err := tm.Assign(0, dev("/p/a")); err != nil {
		t.Fatalf("assign: %v", err)
	}
	tm.waitChange(t)

	// Mutations without a SYN must not leak into the published state.
	tm.push(t, "/p/a",
		evdev.Event{Type: evdev.EV_KEY, Code: evdev.BTN_SOUTH, Value: 1},
	)
	time.Sleep(50 * time.Millisecond)

	if st := tm.Snapshot()[0].State; st != Rest() {
		t.Errorf("torn state published before SYN: %+v", st)
	}
}

func TestStreamErrorResetsSlot(t *testing.T) {
	tm := newTestMux(t)

	if err := tm.Assign(3, dev("/p/a")); err != nil {
		t.Fatalf("assign: %v", err)
	}
	tm.waitChange(t)

	// Leave some non-rest state behind, then yank the device.
	tm.push(t, "/p/a",
		evdev.Event{Type: evdev.EV_KEY, Code: evdev.BTN_SOUTH, Value: 1},
		evdev.Event{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT},
	)
	tm.waitFrame(t)

	_ = tm.writers["/p/a"].Close()

	if slot := tm.waitChange(t); slot != 3 {
		t.Errorf("change notice for slot %d, wanted 3", slot)
	}
	info := tm.Snapshot()[3]
	if info.Active || info.Controller != nil {
		t.Error("slot must be empty and inactive after a stream error")
	}
	if info.State != Rest() {
		t.Errorf("stale state %+v broadcast after disconnection", info.State)
	}
}

func TestReconcileUnassignsMissingDevices(t *testing.T) {
	tm := newTestMux(t)

	if err := tm.Assign(0, dev("/p/a")); err != nil {
		t.Fatalf("assign a: %v", err)
	}
	tm.waitChange(t)
	if err := tm.Assign(1, dev("/p/b")); err != nil {
		t.Fatalf("assign b: %v", err)
	}
	tm.waitChange(t)

	tm.Reconcile(map[string]bool{"/p/b": true})

	if slot := tm.waitChange(t); slot != 0 {
		t.Errorf("change notice for slot %d, wanted 0", slot)
	}
	snap := tm.Snapshot()
	if snap[0].Active {
		t.Error("slot 0 must be force-unassigned when its device vanishes")
	}
	if !snap[1].Active {
		t.Error("slot 1 must survive reconciliation")
	}
}
