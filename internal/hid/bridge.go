package hid

// Encoder half of the synthetic HID path. The always-running uinput helper
// (cmd/uinput-hid) owns the virtual mouse+keyboard; this side spawns it and
// writes 24-byte input_event bursts to its stdin. Each logical action is 2-3
// records ending with SYN_REPORT, in the exact layout internal/evdev decodes.
//
// A missing or dead helper degrades every action to a no-op, never a crash.

import (
	"io"
	"os"
	"os/exec"
	"sync"

	log "github.com/sirupsen/logrus"

	"padbridge/internal/evdev"
)

// Mouse buttons on the browser protocol (message 0x02).
const (
	MouseLeft = iota
	MouseRight
	MouseMiddle
)

var logger = log.WithField("comp", "hid")

// Bridge writes encoded actions to the helper. The zero Bridge is a no-op.
type Bridge struct {
	mu  sync.Mutex
	cmd *exec.Cmd
	in  io.WriteCloser
}

// Start spawns the helper process. Failure to spawn is logged and yields a
// no-op bridge.
func Start(helperPath string) *Bridge {
	b := &Bridge{}
	cmd := exec.Command(helperPath)
	cmd.Stderr = os.Stderr
	in, err := cmd.StdinPipe()
	if err == nil {
		err = cmd.Start()
	}
	if err != nil {
		logger.Warnf("helper unavailable (%s): %v", helperPath, err)
		return b
	}
	b.cmd = cmd
	b.in = in
	logger.WithField("helper", helperPath).Info("virtual HID helper started")
	return b
}

// Close tears the helper down.
func (b *Bridge) Close() {
	b.mu.Lock()
	in, cmd := b.in, b.cmd
	b.in, b.cmd = nil, nil
	b.mu.Unlock()
	if in != nil {
		_ = in.Close()
	}
	if cmd != nil {
		_ = cmd.Wait()
	}
}

// MouseMove replays a relative pointer move.
func (b *Bridge) MouseMove(dx, dy int32) { b.send(EncodeMouseMove(dx, dy)) }

// MouseButton replays a click transition for one of the three mouse buttons.
func (b *Bridge) MouseButton(button uint8, pressed bool) {
	b.send(EncodeMouseButton(button, pressed))
}

// Scroll replays a wheel tick.
func (b *Bridge) Scroll(delta int32) { b.send(EncodeScroll(delta)) }

// Key replays a raw keyboard key transition.
func (b *Bridge) Key(code uint16, pressed bool) { b.send(EncodeKey(code, pressed)) }

func (b *Bridge) send(burst []byte) {
	if burst == nil {
		return
	}
	b.mu.Lock()
	in := b.in
	b.mu.Unlock()
	if in == nil {
		return
	}
	if _, err := in.Write(burst); err != nil {
		logger.Warnf("helper write failed, disabling: %v", err)
		b.Close()
	}
}

// EncodeMouseMove renders REL_X + REL_Y + SYN. Zero deltas are elided.
func EncodeMouseMove(dx, dy int32) []byte {
	var out []byte
	if dx != 0 {
		out = append(out, evdev.Encode(evdev.Event{Type: evdev.EV_REL, Code: evdev.REL_X, Value: dx})...)
	}
	if dy != 0 {
		out = append(out, evdev.Encode(evdev.Event{Type: evdev.EV_REL, Code: evdev.REL_Y, Value: dy})...)
	}
	if out == nil {
		return nil
	}
	return append(out, syn()...)
}

// EncodeMouseButton renders one button key event + SYN.
func EncodeMouseButton(button uint8, pressed bool) []byte {
	var code uint16
	switch button {
	case MouseLeft:
		code = evdev.BTN_LEFT
	case MouseRight:
		code = evdev.BTN_RIGHT
	case MouseMiddle:
		code = evdev.BTN_MIDDLE
	default:
		return nil
	}
	return append(keyRecord(code, pressed), syn()...)
}

// EncodeScroll renders a REL_WHEEL tick + SYN. Positive scrolls up.
func EncodeScroll(delta int32) []byte {
	if delta == 0 {
		return nil
	}
	rec := evdev.Encode(evdev.Event{Type: evdev.EV_REL, Code: evdev.REL_WHEEL, Value: delta})
	return append(rec, syn()...)
}

// EncodeKey renders a raw key transition + SYN.
func EncodeKey(code uint16, pressed bool) []byte {
	return append(keyRecord(code, pressed), syn()...)
}

func keyRecord(code uint16, pressed bool) []byte {
	v := int32(0)
	if pressed {
		v = 1
	}
	return evdev.Encode(evdev.Event{Type: evdev.EV_KEY, Code: code, Value: v})
}

func syn() []byte {
	return evdev.Encode(evdev.Event{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT, Value: 0})
}
