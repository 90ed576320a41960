package evdev

// Linux input plumbing shared by the pad stream reader and the HID encoder:
// - constants for the event/button/axis codes the bridge cares about
// - the fixed 24-byte input_event codec, both directions
// - an incremental parser for raw event byte streams
//
// The encoder (internal/hid) and the decoder (internal/pad) must stay
// bit-compatible; both go through Encode/Decode below and nothing else.

import (
	"encoding/binary"
)

// Event types
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_REL = 0x02
	EV_ABS = 0x03
)

// SYN codes
const (
	SYN_REPORT = 0x00
)

// Gamepad buttons
const (
	BTN_SOUTH  = 0x130 // cross
	BTN_EAST   = 0x131 // circle
	BTN_NORTH  = 0x133 // triangle
	BTN_WEST   = 0x134 // square
	BTN_TL     = 0x136
	BTN_TR     = 0x137
	BTN_TL2    = 0x138
	BTN_TR2    = 0x139
	BTN_SELECT = 0x13a
	BTN_START  = 0x13b
	BTN_MODE   = 0x13c
	BTN_THUMBL = 0x13d
	BTN_THUMBR = 0x13e

	BTN_DPAD_UP    = 0x220
	BTN_DPAD_DOWN  = 0x221
	BTN_DPAD_LEFT  = 0x222
	BTN_DPAD_RIGHT = 0x223

	// DS4 reports the touchpad click as BTN_TOUCH.
	BTN_TOUCH = 0x14a
)

// Mouse buttons (synthetic HID path)
const (
	BTN_LEFT   = 0x110
	BTN_RIGHT  = 0x111
	BTN_MIDDLE = 0x112
)

// ABS axes
const (
	ABS_X     = 0x00
	ABS_Y     = 0x01
	ABS_Z     = 0x02
	ABS_RX    = 0x03
	ABS_RY    = 0x04
	ABS_RZ    = 0x05
	ABS_GAS   = 0x09
	ABS_BRAKE = 0x0a
	ABS_HAT0X = 0x10
	ABS_HAT0Y = 0x11
)

// REL axes (synthetic HID path)
const (
	REL_X     = 0x00
	REL_Y     = 0x01
	REL_WHEEL = 0x08
)

// EventSize is the wire size of one struct input_event with a 64-bit timeval.
// The bridge targets 64-bit kernels only; the 16-byte timestamp is carried on
// the wire but never interpreted.
const EventSize = 24

// Event is one decoded input_event record.
type Event struct {
	Type  uint16
	Code  uint16
	Value int32
}

// Decode reads one record from b. b must hold at least EventSize bytes.
func Decode(b []byte) Event {
	return Event{
		Type:  binary.LittleEndian.Uint16(b[16:18]),
		Code:  binary.LittleEndian.Uint16(b[18:20]),
		Value: int32(binary.LittleEndian.Uint32(b[20:24])),
	}
}

// Encode renders e as a fresh EventSize-byte record with a zeroed timestamp.
// Byte offsets match Decode exactly; the uinput helper consumes this layout.
func Encode(e Event) []byte {
	b := make([]byte, EventSize)
	binary.LittleEndian.PutUint16(b[16:18], e.Type)
	binary.LittleEndian.PutUint16(b[18:20], e.Code)
	binary.LittleEndian.PutUint32(b[20:24], uint32(e.Value))
	return b
}

// Parser accumulates raw stream bytes and emits complete records in arrival
// order. Partial trailing records are kept for the next Feed.
type Parser struct {
	buf []byte
}

// Feed appends chunk and invokes cb once per complete record.
func (p *Parser) Feed(chunk []byte, cb func(Event)) {
	p.buf = append(p.buf, chunk...)
	for len(p.buf) >= EventSize {
		ev := Decode(p.buf[:EventSize])
		p.buf = p.buf[EventSize:]
		cb(ev)
	}
}
