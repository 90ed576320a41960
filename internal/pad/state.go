package pad

// Canonical, vendor-neutral controller state. Raw evdev values from any
// supported pad are folded into this one shape before they leave the process.

// Button bits in State.Buttons. The bit positions are the wire contract with
// the console target; do not reorder.
const (
	BtnCross uint32 = 1 << iota
	BtnCircle
	BtnSquare
	BtnTriangle
	BtnL1
	BtnR1
	BtnL2
	BtnR2
	BtnShare
	BtnOptions
	BtnL3
	BtnR3
	BtnPS
	BtnTouchpad
	BtnDpadUp
	BtnDpadDown
	BtnDpadLeft
	BtnDpadRight
)

// Analog rest values. Sticks rest at mid-scale, triggers at zero.
const (
	StickRest   = 128
	TriggerRest = 0
)

// DefaultTriggerThreshold is the 0-255 deadzone above which an analog trigger
// also registers as a button press.
const DefaultTriggerThreshold = 10

// State holds a button bitmask plus six analog channels, each normalized to
// 0-255. A State is a consistent snapshot only at a SYN_REPORT boundary;
// between boundaries individual fields mutate as records arrive.
type State struct {
	Buttons uint32 `json:"buttons"`
	LX      uint8  `json:"lx"`
	LY      uint8  `json:"ly"`
	RX      uint8  `json:"rx"`
	RY      uint8  `json:"ry"`
	L2      uint8  `json:"l2"`
	R2      uint8  `json:"r2"`
}

// Rest returns the all-idle state: centered sticks, zero triggers, no buttons.
func Rest() State {
	return State{LX: StickRest, LY: StickRest, RX: StickRest, RY: StickRest}
}
