package pad

// Folding raw evdev records into canonical state. Pure code, no I/O; the
// stream reader drives it and tests exercise it directly.

import "padbridge/internal/evdev"

// buttonBits maps evdev key codes to canonical button bits.
var buttonBits = map[uint16]uint32{
	evdev.BTN_SOUTH:  BtnCross,
	evdev.BTN_EAST:   BtnCircle,
	evdev.BTN_WEST:   BtnSquare,
	evdev.BTN_NORTH:  BtnTriangle,
	evdev.BTN_TL:     BtnL1,
	evdev.BTN_TR:     BtnR1,
	evdev.BTN_TL2:    BtnL2,
	evdev.BTN_TR2:    BtnR2,
	evdev.BTN_SELECT: BtnShare,
	evdev.BTN_START:  BtnOptions,
	evdev.BTN_THUMBL: BtnL3,
	evdev.BTN_THUMBR: BtnR3,
	evdev.BTN_MODE:   BtnPS,
	evdev.BTN_TOUCH:  BtnTouchpad,

	evdev.BTN_DPAD_UP:    BtnDpadUp,
	evdev.BTN_DPAD_DOWN:  BtnDpadDown,
	evdev.BTN_DPAD_LEFT:  BtnDpadLeft,
	evdev.BTN_DPAD_RIGHT: BtnDpadRight,
}

// Apply folds one record into st according to the pad's layout and calibrated
// ranges. It reports whether the record was a SYN_REPORT, i.e. st is now a
// complete, consistent frame ready to push.
func Apply(st *State, layout Layout, ranges map[uint16]Range, threshold uint8, ev evdev.Event) bool {
	switch ev.Type {
	case evdev.EV_KEY:
		bit, ok := buttonBits[ev.Code]
		if !ok {
			return false
		}
		if ev.Value != 0 {
			st.Buttons |= bit
		} else {
			st.Buttons &^= bit
		}

	case evdev.EV_ABS:
		applyAbs(st, layout, ranges, threshold, ev.Code, ev.Value)

	case evdev.EV_SYN:
		return ev.Code == evdev.SYN_REPORT
	}
	return false
}

func applyAbs(st *State, layout Layout, ranges map[uint16]Range, threshold uint8, code uint16, raw int32) {
	switch code {
	case evdev.ABS_X:
		st.LX = normalize(ranges, code, raw)
	case evdev.ABS_Y:
		st.LY = normalize(ranges, code, raw)

	case evdev.ABS_HAT0X:
		applyHat(st, raw, BtnDpadLeft, BtnDpadRight)
	case evdev.ABS_HAT0Y:
		applyHat(st, raw, BtnDpadUp, BtnDpadDown)

	default:
		if layout == LayoutGasBrake {
			// Right stick lives on Z/RZ, triggers on GAS/BRAKE.
			switch code {
			case evdev.ABS_Z:
				st.RX = normalize(ranges, code, raw)
			case evdev.ABS_RZ:
				st.RY = normalize(ranges, code, raw)
			case evdev.ABS_GAS:
				st.L2 = normalize(ranges, code, raw)
				applyTriggerBit(st, st.L2, threshold, BtnL2)
			case evdev.ABS_BRAKE:
				st.R2 = normalize(ranges, code, raw)
				applyTriggerBit(st, st.R2, threshold, BtnR2)
			}
			return
		}
		switch code {
		case evdev.ABS_RX:
			st.RX = normalize(ranges, code, raw)
		case evdev.ABS_RY:
			st.RY = normalize(ranges, code, raw)
		case evdev.ABS_Z:
			st.L2 = normalize(ranges, code, raw)
			applyTriggerBit(st, st.L2, threshold, BtnL2)
		case evdev.ABS_RZ:
			st.R2 = normalize(ranges, code, raw)
			applyTriggerBit(st, st.R2, threshold, BtnR2)
		}
	}
}

// normalize scales against the calibrated range, or passes the raw value
// through (clamped) when no range is known for the axis.
func normalize(ranges map[uint16]Range, code uint16, raw int32) uint8 {
	r, ok := ranges[code]
	if !ok {
		return clamp8(int64(raw))
	}
	return Normalize(raw, r)
}

// applyTriggerBit synthesizes a button press from an analog trigger crossing
// the deadzone threshold.
func applyTriggerBit(st *State, value, threshold uint8, bit uint32) {
	if value > threshold {
		st.Buttons |= bit
	} else {
		st.Buttons &^= bit
	}
}

// applyHat translates one hat axis into its directional bit pair by sign,
// clearing both before setting.
func applyHat(st *State, raw int32, negBit, posBit uint32) {
	st.Buttons &^= negBit | posBit
	switch {
	case raw < 0:
		st.Buttons |= negBit
	case raw > 0:
		st.Buttons |= posBit
	}
}
