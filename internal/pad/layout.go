package pad

// Axis-layout conventions. Two incompatible families exist in the wild:
// most pads put the right stick on RX/RY and the analog triggers on Z/RZ,
// but some (typically Android-profile bluetooth pads) put the right stick
// on Z/RZ and the triggers on GAS/BRAKE.

import "padbridge/internal/evdev"

// Layout is the convention a controller reports with. Decided once at
// assignment time from the declared capability bitmask and cached on the
// slot; a pad is never re-classified mid-session.
type Layout int

const (
	// LayoutStandard: right stick on RX/RY, triggers on Z/RZ.
	LayoutStandard Layout = iota
	// LayoutGasBrake: right stick on Z/RZ, triggers on GAS/BRAKE.
	LayoutGasBrake
)

func (l Layout) String() string {
	if l == LayoutGasBrake {
		return "gas_brake"
	}
	return "standard"
}

// DetectLayout classifies a pad by capability: a device lacking ABS_RX but
// declaring ABS_GAS uses the gas/brake convention.
func DetectLayout(absBitmask uint64) Layout {
	hasRX := absBitmask&(1<<evdev.ABS_RX) != 0
	hasGas := absBitmask&(1<<evdev.ABS_GAS) != 0
	if !hasRX && hasGas {
		return LayoutGasBrake
	}
	return LayoutStandard
}
