package pad

// Per-axis range calibration. The hardware-reported EVIOCGABS range is the
// primary source; pads that cannot be queried fall back to vendor-informed
// static defaults. Computed once at assignment time and held for the life of
// the assignment.

import (
	"padbridge/internal/devices"
	"padbridge/internal/evdev"
)

// Range is the hardware-reported bound of one absolute axis.
type Range struct {
	Min int32
	Max int32
}

// calibratedAxes are the ten axis codes the bridge cares about.
var calibratedAxes = []uint16{
	evdev.ABS_X, evdev.ABS_Y,
	evdev.ABS_Z, evdev.ABS_RX, evdev.ABS_RY, evdev.ABS_RZ,
	evdev.ABS_GAS, evdev.ABS_BRAKE,
	evdev.ABS_HAT0X, evdev.ABS_HAT0Y,
}

// Calibrate queries the range of each relevant axis on an open event device.
// Axes the device does not report are omitted (sparse map). An unqueryable
// device (fd < 0 or every query refused) degrades to FallbackRanges; logged
// once per device, never an error.
func Calibrate(fd int, d devices.Detected) map[uint16]Range {
	ranges := make(map[uint16]Range)
	if fd >= 0 {
		for _, code := range calibratedAxes {
			info, err := evdev.GetAbsInfo(fd, int(code))
			if err != nil {
				continue
			}
			ranges[code] = Range{Min: info.Min, Max: info.Max}
		}
	}
	if len(ranges) == 0 {
		logger.WithField("device", d.Name).Warn("axis query unavailable, using fallback ranges")
		return FallbackRanges(d.Vendor)
	}
	return ranges
}

// FallbackRanges returns static defaults for pads whose hardware range cannot
// be read. First-party Sony pads report every channel 0-255; everything else
// is assumed to use signed 16-bit sticks and 0-1023 triggers. Hat axes are
// always -1..1.
func FallbackRanges(vendor uint16) map[uint16]Range {
	stick := Range{Min: -32768, Max: 32767}
	trigger := Range{Min: 0, Max: 1023}
	if vendor == devices.VendorSony {
		stick = Range{Min: 0, Max: 255}
		trigger = Range{Min: 0, Max: 255}
	}
	hat := Range{Min: -1, Max: 1}

	return map[uint16]Range{
		evdev.ABS_X:     stick,
		evdev.ABS_Y:     stick,
		evdev.ABS_RX:    stick,
		evdev.ABS_RY:    stick,
		evdev.ABS_Z:     trigger,
		evdev.ABS_RZ:    trigger,
		evdev.ABS_GAS:   trigger,
		evdev.ABS_BRAKE: trigger,
		evdev.ABS_HAT0X: hat,
		evdev.ABS_HAT0Y: hat,
	}
}

// Normalize scales a raw axis value into 0-255 against r: Min maps to 0, Max
// to 255, the midpoint to 128. Values outside the range clamp.
func Normalize(v int32, r Range) uint8 {
	span := int64(r.Max) - int64(r.Min)
	if span <= 0 {
		return clamp8(int64(v))
	}
	n := (int64(v-r.Min)*256 + span/2) / span
	return clamp8(n)
}

func clamp8(v int64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
