package devices

// Device enumeration from /proc/bus/input/devices.
//
// A device qualifies as a controller when its handler set carries both a
// legacy joystick handler (jsN) and a raw event handler (eventN). The scan
// result is regenerated wholesale every interval; callers diff successive
// results by event path only.

import (
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const registryPath = "/proc/bus/input/devices"

// Bus types (linux/input.h)
const (
	BusUSB       = 0x03
	BusBluetooth = 0x05
)

// Detected is an immutable identity snapshot of one physical input device at
// scan time.
type Detected struct {
	Name      string `json:"name"`
	EventPath string `json:"path"`
	Vendor    uint16 `json:"vendor"`
	Product   uint16 `json:"product"`
	Uniq      string `json:"uniq"` // MAC for bluetooth pads, empty otherwise
	Bus       uint16 `json:"bus"`

	// AbsBitmask is the declared absolute-axis capability ("B: ABS=" line).
	// Zero when the registry omits it, which forces fallback axis ranges.
	AbsBitmask uint64 `json:"-"`
}

var logger = log.WithField("comp", "devices")

// Scan reads the input-device registry and returns every controller it can
// see. An unreadable registry yields an empty list, never an error.
func Scan() []Detected {
	b, err := os.ReadFile(registryPath)
	if err != nil {
		logger.Warnf("registry unreadable: %v", err)
		return nil
	}
	return Parse(string(b))
}

// Parse splits registry text into per-device blocks and extracts controllers.
func Parse(text string) []Detected {
	var out []Detected
	for _, blk := range strings.Split(text, "\n\n") {
		if d, ok := parseBlock(blk); ok {
			out = append(out, d)
		}
	}
	return out
}

func parseBlock(blk string) (Detected, bool) {
	var d Detected
	var handlers []string
	for _, line := range strings.Split(blk, "\n") {
		switch {
		case strings.HasPrefix(line, "I: "):
			for _, field := range strings.Fields(line[3:]) {
				kv := strings.SplitN(field, "=", 2)
				if len(kv) != 2 {
					continue
				}
				v, err := strconv.ParseUint(kv[1], 16, 16)
				if err != nil {
					continue
				}
				switch kv[0] {
				case "Bus":
					d.Bus = uint16(v)
				case "Vendor":
					d.Vendor = uint16(v)
				case "Product":
					d.Product = uint16(v)
				}
			}
		case strings.HasPrefix(line, "N: Name="):
			d.Name = strings.Trim(line[len("N: Name="):], " \"")
		case strings.HasPrefix(line, "U: Uniq="):
			d.Uniq = strings.TrimSpace(line[len("U: Uniq="):])
		case strings.HasPrefix(line, "H: Handlers="):
			handlers = strings.Fields(line[len("H: Handlers="):])
		case strings.HasPrefix(line, "B: ABS="):
			d.AbsBitmask = parseBitmask(line[len("B: ABS="):])
		}
	}

	js := false
	ev := ""
	for _, h := range handlers {
		switch {
		case strings.HasPrefix(h, "js"):
			js = true
		case strings.HasPrefix(h, "event"):
			ev = h
		}
	}
	if !js || ev == "" {
		return Detected{}, false
	}
	d.EventPath = "/dev/input/" + ev
	return d, true
}

// parseBitmask folds the space-separated hex words of a capability line into
// one 64-bit mask. The kernel prints words most-significant first, sized by
// its native long: 32-bit kernels emit up-to-8-digit words, 64-bit kernels
// up-to-16-digit words. ABS codes fit in 64 bits either way.
func parseBitmask(s string) uint64 {
	words := strings.Fields(s)
	wordBits := uint(32)
	for _, w := range words {
		if len(w) > 8 {
			wordBits = 64
		}
	}
	var mask uint64
	for _, w := range words {
		v, err := strconv.ParseUint(w, 16, 64)
		if err != nil {
			return 0
		}
		if wordBits >= 64 {
			mask = v
		} else {
			mask = mask<<wordBits | v
		}
	}
	return mask
}
