package devices

// Presentation-only classification helpers. Pure functions of Detected fields;
// the UI layer uses these for labels and glyphs.

import "strings"

// Known controller vendors
const (
	VendorSony      = 0x054c
	VendorMicrosoft = 0x045e
	VendorNintendo  = 0x057e
	Vendor8BitDo    = 0x2dc8
)

// Brand is a closed set of display labels.
type Brand string

const (
	BrandSony      Brand = "sony"
	BrandMicrosoft Brand = "microsoft"
	BrandNintendo  Brand = "nintendo"
	Brand8BitDo    Brand = "8bitdo"
	BrandGeneric   Brand = "generic"
)

// Connection classifies the bus for display.
type Connection string

const (
	ConnBluetooth Connection = "bluetooth"
	ConnUSB       Connection = "usb"
	ConnOther     Connection = "other"
)

// BrandOf labels a controller by vendor id, falling back to name substrings
// for clones that reuse a first-party name with a different id.
func BrandOf(d Detected) Brand {
	switch d.Vendor {
	case VendorSony:
		return BrandSony
	case VendorMicrosoft:
		return BrandMicrosoft
	case VendorNintendo:
		return BrandNintendo
	case Vendor8BitDo:
		return Brand8BitDo
	}

	name := strings.ToLower(d.Name)
	switch {
	case strings.Contains(name, "dualshock"),
		strings.Contains(name, "dualsense"),
		strings.Contains(name, "wireless controller"):
		return BrandSony
	case strings.Contains(name, "x-box"), strings.Contains(name, "xbox"):
		return BrandMicrosoft
	case strings.Contains(name, "8bitdo"):
		return Brand8BitDo
	case strings.Contains(name, "nintendo"), strings.Contains(name, "pro controller"):
		return BrandNintendo
	}
	return BrandGeneric
}

// ConnectionOf maps the bus type into the small set the panel shows.
func ConnectionOf(d Detected) Connection {
	switch d.Bus {
	case BusBluetooth:
		return ConnBluetooth
	case BusUSB:
		return ConnUSB
	}
	return ConnOther
}

// Icon picks the glyph name the controller list renders next to a device.
func Icon(d Detected) string {
	switch BrandOf(d) {
	case BrandSony:
		return "playstation"
	case BrandMicrosoft:
		return "xbox"
	case BrandNintendo:
		return "nintendo"
	}
	return "gamepad"
}
