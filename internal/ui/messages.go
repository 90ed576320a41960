package ui

// Tagged-union push messages. Every message carries a "type" discriminator;
// the panel switches on it.

import (
	"padbridge/internal/devices"
	"padbridge/internal/pad"
)

// ControllerView is the display projection of a detected device.
type ControllerView struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Vendor     uint16 `json:"vendor"`
	Product    uint16 `json:"product"`
	Uniq       string `json:"uniq,omitempty"`
	Brand      string `json:"brand"`
	Connection string `json:"connection"`
	Icon       string `json:"icon"`
}

// ViewOf builds the display projection.
func ViewOf(d devices.Detected) ControllerView {
	return ControllerView{
		Name:       d.Name,
		Path:       d.EventPath,
		Vendor:     d.Vendor,
		Product:    d.Product,
		Uniq:       d.Uniq,
		Brand:      string(devices.BrandOf(d)),
		Connection: string(devices.ConnectionOf(d)),
		Icon:       devices.Icon(d),
	}
}

// PS4StatusBody describes the console link.
type PS4StatusBody struct {
	Connected bool   `json:"connected"`
	Host      string `json:"host,omitempty"`
	Port      int    `json:"port,omitempty"`
}

// FullState is pushed once to each newly attached observer.
type FullState struct {
	Type         string                  `json:"type"` // "fullState"
	PS4          PS4StatusBody           `json:"ps4"`
	Controllers  []ControllerView        `json:"controllers"`
	Pads         [pad.SlotCount]pad.Info `json:"pads"`
	MessageCount uint64                  `json:"messageCount"`
}

// ControllersMsg replaces the whole controller list.
type ControllersMsg struct {
	Type        string           `json:"type"` // "controllers"
	Controllers []ControllerView `json:"controllers"`
}

// PadStatesMsg is the periodic tick: live state of active slots only, plus
// the running frame counter.
type PadStatesMsg struct {
	Type         string     `json:"type"` // "padStates"
	Pads         []pad.Info `json:"pads"`
	MessageCount uint64     `json:"messageCount"`
}

// PS4StatusMsg reports a console link transition.
type PS4StatusMsg struct {
	Type string        `json:"type"` // "ps4Status"
	PS4  PS4StatusBody `json:"ps4"`
}

// PS4VersionMsg reports the answer to an "info" call.
type PS4VersionMsg struct {
	Type    string `json:"type"` // "ps4Version"
	Version string `json:"version"`
}

// PadAssignmentMsg reports a single slot's assignment change.
type PadAssignmentMsg struct {
	Type string   `json:"type"` // "padAssignment"
	Pad  pad.Info `json:"pad"`
}

// Command is one control request from the panel.
type Command struct {
	Cmd  string `json:"cmd"`
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
	Slot int    `json:"slot"`
	Path string `json:"path,omitempty"`
}

// Result answers a Command on the same socket.
type Result struct {
	Type  string `json:"type"` // "result"
	Cmd   string `json:"cmd"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
