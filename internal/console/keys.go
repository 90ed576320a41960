package console

// Remote keystroke injection over the companion low-level channel. Two
// primitives only: bulk text insertion (used by the UI's diffed on-screen
// keyboard) and discrete special-key dispatch. The diffing itself is a UI
// concern and never reaches this package.

// SpecialKey is the enumerated id space for navigation keys. The numeric
// values are the wire contract with the remote-input UI (message 0x06).
type SpecialKey uint8

const (
	KeyBackspace SpecialKey = iota
	KeyEnter
	KeyDelete
	KeyTab
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd

	specialKeyCount
)

var specialKeyNames = [specialKeyCount]string{
	"backspace", "enter", "delete", "tab", "escape",
	"up", "down", "left", "right", "home", "end",
}

// Valid reports whether k is within the enumerated table.
func (k SpecialKey) Valid() bool { return k < specialKeyCount }

func (k SpecialKey) String() string {
	if !k.Valid() {
		return "invalid"
	}
	return specialKeyNames[k]
}

// InsertText pushes bulk text into the console's focused input field.
// Fire-and-forget; dropped while the keystroke channel is down.
func (c *Client) InsertText(text string) {
	c.sendAux(request{Method: "insert", Params: []interface{}{text}})
}

// DispatchKey sends the down+up pair for one special key.
func (c *Client) DispatchKey(k SpecialKey) {
	if !k.Valid() {
		logger.Warnf("special key id out of range: %d", k)
		return
	}
	c.sendAux(request{Method: "key", Params: []interface{}{k.String(), 1}})
	c.sendAux(request{Method: "key", Params: []interface{}{k.String(), 0}})
}

func (c *Client) sendAux(msg request) {
	c.mu.Lock()
	aux := c.aux
	c.mu.Unlock()
	if aux == nil {
		return
	}
	_ = c.write(aux, msg)
}
