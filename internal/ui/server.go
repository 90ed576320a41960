package ui

// Inbound WebSocket surface: the JSON panel socket (/ws) and the binary
// remote-input socket (/input).
//
// Remote-input wire format: a single leading byte selects the message type,
// multi-byte integers are little-endian to match the evdev wire format.

import (
	"encoding/binary"
	"net/http"

	"github.com/gorilla/websocket"
)

// Remote-input message types
const (
	MsgMouseMove  = 0x01 // int16 dx, int16 dy
	MsgClick      = 0x02 // uint8 button, uint8 pressed
	MsgScroll     = 0x03 // int16 delta
	MsgRawKey     = 0x04 // uint16 keycode, uint8 pressed
	MsgTextInsert = 0x05 // UTF-8 bytes follow
	MsgSpecialKey = 0x06 // uint8 id
)

// Backend is the control surface the sockets drive; the application context
// implements it.
type Backend interface {
	FullState() FullState
	Command(c Command) Result

	MouseMove(dx, dy int16)
	MouseButton(button uint8, pressed bool)
	Scroll(delta int16)
	RawKey(code uint16, pressed bool)
	InsertText(text string)
	SpecialKey(id uint8)
}

// Server serves the two sockets and owns the upgrade policy.
type Server struct {
	hub      *Hub
	backend  Backend
	upgrader websocket.Upgrader
}

func NewServer(hub *Hub, backend Backend) *Server {
	return &Server{
		hub:     hub,
		backend: backend,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// LAN-local panel; the kiosk fronts no untrusted origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Routes mounts both endpoints.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handlePanel)
	mux.HandleFunc("/input", s.handleInput)
	return mux
}

// handlePanel attaches an observer, replies with the full snapshot and then
// serves control commands until the socket dies.
func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("panel upgrade: %v", err)
		return
	}
	o := s.hub.add(conn)
	defer s.hub.remove(o)

	if err := o.send(s.backend.FullState()); err != nil {
		return
	}

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("panel read: %v", err)
			}
			return
		}
		res := s.backend.Command(cmd)
		if err := o.send(res); err != nil {
			return
		}
	}
}

// handleInput serves the binary remote-input protocol. Malformed frames are
// rejected per-frame; they never kill the socket.
func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("input upgrade: %v", err)
		return
	}
	defer conn.Close()
	logger.Debug("remote-input client connected")

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			logger.Debug("remote-input client disconnected")
			return
		}
		if mt != websocket.BinaryMessage || len(data) < 1 {
			continue
		}
		s.dispatchInput(data[0], data[1:])
	}
}

func (s *Server) dispatchInput(msgType byte, payload []byte) {
	switch msgType {
	case MsgMouseMove:
		if len(payload) < 4 {
			return
		}
		dx := int16(binary.LittleEndian.Uint16(payload[0:2]))
		dy := int16(binary.LittleEndian.Uint16(payload[2:4]))
		s.backend.MouseMove(dx, dy)

	case MsgClick:
		if len(payload) < 2 {
			return
		}
		s.backend.MouseButton(payload[0], payload[1] != 0)

	case MsgScroll:
		if len(payload) < 2 {
			return
		}
		s.backend.Scroll(int16(binary.LittleEndian.Uint16(payload[0:2])))

	case MsgRawKey:
		if len(payload) < 3 {
			return
		}
		s.backend.RawKey(binary.LittleEndian.Uint16(payload[0:2]), payload[2] != 0)

	case MsgTextInsert:
		if len(payload) == 0 {
			return
		}
		s.backend.InsertText(string(payload))

	case MsgSpecialKey:
		if len(payload) < 1 {
			return
		}
		s.backend.SpecialKey(payload[0])

	default:
		logger.Debugf("unknown remote-input message type 0x%02x", msgType)
	}
}
