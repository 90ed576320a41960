package console

// Persistent outbound RPC link to the remote console.
//
// Wire protocol: one JSON object per WebSocket text frame, shaped
// {"id":N,"method":...,"params":[...]}. Pad updates go out as fire-and-forget
// "u" calls; "info" is request/response, matched back by id with a client-side
// timeout. A companion low-level connection on the same target carries the
// keystroke-injection calls, distinct from the pad-update channel.
//
// Reconnection: any unexpected close schedules one retry after a fixed delay,
// repeating until a successful open or an explicit Disconnect sets the
// intentional-close flag.

import (
	"encoding/json"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"padbridge/internal/pad"
)

// Defaults; overridable per client for tests.
const (
	DefaultReconnectDelay = 3 * time.Second
	DefaultInfoTimeout    = 2 * time.Second
)

// Paths of the two channels on the console target.
const (
	padChannelPath = "/"
	auxChannelPath = "/keys"
)

var logger = log.WithField("comp", "console")

// Info is the console's answer to an "info" call.
type Info struct {
	Version string `json:"version"`
}

// StatusFunc observes connect/disconnect transitions.
type StatusFunc func(connected bool, host string, port int)

type request struct {
	ID     *uint64       `json:"id,omitempty"`
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

type response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
}

// Client is the process-wide console link. The zero target is "not
// connected"; Connect supplies host/port at runtime.
type Client struct {
	mu        sync.Mutex
	conn      *websocket.Conn // pad-update channel
	aux       *websocket.Conn // keystroke channel
	host      string
	port      int
	connected bool
	closing   bool // intentional close; suppresses reconnect
	nextID    uint64
	pending   map[uint64]chan json.RawMessage

	wmu sync.Mutex // serializes writes on both channels

	status StatusFunc

	ReconnectDelay time.Duration
	InfoTimeout    time.Duration

	dialer *websocket.Dialer
}

// NewClient creates a disconnected client. status may be nil.
func NewClient(status StatusFunc) *Client {
	if status == nil {
		status = func(bool, string, int) {}
	}
	return &Client{
		pending:        make(map[uint64]chan json.RawMessage),
		status:         status,
		ReconnectDelay: DefaultReconnectDelay,
		InfoTimeout:    DefaultInfoTimeout,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			NetDialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 15 * time.Second,
			}).DialContext,
		},
	}
}

// Connected reports the pad channel's state.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Target returns the current (host, port) pair, empty before the first
// Connect.
func (c *Client) Target() (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.host, c.port
}

// Connect dials the console. An existing connection to any target is
// intentionally closed and replaced. A failed dial schedules a retry and
// returns the dial error.
func (c *Client) Connect(host string, port int) error {
	c.mu.Lock()
	c.closing = false
	c.host, c.port = host, port
	old, oldAux := c.conn, c.aux
	c.conn, c.aux = nil, nil
	c.connected = false
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	if oldAux != nil {
		_ = oldAux.Close()
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	u := url.URL{Scheme: "ws", Host: addr, Path: padChannelPath}
	conn, _, err := c.dialer.Dial(u.String(), nil)
	if err != nil {
		logger.Warnf("dial %s: %v", addr, err)
		c.scheduleReconnect()
		return errors.Wrap(err, "console dial")
	}

	// The keystroke channel is best-effort; a console without it still
	// accepts pad updates.
	u.Path = auxChannelPath
	aux, _, auxErr := c.dialer.Dial(u.String(), nil)
	if auxErr != nil {
		logger.Warnf("aux dial %s: %v", addr, auxErr)
	}

	c.mu.Lock()
	if c.closing {
		// Disconnect raced the dial.
		c.mu.Unlock()
		_ = conn.Close()
		if aux != nil {
			_ = aux.Close()
		}
		return nil
	}
	c.conn, c.aux = conn, aux
	c.connected = true
	c.mu.Unlock()

	logger.WithField("target", addr).Info("console connected")
	go c.readPump(conn)
	c.status(true, host, port)
	return nil
}

// Disconnect intentionally closes both channels. No reconnect will fire until
// the next Connect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.closing = true
	conn, aux := c.conn, c.aux
	c.conn, c.aux = nil, nil
	was := c.connected
	c.connected = false
	host, port := c.host, c.port
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if aux != nil {
		_ = aux.Close()
	}
	if was {
		logger.Info("console disconnected")
		c.status(false, host, port)
	}
}

// SendPadUpdate pushes one slot's state, fire-and-forget. Silently dropped
// while disconnected; the next synchronized frame supersedes it anyway.
func (c *Client) SendPadUpdate(slot int, st pad.State) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}
	msg := request{Method: "u", Params: []interface{}{
		slot, st.Buttons, st.LX, st.LY, st.RX, st.RY, st.L2, st.R2, 0,
	}}
	_ = c.write(conn, msg)
}

// RequestInfo performs the request/response "info" call. Returns nil, not an
// error, on timeout or while disconnected.
func (c *Client) RequestInfo() *Info {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil
	}
	id := c.nextID
	c.nextID++
	ch := make(chan json.RawMessage, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.write(conn, request{ID: &id, Method: "info", Params: []interface{}{}}); err != nil {
		c.dropPending(id)
		return nil
	}

	select {
	case raw := <-ch:
		var info Info
		if err := json.Unmarshal(raw, &info); err != nil {
			return nil
		}
		return &info
	case <-time.After(c.InfoTimeout):
		c.dropPending(id)
		return nil
	}
}

func (c *Client) dropPending(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) write(conn *websocket.Conn, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// readPump consumes the pad channel: matches responses to pending calls and
// detects the drop.
func (c *Client) readPump(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleDrop(conn, err)
			return
		}
		var resp response
		if err := json.Unmarshal(data, &resp); err != nil {
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- resp.Result
		}
	}
}

// handleDrop treats refused, failed and abruptly-closed connections all the
// same: flip state, broadcast, schedule a retry unless the close was
// intentional.
func (c *Client) handleDrop(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		// Stale pump from a replaced connection.
		c.mu.Unlock()
		return
	}
	c.conn = nil
	aux := c.aux
	c.aux = nil
	c.connected = false
	closing := c.closing
	host, port := c.host, c.port
	c.mu.Unlock()

	_ = conn.Close()
	if aux != nil {
		_ = aux.Close()
	}

	if closing {
		return
	}
	logger.Warnf("console link lost: %v", err)
	c.status(false, host, port)
	c.scheduleReconnect()
}

func (c *Client) scheduleReconnect() {
	time.AfterFunc(c.ReconnectDelay, func() {
		c.mu.Lock()
		if c.closing || c.connected {
			c.mu.Unlock()
			return
		}
		host, port := c.host, c.port
		c.mu.Unlock()
		logger.WithField("target", net.JoinHostPort(host, strconv.Itoa(port))).Info("console reconnecting")
		_ = c.Connect(host, port)
	})
}
