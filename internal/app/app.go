package app

// The application context: explicit owner of the process-wide singletons (the
// four pad slots, the console link, the observer hub, the HID bridge). All
// mutation of those resources funnels through here, which keeps the
// single-writer-per-resource invariant and makes the pieces testable in
// isolation.

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"padbridge/internal/console"
	"padbridge/internal/devices"
	"padbridge/internal/hid"
	"padbridge/internal/pad"
	"padbridge/internal/ui"
)

var logger = log.WithField("comp", "app")

var (
	ErrUnknownDevice  = errors.New("device not detected")
	ErrUnknownCommand = errors.New("unknown command")
)

// Config carries the tunables. The trigger threshold and tick interval are
// defaults, not invariants; nothing downstream depends on their exact values.
type Config struct {
	UIPort           int
	ScanInterval     time.Duration
	TickInterval     time.Duration
	TriggerThreshold uint8
	HelperPath       string
}

// DefaultConfig returns the shipped defaults.
func DefaultConfig() Config {
	return Config{
		UIPort:           3458,
		ScanInterval:     2 * time.Second,
		TickInterval:     100 * time.Millisecond,
		TriggerThreshold: pad.DefaultTriggerThreshold,
		HelperPath:       "uinput-hid",
	}
}

// Bridge is the assembled controller-input bridge.
type Bridge struct {
	cfg     Config
	mux     *pad.Mux
	console *console.Client
	hub     *ui.Hub
	hid     *hid.Bridge

	mu          sync.Mutex
	controllers []devices.Detected
}

// New wires the components together. The HID helper is spawned immediately;
// the console link stays down until a connect command arrives.
func New(cfg Config) *Bridge {
	b := &Bridge{cfg: cfg, hub: ui.NewHub()}
	b.console = console.NewClient(b.onConsoleStatus)
	b.mux = pad.NewMux(
		pad.SinkFunc(b.console.SendPadUpdate),
		cfg.TriggerThreshold,
		b.onSlotChanged,
	)
	b.hid = hid.Start(cfg.HelperPath)
	return b
}

// Run serves until ctx is cancelled. Handled I/O errors never exit the
// process; only the signal context does.
func (b *Bridge) Run(ctx context.Context) error {
	b.rescan()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", b.cfg.UIPort),
		Handler: ui.NewServer(b.hub, b).Routes(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("port", b.cfg.UIPort).Info("ui listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		b.console.Disconnect()
		b.mux.Close()
		b.hid.Close()
		return ctx.Err()
	})
	g.Go(func() error { return b.scanLoop(ctx) })
	g.Go(func() error { return b.tickLoop(ctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// scanLoop re-enumerates controllers on a fixed interval and reconciles the
// slots against the result (hot-unplug detection).
func (b *Bridge) scanLoop(ctx context.Context) error {
	t := time.NewTicker(b.cfg.ScanInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			b.rescan()
		}
	}
}

// tickLoop broadcasts the live state of active slots at a fixed cadence so
// the panel can render stick/trigger positions without per-event chatter.
func (b *Bridge) tickLoop(ctx context.Context) error {
	t := time.NewTicker(b.cfg.TickInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if b.hub.Count() == 0 {
				continue
			}
			b.hub.Broadcast(b.padStates())
		}
	}
}

func (b *Bridge) padStates() ui.PadStatesMsg {
	snap := b.mux.Snapshot()
	msg := ui.PadStatesMsg{Type: "padStates", MessageCount: b.mux.Frames()}
	for _, info := range snap {
		if info.Active {
			msg.Pads = append(msg.Pads, info)
		}
	}
	return msg
}

// rescan regenerates the controller list wholesale and diffs by event path
// only; content changes inside a block do not count as a change.
func (b *Bridge) rescan() {
	list := devices.Scan()

	present := make(map[string]bool, len(list))
	for _, d := range list {
		present[d.EventPath] = true
	}

	b.mu.Lock()
	changed := len(list) != len(b.controllers)
	if !changed {
		for _, d := range b.controllers {
			if !present[d.EventPath] {
				changed = true
				break
			}
		}
	}
	b.controllers = list
	b.mu.Unlock()

	b.mux.Reconcile(present)

	if changed {
		logger.WithField("count", len(list)).Info("controller list changed")
		b.hub.Broadcast(ui.ControllersMsg{Type: "controllers", Controllers: b.controllerViews()})
	}
}

func (b *Bridge) controllerViews() []ui.ControllerView {
	b.mu.Lock()
	defer b.mu.Unlock()
	views := make([]ui.ControllerView, 0, len(b.controllers))
	for _, d := range b.controllers {
		views = append(views, ui.ViewOf(d))
	}
	return views
}

func (b *Bridge) lookupDevice(path string) (devices.Detected, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.controllers {
		if d.EventPath == path {
			return d, true
		}
	}
	return devices.Detected{}, false
}

// onSlotChanged pushes the single-slot change notice.
func (b *Bridge) onSlotChanged(slot int) {
	b.hub.Broadcast(ui.PadAssignmentMsg{Type: "padAssignment", Pad: b.mux.SlotInfo(slot)})
}

// onConsoleStatus pushes console link transitions.
func (b *Bridge) onConsoleStatus(connected bool, host string, port int) {
	b.hub.Broadcast(ui.PS4StatusMsg{Type: "ps4Status", PS4: ui.PS4StatusBody{
		Connected: connected, Host: host, Port: port,
	}})
}

// FullState implements ui.Backend: the snapshot a new observer receives.
func (b *Bridge) FullState() ui.FullState {
	host, port := b.console.Target()
	return ui.FullState{
		Type: "fullState",
		PS4: ui.PS4StatusBody{
			Connected: b.console.Connected(),
			Host:      host,
			Port:      port,
		},
		Controllers:  b.controllerViews(),
		Pads:         b.mux.Snapshot(),
		MessageCount: b.mux.Frames(),
	}
}

// Command implements ui.Backend: the panel's control verbs. Invalid requests
// fail synchronously with an explicit error result and no process-wide
// effect.
func (b *Bridge) Command(c ui.Command) ui.Result {
	switch c.Cmd {
	case "connect":
		if err := b.console.Connect(c.Host, c.Port); err != nil {
			return errResult(c, err)
		}
		return okResult(c)

	case "disconnect":
		b.console.Disconnect()
		return okResult(c)

	case "assign":
		d, ok := b.lookupDevice(c.Path)
		if !ok {
			return errResult(c, errors.Wrap(ErrUnknownDevice, c.Path))
		}
		if err := b.mux.Assign(c.Slot, d); err != nil {
			return errResult(c, err)
		}
		return okResult(c)

	case "unassign":
		if err := b.mux.Unassign(c.Slot); err != nil {
			return errResult(c, err)
		}
		return okResult(c)

	case "info":
		info := b.console.RequestInfo()
		if info == nil {
			return errResult(c, errors.New("info timeout"))
		}
		b.hub.Broadcast(ui.PS4VersionMsg{Type: "ps4Version", Version: info.Version})
		return okResult(c)
	}
	return errResult(c, errors.Wrap(ErrUnknownCommand, c.Cmd))
}

func okResult(c ui.Command) ui.Result {
	return ui.Result{Type: "result", Cmd: c.Cmd, OK: true}
}

func errResult(c ui.Command, err error) ui.Result {
	return ui.Result{Type: "result", Cmd: c.Cmd, OK: false, Error: err.Error()}
}

// Remote-input path (ui.Backend). Mouse/raw-key actions drive the virtual
// HID device; text and special keys go to the console injector.

func (b *Bridge) MouseMove(dx, dy int16) { b.hid.MouseMove(int32(dx), int32(dy)) }

func (b *Bridge) MouseButton(button uint8, pressed bool) { b.hid.MouseButton(button, pressed) }

func (b *Bridge) Scroll(delta int16) { b.hid.Scroll(int32(delta)) }

func (b *Bridge) RawKey(code uint16, pressed bool) { b.hid.Key(code, pressed) }

func (b *Bridge) InsertText(text string) { b.console.InsertText(text) }

func (b *Bridge) SpecialKey(id uint8) { b.console.DispatchKey(console.SpecialKey(id)) }
