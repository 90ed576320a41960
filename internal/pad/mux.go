package pad

// The four-slot multiplexer. Owns assignment, hot-unplug cleanup and the
// per-slot stream reader goroutine. All four slots exist for the life of the
// process; assignment fills them in place and unassignment empties them.
//
// Invariant: at most one slot reads a given event path at any time.

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"padbridge/internal/devices"
	"padbridge/internal/evdev"
)

// SlotCount is fixed by the console protocol.
const SlotCount = 4

var (
	ErrBadSlot = errors.New("slot index out of range")
)

var logger = log.WithField("comp", "pad")

// Sink receives one consistent frame per SYN_REPORT. Pushes are best-effort;
// the sink must not block for long.
type Sink interface {
	PadFrame(slot int, st State)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(slot int, st State)

func (f SinkFunc) PadFrame(slot int, st State) { f(slot, st) }

// Slot is one logical pad position. Fields are guarded by the Mux mutex
// except work, which belongs to the reader goroutine alone.
type Slot struct {
	Index  int
	Device *devices.Detected
	Layout Layout
	Ranges map[uint16]Range
	State  State
	Active bool

	file *os.File // open stream handle; nil when empty
}

// Info is the JSON-facing snapshot of one slot.
type Info struct {
	Slot       int               `json:"slot"`
	Active     bool              `json:"active"`
	Controller *devices.Detected `json:"controller,omitempty"`
	Layout     string            `json:"layout,omitempty"`
	State      State             `json:"state"`
}

// Mux multiplexes up to four controllers into the four pad slots.
type Mux struct {
	mu    sync.Mutex
	slots [SlotCount]*Slot
	sink  Sink

	// notify is invoked (outside the lock) whenever a slot's assignment
	// changes, including hot-unplug.
	notify func(slot int)

	threshold uint8
	frames    atomic.Uint64

	// open is swapped out by tests to feed crafted streams.
	open func(path string) (*os.File, error)
}

// NewMux creates the four empty slots.
func NewMux(sink Sink, threshold uint8, notify func(slot int)) *Mux {
	m := &Mux{
		sink:      sink,
		notify:    notify,
		threshold: threshold,
		open: func(path string) (*os.File, error) {
			return os.OpenFile(path, os.O_RDONLY, 0)
		},
	}
	for i := range m.slots {
		m.slots[i] = &Slot{Index: i, State: Rest()}
	}
	return m
}

// Frames is the monotonic count of synchronized frames pushed downstream.
func (m *Mux) Frames() uint64 { return m.frames.Load() }

// Assign binds a device to a slot: vacates any slot already reading the same
// event path, vacates the target slot, calibrates, classifies the axis layout
// and starts the stream reader.
func (m *Mux) Assign(idx int, d devices.Detected) error {
	if idx < 0 || idx >= SlotCount {
		return ErrBadSlot
	}

	m.mu.Lock()
	var vacated []int
	for i, s := range m.slots {
		if i != idx && s.Device != nil && s.Device.EventPath == d.EventPath {
			m.stopLocked(s)
			vacated = append(vacated, i)
		}
	}
	if m.slots[idx].Device != nil {
		m.stopLocked(m.slots[idx])
	}

	f, err := m.open(d.EventPath)
	if err != nil {
		m.mu.Unlock()
		m.fanNotify(vacated)
		return errors.Wrapf(err, "open %s", d.EventPath)
	}

	s := m.slots[idx]
	dev := d
	s.Device = &dev
	s.Layout = DetectLayout(d.AbsBitmask)
	s.Ranges = Calibrate(int(f.Fd()), d)
	s.State = Rest()
	s.Active = true
	s.file = f
	m.mu.Unlock()

	logger.WithFields(log.Fields{
		"slot": idx, "device": d.Name, "layout": s.Layout.String(),
	}).Info("pad assigned")

	go m.runReader(s, f)

	m.fanNotify(vacated)
	m.notify(idx)
	return nil
}

// Unassign empties a slot. Idempotent; unassigning an empty slot is a no-op.
func (m *Mux) Unassign(idx int) error {
	if idx < 0 || idx >= SlotCount {
		return ErrBadSlot
	}
	m.mu.Lock()
	s := m.slots[idx]
	occupied := s.Device != nil
	if occupied {
		m.stopLocked(s)
	}
	m.mu.Unlock()
	if occupied {
		logger.WithField("slot", idx).Info("pad unassigned")
		m.notify(idx)
	}
	return nil
}

// Reconcile force-unassigns every slot whose device's event path is no longer
// present. Called after each enumerator scan.
func (m *Mux) Reconcile(present map[string]bool) {
	m.mu.Lock()
	var gone []int
	for i, s := range m.slots {
		if s.Device != nil && !present[s.Device.EventPath] {
			logger.WithFields(log.Fields{"slot": i, "path": s.Device.EventPath}).Info("pad unplugged")
			m.stopLocked(s)
			gone = append(gone, i)
		}
	}
	m.mu.Unlock()
	m.fanNotify(gone)
}

// Snapshot returns the current slot states for the UI.
func (m *Mux) Snapshot() [SlotCount]Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [SlotCount]Info
	for i, s := range m.slots {
		out[i] = Info{Slot: i, Active: s.Active, State: s.State}
		if s.Device != nil {
			dev := *s.Device
			out[i].Controller = &dev
			out[i].Layout = s.Layout.String()
		}
	}
	return out
}

// SlotInfo returns the snapshot of a single slot.
func (m *Mux) SlotInfo(idx int) Info {
	return m.Snapshot()[idx]
}

// Close empties every slot.
func (m *Mux) Close() {
	for i := 0; i < SlotCount; i++ {
		_ = m.Unassign(i)
	}
}

// stopLocked empties a slot: closes the stream (which unblocks its reader),
// clears the device and resets state to rest values so stale non-zero state
// is never broadcast after disconnection.
func (m *Mux) stopLocked(s *Slot) {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	s.Device = nil
	s.Ranges = nil
	s.Layout = LayoutStandard
	s.Active = false
	s.State = Rest()
}

func (m *Mux) fanNotify(slots []int) {
	for _, i := range slots {
		m.notify(i)
	}
}

// runReader parses the slot's raw event stream until the handle dies. Records
// mutate a reader-private working state; only a SYN_REPORT publishes it, so
// downstream never observes a torn mid-update frame.
func (m *Mux) runReader(s *Slot, f *os.File) {
	parser := &evdev.Parser{}
	work := Rest()
	layout := s.Layout
	ranges := s.Ranges
	buf := make([]byte, 4096)

	for {
		n, err := f.Read(buf)
		if err != nil {
			break
		}
		parser.Feed(buf[:n], func(ev evdev.Event) {
			if !Apply(&work, layout, ranges, m.threshold, ev) {
				return
			}
			m.mu.Lock()
			if s.file != f {
				// Slot was reassigned under us; drop the frame.
				m.mu.Unlock()
				return
			}
			s.State = work
			idx := s.Index
			m.mu.Unlock()

			m.frames.Add(1)
			m.sink.PadFrame(idx, work)
		})
	}

	// Stream error (device unplugged mid-read) cleans up exactly like an
	// explicit stop, unless the slot has already moved on.
	m.mu.Lock()
	if s.file == f {
		logger.WithField("slot", s.Index).Warn("pad stream closed")
		m.stopLocked(s)
		m.mu.Unlock()
		m.notify(s.Index)
		return
	}
	m.mu.Unlock()
}
