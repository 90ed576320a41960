package main

// Synthetic HID helper: owns a virtual mouse+keyboard created via /dev/uinput
// and replays 24-byte input_event records read from stdin. The wire layout is
// exactly what internal/evdev encodes; the helper forwards records verbatim,
// stamping nothing.
//
// Runs as a separate always-on process so the bridge can drop privileges and
// so a bridge restart does not churn the virtual device.

import (
	"encoding/binary"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"padbridge/internal/evdev"
)

const (
	deviceName = "Kiosk Virtual Mouse"
	keyMax     = 0x2ff
)

// uinput ioctl numbers from <linux/uinput.h>; golang.org/x/sys/unix does not
// export these.
const (
	UI_SET_EVBIT   = 0x40045564
	UI_SET_KEYBIT  = 0x40045565
	UI_SET_RELBIT  = 0x40045566
	UI_DEV_CREATE  = 0x5501
	UI_DEV_DESTROY = 0x5502
)

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// uinputUserDev mirrors struct uinput_user_dev (legacy setup interface).
type uinputUserDev struct {
	Name         [80]byte
	ID           inputID
	FFEffectsMax uint32
	Absmax       [64]int32
	Absmin       [64]int32
	Absfuzz      [64]int32
	Absflat      [64]int32
}

func main() {
	f, err := os.OpenFile("/dev/uinput", os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		log.Fatalf("open /dev/uinput: %v", err)
	}
	fd := int(f.Fd())

	if err := configure(f, fd); err != nil {
		log.Fatalf("uinput setup: %v", err)
	}
	log.Info("virtual device created")

	// Destroy the device on signal; a vanishing bridge (EOF on stdin) tears
	// down the same way. SIGPIPE on the uinput fd is not interesting.
	signal.Ignore(syscall.SIGPIPE)
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		destroy(f, fd)
		os.Exit(0)
	}()

	replay(os.Stdin, f)
	destroy(f, fd)
}

func configure(f *os.File, fd int) error {
	if err := unix.IoctlSetInt(fd, UI_SET_EVBIT, evdev.EV_REL); err != nil {
		return err
	}
	for _, rel := range []int{evdev.REL_X, evdev.REL_Y, evdev.REL_WHEEL} {
		if err := unix.IoctlSetInt(fd, UI_SET_RELBIT, rel); err != nil {
			return err
		}
	}
	if err := unix.IoctlSetInt(fd, UI_SET_EVBIT, evdev.EV_KEY); err != nil {
		return err
	}
	for _, btn := range []int{evdev.BTN_LEFT, evdev.BTN_RIGHT, evdev.BTN_MIDDLE} {
		if err := unix.IoctlSetInt(fd, UI_SET_KEYBIT, btn); err != nil {
			return err
		}
	}
	// Whole keyboard range, so raw browser keycodes pass straight through.
	for k := 1; k < keyMax; k++ {
		_ = unix.IoctlSetInt(fd, UI_SET_KEYBIT, k)
	}

	var setup uinputUserDev
	copy(setup.Name[:], deviceName)
	setup.ID.Bustype = unix.BUS_VIRTUAL
	setup.ID.Vendor = 0x1234
	setup.ID.Product = 0xabcd
	setup.ID.Version = 1
	if err := binary.Write(f, binary.LittleEndian, &setup); err != nil {
		return err
	}
	return unix.IoctlSetInt(fd, UI_DEV_CREATE, 0)
}

// replay forwards whole records from the bridge to the kernel, dropping
// partial trailing input on EOF.
func replay(r io.Reader, w io.Writer) {
	buf := make([]byte, evdev.EventSize)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return
		}
		if _, err := w.Write(buf); err != nil {
			log.Errorf("uinput write: %v", err)
			return
		}
	}
}

func destroy(f *os.File, fd int) {
	_ = unix.IoctlSetInt(fd, UI_DEV_DESTROY, 0)
	_ = f.Close()
}
