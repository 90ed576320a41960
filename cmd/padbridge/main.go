package main

// Controller-input bridge entrypoint.
//
// This binary:
// - enumerates joystick devices from the kernel's input registry
// - multiplexes up to four of them into the four logical pad slots
// - forwards each slot's normalized state to the console target over WebSocket
// - serves the panel UI socket and the binary remote-input socket
// - drives the companion uinput helper (virtual mouse/keyboard)
//
// The console target is supplied at runtime through the panel's control API,
// not a startup flag.

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"padbridge/internal/app"
	"padbridge/internal/devices"
)

func main() {
	cfg := app.DefaultConfig()
	cfg.UIPort = getenvIntDefault("UI_PORT", cfg.UIPort)
	cfg.HelperPath = getenvDefault("HID_HELPER", cfg.HelperPath)

	list := false
	debug := false
	flag.IntVar(&cfg.UIPort, "ui-port", cfg.UIPort, "Port for the panel UI and remote-input WebSockets")
	flag.StringVar(&cfg.HelperPath, "hid-helper", cfg.HelperPath, "Path to the uinput helper executable")
	flag.BoolVar(&list, "list", false, "Print detected controllers and exit")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if debug {
		log.SetLevel(log.DebugLevel)
	}

	if list {
		for _, d := range devices.Scan() {
			fmt.Printf("%-40s %s vendor=%04x product=%04x bus=%s brand=%s\n",
				d.Name, d.EventPath, d.Vendor, d.Product,
				devices.ConnectionOf(d), devices.BrandOf(d))
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg).Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out int
	if _, err := fmt.Sscanf(v, "%d", &out); err != nil {
		return def
	}
	return out
}
