package evdev

import (
	"bytes"
	"testing"
)

func TestEncodeOffsets(t *testing.T) {
	b := Encode(Event{Type: EV_ABS, Code: ABS_RZ, Value: -2})

	if len(b) != EventSize {
		t.Fatalf("record length %d, wanted %d", len(b), EventSize)
	}
	// bytes 0-15 are the unused timestamp
	if !bytes.Equal(b[:16], make([]byte, 16)) {
		t.Errorf("timestamp bytes not zeroed: %v", b[:16])
	}
	if b[16] != EV_ABS || b[17] != 0 {
		t.Errorf("type bytes %v, wanted little-endian 0x%04x", b[16:18], EV_ABS)
	}
	if b[18] != ABS_RZ || b[19] != 0 {
		t.Errorf("code bytes %v, wanted little-endian 0x%04x", b[18:20], ABS_RZ)
	}
	// -2 little-endian
	if b[20] != 0xfe || b[21] != 0xff || b[22] != 0xff || b[23] != 0xff {
		t.Errorf("value bytes %v, wanted int32(-2) little-endian", b[20:24])
	}
}

func TestCodecRoundTrip(t *testing.T) {
	events := []Event{
		{Type: EV_KEY, Code: BTN_SOUTH, Value: 1},
		{Type: EV_ABS, Code: ABS_X, Value: -32768},
		{Type: EV_SYN, Code: SYN_REPORT, Value: 0},
		{Type: EV_REL, Code: REL_WHEEL, Value: -1},
	}
	for _, ev := range events {
		if got := Decode(Encode(ev)); got != ev {
			t.Errorf("round trip: got %+v, wanted %+v", got, ev)
		}
	}
}

func TestParserSplitChunks(t *testing.T) {
	want := []Event{
		{Type: EV_ABS, Code: ABS_Y, Value: 200},
		{Type: EV_KEY, Code: BTN_TR, Value: 1},
		{Type: EV_SYN, Code: SYN_REPORT, Value: 0},
	}
	var stream []byte
	for _, ev := range want {
		stream = append(stream, Encode(ev)...)
	}

	var got []Event
	p := &Parser{}
	// Feed in awkward chunk sizes so records straddle chunk boundaries.
	for i := 0; i < len(stream); i += 7 {
		end := i + 7
		if end > len(stream) {
			end = len(stream)
		}
		p.Feed(stream[i:end], func(ev Event) { got = append(got, ev) })
	}

	if len(got) != len(want) {
		t.Fatalf("parsed %d records, wanted %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d: got %+v, wanted %+v", i, got[i], want[i])
		}
	}
}

func TestParserKeepsPartialTail(t *testing.T) {
	rec := Encode(Event{Type: EV_KEY, Code: BTN_WEST, Value: 1})

	p := &Parser{}
	count := 0
	p.Feed(rec[:EventSize-1], func(Event) { count++ })
	if count != 0 {
		t.Fatalf("partial record emitted %d events", count)
	}
	p.Feed(rec[EventSize-1:], func(ev Event) {
		count++
		if ev.Code != BTN_WEST {
			t.Errorf("code %#x, wanted BTN_WEST", ev.Code)
		}
	})
	if count != 1 {
		t.Errorf("completed record emitted %d events, wanted 1", count)
	}
}
