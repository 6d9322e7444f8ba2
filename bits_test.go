package jpegb

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func newBitReader(data []byte) *bitReader {
	return &bitReader{r: bytes.NewReader(data)}
}

// TestExtend checks the magnitude-to-signed conversion over its category
// boundaries.
func TestExtend(t *testing.T) {
	testCases := []struct {
		v, n, want int
	}{
		{0, 0, 0},
		{0, 1, -1},
		{1, 1, 1},
		{0, 4, -15},
		{7, 4, -8},
		{8, 4, 8},
		{15, 4, 15},
		{0, 11, -2047},
		{2047, 11, 2047},
	}

	for _, tc := range testCases {
		if got := extend(tc.v, tc.n); got != tc.want {
			t.Errorf("extend(%d, %d) = %d, want %d", tc.v, tc.n, got, tc.want)
		}
	}
}

// TestBitReaderOrder verifies bits come out most significant first and
// values assemble across byte boundaries.
func TestBitReaderOrder(t *testing.T) {
	b := newBitReader([]byte{0b1011_0100, 0b1100_0011})

	if v, err := b.receive(3); err != nil || v != 0b101 {
		t.Fatalf("first 3 bits = %d, %v; want 5", v, err)
	}

	if v, err := b.receive(8); err != nil || v != 0b1_0100_110 {
		t.Fatalf("next 8 bits = %d, %v; want %d", v, err, 0b1_0100_110)
	}

	if v, err := b.receive(5); err != nil || v != 0b00011 {
		t.Fatalf("last 5 bits = %d, %v; want 3", v, err)
	}
}

// TestBitReaderStuffing verifies that 0xFF 0x00 in the entropy-coded data
// decodes as a literal 0xFF data byte.
func TestBitReaderStuffing(t *testing.T) {
	b := newBitReader([]byte{0xFF, 0x00, 0xA5})

	if v, err := b.receive(8); err != nil || v != 0xFF {
		t.Fatalf("stuffed byte = %#x, %v; want 0xFF", v, err)
	}

	if v, err := b.receive(8); err != nil || v != 0xA5 {
		t.Fatalf("following byte = %#x, %v; want 0xA5", v, err)
	}
}

// TestBitReaderMarkerStops verifies that a marker ends the entropy-coded
// data: reads fail with a format error and the marker byte is captured
// rather than consumed as data.
func TestBitReaderMarkerStops(t *testing.T) {
	b := newBitReader([]byte{0xAB, 0xFF, 0xD9})

	if v, err := b.receive(8); err != nil || v != 0xAB {
		t.Fatalf("data byte = %#x, %v; want 0xAB", v, err)
	}

	if _, err := b.receive(1); !errors.Is(err, ErrFormat) {
		t.Fatalf("read past marker: err = %v, want ErrFormat", err)
	}

	m, ok := b.takeMarker()
	if !ok || m != 0xD9 {
		t.Fatalf("captured marker = %#x, %v; want 0xD9, true", m, ok)
	}

	if _, ok := b.takeMarker(); ok {
		t.Fatal("marker still pending after takeMarker")
	}
}

// TestBitReaderEOF verifies the underlying reader's error propagates
// unchanged when the data runs out without a marker.
func TestBitReaderEOF(t *testing.T) {
	b := newBitReader([]byte{0x80})

	if _, err := b.receive(8); err != nil {
		t.Fatalf("receive(8) = %v, want nil", err)
	}

	if _, err := b.receive(1); !errors.Is(err, io.EOF) {
		t.Fatalf("read past end: err = %v, want io.EOF", err)
	}
}

// TestBitReaderReset verifies a reset discards buffered bits and the
// pending marker so decoding resumes on the byte after a restart marker.
func TestBitReaderReset(t *testing.T) {
	b := newBitReader([]byte{0xF0, 0xFF, 0xD0, 0x55})

	if _, err := b.receive(4); err != nil {
		t.Fatalf("receive(4) = %v", err)
	}

	// The refill for the fifth bit runs into the restart marker.
	if _, err := b.receive(8); !errors.Is(err, ErrFormat) {
		t.Fatalf("read into marker: err = %v, want ErrFormat", err)
	}

	b.reset()

	if v, err := b.receive(8); err != nil || v != 0x55 {
		t.Fatalf("after reset = %#x, %v; want 0x55", v, err)
	}
}
