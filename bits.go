package jpegb

import (
	"fmt"
	"io"
)

// bitReader feeds the entropy decoder from the compressed scan data. It
// removes the 0x00 stuffing byte after literal 0xFF data bytes and stops
// at the first real marker, holding on to the marker byte so the restart
// logic can pick it up.
type bitReader struct {
	r   io.ByteReader
	acc uint32 // Bit accumulator, most recent byte in the low bits.
	n   int    // Number of valid bits in acc.
	end bool   // Set once a marker terminated the entropy-coded data.

	// The marker byte that ended the data, if one was seen during a refill.
	marker    byte
	hasMarker bool
}

// reset clears all bit state, typically after a restart marker. Reading
// resumes at the next byte of the underlying stream.
func (b *bitReader) reset() {
	b.acc = 0
	b.n = 0
	b.end = false
	b.marker = 0
	b.hasMarker = false
}

// takeMarker returns the pending marker byte, if any, and clears it.
func (b *bitReader) takeMarker() (byte, bool) {
	if !b.hasMarker {
		return 0, false
	}

	m := b.marker
	b.marker = 0
	b.hasMarker = false

	return m, true
}

// refill loads the next entropy-coded byte into the accumulator. A 0xFF
// followed by 0x00 yields a literal 0xFF data byte; a 0xFF followed by
// anything else is a marker, which ends the entropy-coded data.
func (b *bitReader) refill() error {
	if b.end {
		return fmt.Errorf("entropy-coded data ended by marker 0x%02X: %w", b.marker, ErrFormat)
	}

	by, err := b.r.ReadByte()
	if err != nil {
		return err
	}

	if by == 0xFF {
		next, err := b.r.ReadByte()
		if err != nil {
			return err
		}

		if next != 0x00 {
			b.marker = next
			b.hasMarker = true
			b.end = true

			return fmt.Errorf("entropy-coded data ended by marker 0x%02X: %w", next, ErrFormat)
		}
		// Stuffed byte: 0xFF is data, the 0x00 is discarded.
	}

	b.acc = b.acc<<8 | uint32(by)
	b.n += 8

	return nil
}

// next reads a single bit.
func (b *bitReader) next() (int, error) {
	if b.n == 0 {
		if err := b.refill(); err != nil {
			return 0, err
		}
	}

	b.n--

	return int(b.acc>>uint(b.n)) & 1, nil
}

// receive reads n bits, most significant first, as an unsigned value.
// n must be at most 16.
func (b *bitReader) receive(n int) (int, error) {
	v := 0
	for i := 0; i < n; i++ {
		bit, err := b.next()
		if err != nil {
			return 0, err
		}

		v = v<<1 | bit
	}

	return v, nil
}

// extend converts the raw n-bit magnitude v into a signed coefficient
// value (ITU-T T.81 figure F.12). A size of zero always yields zero.
func extend(v, n int) int {
	if n == 0 {
		return 0
	}

	if v < 1<<(n-1) {
		return v + (-1 << n) + 1
	}

	return v
}
