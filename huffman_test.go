package jpegb

import (
	"errors"
	"testing"
)

// TestHuffTableSingleCode builds a table holding one two-bit code and
// checks that only that bit pattern decodes.
func TestHuffTableSingleCode(t *testing.T) {
	var counts [16]uint8
	counts[1] = 1 // One code of length 2.

	table, err := buildHuffTable(&counts, []uint8{5})
	if err != nil {
		t.Fatalf("buildHuffTable: %v", err)
	}

	// "00" is the only valid code.
	b := newBitReader([]byte{0x00})
	if v, err := table.decode(b); err != nil || v != 5 {
		t.Fatalf("decode = %d, %v; want 5", v, err)
	}

	// Any other pattern should exhaust all sixteen lengths and fail.
	b = newBitReader([]byte{0x55, 0x55})
	if _, err := table.decode(b); !errors.Is(err, ErrFormat) {
		t.Fatalf("decode of invalid pattern: err = %v, want ErrFormat", err)
	}
}

// TestHuffTableTwoLengths covers a table with codes of different lengths:
// canonical assignment gives "0" to the first symbol and "10" to the
// second.
func TestHuffTableTwoLengths(t *testing.T) {
	var counts [16]uint8
	counts[0] = 1
	counts[1] = 1

	table, err := buildHuffTable(&counts, []uint8{0xA, 0xB})
	if err != nil {
		t.Fatalf("buildHuffTable: %v", err)
	}

	testCases := []struct {
		data []byte
		want uint8
	}{
		{[]byte{0x00}, 0xA}, // 0...
		{[]byte{0x80}, 0xB}, // 10...
	}

	for _, tc := range testCases {
		b := newBitReader(tc.data)
		if v, err := table.decode(b); err != nil || v != tc.want {
			t.Errorf("decode(%#x) = %#x, %v; want %#x", tc.data[0], v, err, tc.want)
		}
	}

	// "11" prefixes no code.
	b := newBitReader([]byte{0xC0, 0x00})
	if _, err := table.decode(b); !errors.Is(err, ErrFormat) {
		t.Errorf("decode of 11 pattern: err = %v, want ErrFormat", err)
	}
}

// TestHuffTableStandardDC decodes category symbols with the typical
// luminance DC table (ITU-T T.81 table K.3).
func TestHuffTableStandardDC(t *testing.T) {
	counts := [16]uint8{0, 1, 5, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0}
	values := []uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}

	table, err := buildHuffTable(&counts, values)
	if err != nil {
		t.Fatalf("buildHuffTable: %v", err)
	}

	testCases := []struct {
		data []byte
		want uint8
	}{
		{[]byte{0x00}, 0}, // 00
		{[]byte{0x40}, 1}, // 010
		{[]byte{0x60}, 2}, // 011
		{[]byte{0xC0}, 5}, // 110
		{[]byte{0xE0}, 6}, // 1110
		{[]byte{0xFE}, 10}, // 11111110
	}

	for _, tc := range testCases {
		b := newBitReader(tc.data)
		if v, err := table.decode(b); err != nil || v != tc.want {
			t.Errorf("decode(%#x) = %d, %v; want %d", tc.data[0], v, err, tc.want)
		}
	}
}

// TestBuildHuffTableRejectsOverflow rejects count sets that assign more
// codes to a length than it can hold.
func TestBuildHuffTableRejectsOverflow(t *testing.T) {
	var counts [16]uint8
	counts[0] = 3 // Three codes of length 1.

	if _, err := buildHuffTable(&counts, []uint8{1, 2, 3}); !errors.Is(err, ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
}

// TestBuildHuffTableRejectsCountMismatch rejects a value list whose size
// disagrees with the code counts.
func TestBuildHuffTableRejectsCountMismatch(t *testing.T) {
	var counts [16]uint8
	counts[1] = 2

	if _, err := buildHuffTable(&counts, []uint8{7}); !errors.Is(err, ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
}

// TestHuffTableEmptyNeverMatches: an undefined table reports itself
// unpopulated and decodes nothing, whatever bits it is fed. Zero bits are
// the interesting input: a zero-value table's maxcode entries are all zero,
// so a run of zeros would look like a code with no value behind it.
func TestHuffTableEmptyNeverMatches(t *testing.T) {
	var table huffTable

	if table.populated() {
		t.Fatal("zero table reports populated")
	}

	for _, data := range [][]byte{
		{0x00, 0x00},
		{0xFF, 0x00, 0xFF, 0x00},
	} {
		b := newBitReader(data)
		if _, err := table.decode(b); !errors.Is(err, ErrFormat) {
			t.Fatalf("decode(% x): err = %v, want ErrFormat", data, err)
		}
	}
}
