package jpegb

import "fmt"

// huffTable is a canonical Huffman table in the mincode/maxcode/valptr
// form of ITU-T T.81 Annex F. Index l of each array describes the codes
// of length l bits; maxcode[l] is -1 when no codes of that length exist.
type huffTable struct {
	mincode [17]int32
	maxcode [17]int32
	valptr  [17]int32
	values  []uint8
}

// populated reports whether the table has been defined by a DHT segment.
func (h *huffTable) populated() bool {
	return len(h.values) > 0
}

// buildHuffTable derives the canonical code ranges from the per-length
// code counts and the symbol values in code order (Annex C).
func buildHuffTable(counts *[16]uint8, values []uint8) (huffTable, error) {
	var t huffTable

	total := 0
	for _, n := range counts {
		total += int(n)
	}

	if total != len(values) || total > 256 {
		return t, fmt.Errorf("huffman table has %d codes for %d values: %w", total, len(values), ErrFormat)
	}

	t.values = values

	code := int32(0)
	k := int32(0)

	for l := 1; l <= 16; l++ {
		n := int32(counts[l-1])
		if n == 0 {
			t.maxcode[l] = -1
		} else {
			t.valptr[l] = k
			t.mincode[l] = code
			code += n
			k += n
			t.maxcode[l] = code - 1
		}

		if code > 1<<uint(l) {
			return t, fmt.Errorf("huffman code counts overflow length %d: %w", l, ErrFormat)
		}

		code <<= 1
	}

	return t, nil
}

// decode reads bits one at a time until they form a code of the table,
// returning the symbol value it encodes. Codes are at most 16 bits; a bit
// pattern matching no code is a format error.
func (h *huffTable) decode(b *bitReader) (uint8, error) {
	// A zero-value table has maxcode[l] == 0 everywhere, which a run of
	// zero bits would otherwise "match" with no value behind it.
	if !h.populated() {
		return 0, fmt.Errorf("huffman table not defined: %w", ErrFormat)
	}

	code := int32(0)
	for l := 1; l <= 16; l++ {
		bit, err := b.next()
		if err != nil {
			return 0, err
		}

		code = code<<1 | int32(bit)
		if h.maxcode[l] >= 0 && code <= h.maxcode[l] {
			return h.values[h.valptr[l]+code-h.mincode[l]], nil
		}
	}

	return 0, fmt.Errorf("invalid huffman code: %w", ErrFormat)
}
