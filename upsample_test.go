package jpegb

import "testing"

// TestYCbCrToRGB checks the BT.601 conversion against hand-computed
// values, including clamping at both ends.
func TestYCbCrToRGB(t *testing.T) {
	testCases := []struct {
		y, cb, cr uint8
		r, g, b   uint8
	}{
		{128, 128, 128, 128, 128, 128}, // Neutral chroma passes luma through.
		{255, 128, 128, 255, 255, 255},
		{0, 128, 128, 0, 0, 0},
		{128, 136, 128, 128, 125, 142},
		{100, 200, 50, 0, 131, 228},
		{128, 255, 128, 128, 84, 255},
		{50, 0, 255, 228, 3, 0},
	}

	for _, tc := range testCases {
		r, g, b := ycbcrToRGB(tc.y, tc.cb, tc.cr)
		if r != tc.r || g != tc.g || b != tc.b {
			t.Errorf("ycbcrToRGB(%d, %d, %d) = (%d, %d, %d), want (%d, %d, %d)",
				tc.y, tc.cb, tc.cr, r, g, b, tc.r, tc.g, tc.b)
		}
	}
}

// TestClampRound rounds half away from zero and clamps to [0, 255].
func TestClampRound(t *testing.T) {
	testCases := []struct {
		in   float64
		want uint8
	}{
		{0, 0},
		{-0.4, 0},
		{-12.7, 0},
		{0.5, 1},
		{127.49, 127},
		{127.5, 128},
		{254.6, 255},
		{255.4, 255},
		{300, 255},
	}

	for _, tc := range testCases {
		if got := clampRound(tc.in); got != tc.want {
			t.Errorf("clampRound(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

// TestSampleMCUChroma checks nearest-neighbor coordinate mapping for a
// 2x2-subsampled chroma component inside a 16x16 MCU.
func TestSampleMCUChroma(t *testing.T) {
	d := &Decoder{hmax: 2, vmax: 2}
	c := &component{h: 1, v: 1, blockOff: 0}

	// One chroma block whose value encodes its own coordinates.
	d.mcu = make([]byte, 64)
	for cy := 0; cy < 8; cy++ {
		for cx := 0; cx < 8; cx++ {
			d.mcu[cy*8+cx] = byte(cy*16 + cx)
		}
	}

	for py := 0; py < 16; py++ {
		for px := 0; px < 16; px++ {
			want := byte((py/2)*16 + px/2)
			if got := d.sampleMCU(c, px, py); got != want {
				t.Fatalf("sample at (%d, %d) = %d, want %d", px, py, got, want)
			}
		}
	}
}

// TestSampleMCULumaFullRes checks that a full-resolution component maps
// through untouched, across its four blocks.
func TestSampleMCULumaFullRes(t *testing.T) {
	d := &Decoder{hmax: 2, vmax: 2}
	c := &component{h: 2, v: 2, blockOff: 0}

	d.mcu = make([]byte, 4*64)
	fill := func(blk int, base byte) {
		for i := 0; i < 64; i++ {
			d.mcu[blk*64+i] = base + byte(i)
		}
	}
	fill(0, 0)
	fill(1, 64)
	fill(2, 128)
	fill(3, 192)

	for py := 0; py < 16; py++ {
		for px := 0; px < 16; px++ {
			blk := (py/8)*2 + px/8
			want := byte(blk*64 + (py%8)*8 + px%8)
			if got := d.sampleMCU(c, px, py); got != want {
				t.Fatalf("sample at (%d, %d) = %d, want %d", px, py, got, want)
			}
		}
	}
}
