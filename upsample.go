package jpegb

import "math"

// Upsampling and color conversion

// upsampleMCU expands the blocks of the freshly decoded MCU into
// interleaved output pixels in the row buffer, starting at horizontal
// pixel offset x0. Subsampled chroma components are expanded by nearest
// neighbor: each chroma sample covers an (hmax/h)x(vmax/v) footprint of
// luma positions.
func (d *Decoder) upsampleMCU(x0 int) {
	if d.ncomp == 1 {
		// A grayscale MCU is a single block copied straight out.
		for y := 0; y < 8; y++ {
			copy(d.mcuRow[y*d.rowStride+x0:y*d.rowStride+x0+8], d.mcu[y*8:y*8+8])
		}

		return
	}

	mcuW := d.hmax * 8
	mcuH := d.vmax * 8
	yc := &d.comp[d.scanComp[0]]
	cbc := &d.comp[d.scanComp[1]]
	crc := &d.comp[d.scanComp[2]]

	for py := 0; py < mcuH; py++ {
		base := py*d.rowStride + x0*3
		for px := 0; px < mcuW; px++ {
			lum := d.sampleMCU(yc, px, py)
			cb := d.sampleMCU(cbc, px, py)
			cr := d.sampleMCU(crc, px, py)

			r, g, b := ycbcrToRGB(lum, cb, cr)
			o := base + px*3
			d.mcuRow[o+0] = r
			d.mcuRow[o+1] = g
			d.mcuRow[o+2] = b
		}
	}
}

// sampleMCU returns component c's sample covering the full-resolution MCU
// position (px, py), scaling the coordinates down by the component's
// sampling ratio.
func (d *Decoder) sampleMCU(c *component, px, py int) uint8 {
	cx := px * c.h / d.hmax
	cy := py * c.v / d.vmax
	blk := (cy>>3)*c.h + cx>>3

	return d.mcu[c.blockOff+blk*64+(cy&7)*8+(cx&7)]
}

// ycbcrToRGB converts one YCbCr triple to RGB with the BT.601 full-range
// coefficients, rounding before clamping to [0, 255].
func ycbcrToRGB(y, cb, cr uint8) (uint8, uint8, uint8) {
	yf := float64(y)
	cbf := float64(cb) - 128
	crf := float64(cr) - 128

	r := yf + 1.402*crf
	g := yf - 0.344136*cbf - 0.714136*crf
	b := yf + 1.772*cbf

	return clampRound(r), clampRound(g), clampRound(b)
}

// clampRound rounds v to the nearest integer and clamps it to the 8-bit
// sample range.
func clampRound(v float64) uint8 {
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}

	if n > 255 {
		return 255
	}

	return uint8(n)
}
