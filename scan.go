package jpegb

import "fmt"

// unzigzag maps the stream order of coefficients to their row-major
// position within an 8x8 block.
var unzigzag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// decodeMCURow decodes one full row of MCUs into the row buffer,
// upsampling each MCU into interleaved pixels as it completes.
func (d *Decoder) decodeMCURow() error {
	for mx := 0; mx < d.mcusPerRow; mx++ {
		if err := d.decodeMCU(); err != nil {
			return err
		}

		d.upsampleMCU(mx * d.hmax * 8)
	}

	return nil
}

// decodeMCU decodes every block of one MCU, in scan component order, and
// then verifies the restart marker if one is due.
func (d *Decoder) decodeMCU() error {
	for _, ci := range d.scanComp {
		c := &d.comp[ci]
		for b := 0; b < c.h*c.v; b++ {
			if err := d.decodeBlock(c, d.mcu[c.blockOff+b*64:c.blockOff+(b+1)*64]); err != nil {
				return err
			}
		}
	}

	d.mcuCount++

	// A restart marker separates every restartInterval MCUs, except after
	// the final MCU of the image.
	if d.restartInterval != 0 && d.mcuCount%d.restartInterval == 0 && d.mcuCount < d.totalMCUs {
		if err := d.readRestart(); err != nil {
			return err
		}
	}

	return nil
}

// decodeBlock entropy-decodes one 8x8 block of coefficients for c,
// dequantizes them and runs the inverse DCT into out.
func (d *Decoder) decodeBlock(c *component, out []byte) error {
	var block [64]int32
	q := &d.qtables[c.tq]

	// DC coefficient: a size category followed by that many magnitude
	// bits, differentially coded against the previous block.
	t, err := d.dcTables[c.dcTable].decode(&d.bits)
	if err != nil {
		return err
	}

	if t > 16 {
		return fmt.Errorf("DC coefficient size %d out of range: %w", t, ErrFormat)
	}

	diff := 0
	if t > 0 {
		v, err := d.bits.receive(int(t))
		if err != nil {
			return err
		}

		diff = extend(v, int(t))
	}

	c.dcPred += diff
	block[0] = int32(int16(c.dcPred) * int16(q[0]))

	// AC coefficients: each symbol packs a zero-run length and the size
	// of the following value.
	for k := 1; k < 64; {
		rs, err := d.acTables[c.acTable].decode(&d.bits)
		if err != nil {
			return err
		}

		size := int(rs & 0x0F)
		run := int(rs >> 4)

		if size == 0 {
			if run != 15 {
				break // End of block.
			}

			k += 16 // ZRL: sixteen zero coefficients.

			continue
		}

		k += run
		if k > 63 {
			return fmt.Errorf("coefficient run past end of block: %w", ErrFormat)
		}

		v, err := d.bits.receive(size)
		if err != nil {
			return err
		}

		block[unzigzag[k]] = int32(int16(extend(v, size)) * int16(q[k]))
		k++
	}

	idct(&block, out)

	return nil
}

// readRestart consumes the next restart marker and verifies it carries
// the expected index. Markers out of sequence are a hard error; the
// decoder never resynchronizes.
func (d *Decoder) readRestart() error {
	m, err := d.findRestartMarker()
	if err != nil {
		return err
	}

	if m != d.nextRestart {
		return fmt.Errorf("expected restart marker 0x%02X, found 0x%02X: %w", d.nextRestart, m, ErrFormat)
	}

	d.restartSeen()

	return nil
}

// findRestartMarker returns the marker that terminated the entropy data,
// either one already captured by the bit reader or the next one found by
// scanning forward. Reaching EOI means the expected restart marker is
// missing.
func (d *Decoder) findRestartMarker() (byte, error) {
	if m, ok := d.bits.takeMarker(); ok {
		return m, nil
	}

	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return 0, err
		}

		if b != 0xFF {
			continue
		}

		m, err := d.r.ReadByte()
		if err != nil {
			return 0, err
		}

		switch {
		case m >= markerRST0 && m <= markerRST7:
			return m, nil
		case m == markerEOI:
			return 0, fmt.Errorf("restart marker not found: %w", ErrFormat)
		case m == 0xFF:
			// Fill byte; the next byte may still be a marker.
			if err := d.r.UnreadByte(); err != nil {
				return 0, err
			}
		}
	}
}

// restartSeen resets the entropy decoding state after a verified restart
// marker: bit alignment, DC predictors and the expected marker index.
func (d *Decoder) restartSeen() {
	d.bits.reset()

	for i := range d.comp {
		d.comp[i].dcPred = 0
	}

	d.nextRestart++
	if d.nextRestart > markerRST7 {
		d.nextRestart = markerRST0
	}
}
