package jpegb

import "fmt"

// Marker byte values (the byte following 0xFF), ITU-T T.81 table B.1.
const (
	markerSOF0 = 0xC0 // Baseline sequential DCT frame.
	markerSOF2 = 0xC2 // Progressive DCT frame, unsupported.
	markerDHT  = 0xC4
	markerRST0 = 0xD0
	markerRST7 = 0xD7
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerDQT  = 0xDB
	markerDNL  = 0xDC // Define number of lines, unsupported.
	markerDRI  = 0xDD
	markerAPP0 = 0xE0
	markerAPPF = 0xEF
	markerCOM  = 0xFE
	markerTEM  = 0x01
)

// readUint16 reads a big-endian 16-bit value from the stream.
func (d *Decoder) readUint16() (int, error) {
	hi, err := d.r.ReadByte()
	if err != nil {
		return 0, err
	}

	lo, err := d.r.ReadByte()
	if err != nil {
		return 0, err
	}

	return int(hi)<<8 | int(lo), nil
}

// readLength reads a segment length field and returns the payload size,
// excluding the two bytes of the field itself.
func (d *Decoder) readLength() (int, error) {
	n, err := d.readUint16()
	if err != nil {
		return 0, err
	}

	if n < 2 {
		return 0, fmt.Errorf("segment length %d too short: %w", n, ErrFormat)
	}

	return n - 2, nil
}

// skipSegment discards the payload of a segment whose contents are not
// needed (APPn, COM).
func (d *Decoder) skipSegment() error {
	n, err := d.readLength()
	if err != nil {
		return err
	}

	_, err = d.r.Discard(n)

	return err
}

// nextMarker scans forward to the next marker: a 0xFF byte, any number of
// 0xFF fill bytes, then a non-zero marker byte. A zero byte after 0xFF is
// entropy stuffing and never occurs between segments, so scanning simply
// continues past it.
func (d *Decoder) nextMarker() (byte, error) {
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

		for m == 0xFF {
			m, err = d.r.ReadByte()
			if err != nil {
				return 0, err
			}
		}

		if m == 0x00 {
			continue
		}

		return m, nil
	}
}

// readMetadata drives the marker state machine from the start of the
// stream through the first scan header. When it returns without error the
// decoder is positioned at the entropy-coded data, with frame geometry
// and all referenced tables in place.
func (d *Decoder) readMetadata() error {
	for d.state < stateHaveFirstScan {
		m, err := d.nextMarker()
		if err != nil {
			return err
		}

		if d.state == stateStart && m != markerSOI {
			return fmt.Errorf("expected SOI, found marker 0x%02X: %w", m, ErrFormat)
		}

		switch {
		case m == markerSOI:
			if d.state != stateStart {
				return fmt.Errorf("unexpected SOI marker: %w", ErrFormat)
			}

			d.state = stateHaveSOI
		case m == markerTEM:
			// Standalone, no payload.
		case m == markerSOF0:
			if err := d.readFrameHeader(); err != nil {
				return err
			}
		case m == markerSOF2:
			return fmt.Errorf("progressive DCT frames: %w", ErrUnsupported)
		case m == markerDNL:
			return fmt.Errorf("DNL segments: %w", ErrUnsupported)
		case m == markerDHT:
			if err := d.readHuffmanTables(); err != nil {
				return err
			}
		case m == markerDQT:
			if err := d.readQuantizationTables(); err != nil {
				return err
			}
		case m == markerDRI:
			if err := d.readRestartInterval(); err != nil {
				return err
			}
		case m == markerSOS:
			if err := d.readScanHeader(); err != nil {
				return err
			}
		case m >= markerAPP0 && m <= markerAPPF, m == markerCOM:
			if err := d.skipSegment(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown marker 0x%02X: %w", m, ErrFormat)
		}
	}

	return nil
}

// readFrameHeader parses a baseline SOF segment: precision, dimensions
// and the per-component sampling factors and table selectors.
func (d *Decoder) readFrameHeader() error {
	if _, err := d.readLength(); err != nil {
		return err
	}

	prec, err := d.r.ReadByte()
	if err != nil {
		return err
	}

	if prec != 8 {
		return fmt.Errorf("%d-bit sample precision: %w", prec, ErrUnsupported)
	}

	height, err := d.readUint16()
	if err != nil {
		return err
	}

	width, err := d.readUint16()
	if err != nil {
		return err
	}

	if width == 0 || height == 0 {
		return fmt.Errorf("zero image dimensions %dx%d: %w", width, height, ErrFormat)
	}

	ncomp, err := d.r.ReadByte()
	if err != nil {
		return err
	}

	if ncomp != 1 && ncomp != 3 {
		return fmt.Errorf("%d-component frames: %w", ncomp, ErrUnsupported)
	}

	d.width = width
	d.height = height
	d.comp = d.comp[:0]

	for i := 0; i < int(ncomp); i++ {
		id, err := d.r.ReadByte()
		if err != nil {
			return err
		}

		hv, err := d.r.ReadByte()
		if err != nil {
			return err
		}

		tq, err := d.r.ReadByte()
		if err != nil {
			return err
		}

		c := component{
			id: int(id),
			h:  int(hv >> 4),
			v:  int(hv & 0x0F),
			tq: int(tq),
		}

		if c.h < 1 || c.h > 4 || c.v < 1 || c.v > 4 {
			return fmt.Errorf("sampling factors %dx%d out of range: %w", c.h, c.v, ErrFormat)
		}

		if c.tq > 3 {
			return fmt.Errorf("quantization table id %d out of range: %w", c.tq, ErrFormat)
		}

		// A repeated component id redefines the earlier entry.
		replaced := false
		for j := range d.comp {
			if d.comp[j].id == c.id {
				d.comp[j] = c
				replaced = true

				break
			}
		}

		if !replaced {
			d.comp = append(d.comp, c)
		}
	}

	d.ncomp = len(d.comp)

	// A single-component frame is never interleaved, so its sampling
	// factors carry no meaning and collapse to 1x1.
	if d.ncomp == 1 {
		d.comp[0].h = 1
		d.comp[0].v = 1
	}

	d.hmax, d.vmax = 0, 0
	for i := range d.comp {
		if d.comp[i].h > d.hmax {
			d.hmax = d.comp[i].h
		}

		if d.comp[i].v > d.vmax {
			d.vmax = d.comp[i].v
		}
	}

	// MCU geometry. The row buffer is padded out to whole MCUs so edge
	// blocks can be written without bounds checks.
	mcuW := d.hmax * 8
	mcuH := d.vmax * 8
	d.mcusPerRow = (d.width + mcuW - 1) / mcuW
	d.mcusPerCol = (d.height + mcuH - 1) / mcuH
	d.totalMCUs = d.mcusPerRow * d.mcusPerCol
	d.paddedWidth = d.mcusPerRow * mcuW

	d.rowStride = d.paddedWidth * d.bytesPerPixel()
	d.mcuRow = make([]byte, d.rowStride*mcuH)

	d.state = stateHaveFirstFrame

	return nil
}

// readQuantizationTables parses a DQT segment, which may carry several
// 64-entry tables. Only 8-bit table precision is valid in a baseline
// frame.
func (d *Decoder) readQuantizationTables() error {
	length, err := d.readLength()
	if err != nil {
		return err
	}

	for length > 0 {
		if length < 65 {
			return fmt.Errorf("truncated quantization table: %w", ErrFormat)
		}

		pqtq, err := d.r.ReadByte()
		if err != nil {
			return err
		}

		pq := pqtq >> 4
		tq := pqtq & 0x0F
		if pq != 0 || tq > 3 {
			return fmt.Errorf("malformed quantization table spec 0x%02X: %w", pqtq, ErrFormat)
		}

		for i := 0; i < 64; i++ {
			q, err := d.r.ReadByte()
			if err != nil {
				return err
			}

			d.qtables[tq][i] = q
		}

		d.qtSet[tq] = true
		length -= 65
	}

	return nil
}

// readHuffmanTables parses a DHT segment, which may carry several table
// definitions, and derives the canonical decoding tables.
func (d *Decoder) readHuffmanTables() error {
	length, err := d.readLength()
	if err != nil {
		return err
	}

	for length > 0 {
		if length < 17 {
			return fmt.Errorf("truncated huffman table: %w", ErrFormat)
		}

		tcth, err := d.r.ReadByte()
		if err != nil {
			return err
		}

		tc := tcth >> 4
		th := tcth & 0x0F
		if tc > 1 {
			return fmt.Errorf("huffman table class %d: %w", tc, ErrUnsupported)
		}

		if th > 1 {
			return fmt.Errorf("huffman table id %d out of range: %w", th, ErrFormat)
		}

		var counts [16]uint8
		total := 0
		for i := 0; i < 16; i++ {
			n, err := d.r.ReadByte()
			if err != nil {
				return err
			}

			counts[i] = n
			total += int(n)
		}

		length -= 17
		if total > length {
			return fmt.Errorf("truncated huffman table values: %w", ErrFormat)
		}

		values := make([]uint8, total)
		for i := range values {
			v, err := d.r.ReadByte()
			if err != nil {
				return err
			}

			values[i] = v
		}

		length -= total

		table, err := buildHuffTable(&counts, values)
		if err != nil {
			return err
		}

		if tc == 0 {
			d.dcTables[th] = table
		} else {
			d.acTables[th] = table
		}
	}

	return nil
}

// readRestartInterval parses a DRI segment.
func (d *Decoder) readRestartInterval() error {
	length, err := d.readLength()
	if err != nil {
		return err
	}

	if length < 2 {
		return fmt.Errorf("truncated restart interval segment: %w", ErrFormat)
	}

	interval, err := d.readUint16()
	if err != nil {
		return err
	}

	d.restartInterval = interval
	_, err = d.r.Discard(length - 2)

	return err
}

// readScanHeader parses the SOS segment, resolving each scan component to
// its frame component and checking that every referenced entropy table
// was defined. Baseline frames in scope here carry all components in a
// single interleaved scan.
func (d *Decoder) readScanHeader() error {
	if d.state < stateHaveFirstFrame {
		return fmt.Errorf("SOS before frame header: %w", ErrFormat)
	}

	if _, err := d.readLength(); err != nil {
		return err
	}

	ns, err := d.r.ReadByte()
	if err != nil {
		return err
	}

	if int(ns) != d.ncomp {
		return fmt.Errorf("scan with %d of %d components: %w", ns, d.ncomp, ErrUnsupported)
	}

	d.scanComp = d.scanComp[:0]
	blockOff := 0

	for i := 0; i < int(ns); i++ {
		id, err := d.r.ReadByte()
		if err != nil {
			return err
		}

		tabs, err := d.r.ReadByte()
		if err != nil {
			return err
		}

		ci := -1
		for j := range d.comp {
			if d.comp[j].id == int(id) {
				ci = j

				break
			}
		}

		if ci < 0 {
			return fmt.Errorf("scan references unknown component %d: %w", id, ErrFormat)
		}

		c := &d.comp[ci]
		c.dcTable = int(tabs >> 4)
		c.acTable = int(tabs & 0x0F)

		if c.dcTable > 1 || c.acTable > 1 {
			return fmt.Errorf("entropy table selectors 0x%02X out of range: %w", tabs, ErrFormat)
		}

		if !d.dcTables[c.dcTable].populated() || !d.acTables[c.acTable].populated() {
			return fmt.Errorf("scan references undefined huffman table: %w", ErrFormat)
		}

		if !d.qtSet[c.tq] {
			return fmt.Errorf("scan references undefined quantization table %d: %w", c.tq, ErrFormat)
		}

		c.blockOff = blockOff
		blockOff += c.h * c.v * 64
		d.scanComp = append(d.scanComp, ci)
	}

	// Spectral selection and successive approximation bytes; fixed values
	// in baseline, carried but not used.
	for i := 0; i < 3; i++ {
		if _, err := d.r.ReadByte(); err != nil {
			return err
		}
	}

	d.blocksPerMCU = blockOff / 64
	d.mcu = make([]byte, blockOff)
	d.mcuCount = 0
	d.nextRestart = markerRST0
	d.bits.reset()

	for i := range d.comp {
		d.comp[i].dcPred = 0
	}

	d.state = stateHaveFirstScan

	return nil
}
