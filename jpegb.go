// Package jpegb decodes baseline sequential JPEG (DCT, Huffman-coded)
// images from a byte stream.
//
// The decoder works scanline by scanline: metadata queries and row reads
// pull only as much of the stream as they need, so images can be decoded
// from non-seekable readers without buffering the whole file. Output is
// 8-bit grayscale or 8-bit interleaved RGB depending on the number of
// frame components.
package jpegb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Standard error types for JPEG decoding.
var (
	// ErrFormat reports a malformed JPEG stream.
	ErrFormat = errors.New("invalid JPEG format")
	// ErrUnsupported reports a well-formed stream using a feature outside
	// the baseline sequential subset (progressive frames, DNL, 16-bit
	// precision, unusual component counts).
	ErrUnsupported = errors.New("unsupported JPEG feature")
)

// ColorType identifies the pixel layout produced by the decoder.
type ColorType int

const (
	// Gray8 is 8-bit grayscale, one byte per pixel.
	Gray8 ColorType = iota
	// RGB8 is 8-bit interleaved RGB, three bytes per pixel.
	RGB8
)

// Channels returns the number of bytes per pixel for the color type.
func (c ColorType) Channels() int {
	if c == RGB8 {
		return 3
	}

	return 1
}

// String implements fmt.Stringer.
func (c ColorType) String() string {
	if c == RGB8 {
		return "RGB8"
	}

	return "Gray8"
}

// decoderState tracks progress through the marker stream. Transitions are
// monotonic: each state is entered at most once per image.
type decoderState int

const (
	stateStart decoderState = iota
	stateHaveSOI
	stateHaveFirstFrame
	stateHaveFirstScan
	stateEnd
)

// component stores information about a single frame component (Y, Cb or Cr).
type component struct {
	id       int // Component identifier from the frame header.
	h, v     int // Horizontal and vertical sampling factors, 1-4.
	tq       int // Quantization table selector.
	dcTable  int // Huffman table selector for DC coefficients.
	acTable  int // Huffman table selector for AC coefficients.
	dcPred   int // DC predictor for differential coding, reset at restarts.
	blockOff int // Byte offset of this component's first block in the MCU buffer.
}

// Decoder reads a baseline JPEG image from a sequential byte stream.
// Methods that need metadata parse up to the first scan header on demand,
// so a Decoder that has only been queried for dimensions never touches
// the entropy-coded data.
type Decoder struct {
	r     *bufio.Reader
	bits  bitReader
	state decoderState

	width, height int
	ncomp         int
	comp          []component
	scanComp      []int // Indices into comp, in scan interleave order.

	hmax, vmax   int
	paddedWidth  int // Width rounded up to a multiple of 8*hmax.
	mcusPerRow   int
	mcusPerCol   int
	totalMCUs    int
	blocksPerMCU int

	qtables  [4][64]uint8
	qtSet    [4]bool
	dcTables [2]huffTable
	acTables [2]huffTable

	restartInterval int
	mcuCount        int
	nextRestart     byte // Expected restart marker, cycles RST0-RST7.

	mcu         []byte // One MCU worth of decoded blocks, 64 bytes each.
	mcuRow      []byte // One MCU row of upsampled output pixels.
	rowStride   int    // Bytes per row in mcuRow.
	rowCount    int    // Row within the buffered MCU row, 0..8*vmax-1.
	decodedRows int    // Rows handed out so far.
}

// NewDecoder returns a decoder reading a JPEG stream from r.
// No data is consumed until the first query or read.
func NewDecoder(r io.Reader) *Decoder {
	d := &Decoder{r: bufio.NewReader(r)}
	d.bits.r = d.r

	return d
}

// ensureMetadata parses the stream up to and including the first scan
// header, if that has not happened yet.
func (d *Decoder) ensureMetadata() error {
	if d.state >= stateHaveFirstScan {
		return nil
	}

	return d.readMetadata()
}

// Dimensions returns the image width and height in pixels.
func (d *Decoder) Dimensions() (int, int, error) {
	if err := d.ensureMetadata(); err != nil {
		return 0, 0, err
	}

	return d.width, d.height, nil
}

// ColorType returns the pixel layout of decoded rows: Gray8 for
// single-component frames, RGB8 for three-component frames.
func (d *Decoder) ColorType() (ColorType, error) {
	if err := d.ensureMetadata(); err != nil {
		return 0, err
	}

	if d.ncomp == 3 {
		return RGB8, nil
	}

	return Gray8, nil
}

// RowLen returns the number of bytes in a decoded scanline.
func (d *Decoder) RowLen() (int, error) {
	if err := d.ensureMetadata(); err != nil {
		return 0, err
	}

	return d.width * d.bytesPerPixel(), nil
}

func (d *Decoder) bytesPerPixel() int {
	if d.ncomp == 3 {
		return 3
	}

	return 1
}

// ReadScanline decodes the next image row, top to bottom, into buf, which
// must hold at least RowLen bytes. It returns the total number of rows
// decoded so far. Once every row has been delivered it returns io.EOF.
func (d *Decoder) ReadScanline(buf []byte) (int, error) {
	if err := d.ensureMetadata(); err != nil {
		return 0, err
	}

	if d.decodedRows >= d.height {
		d.state = stateEnd

		return d.decodedRows, io.EOF
	}

	rowLen := d.width * d.bytesPerPixel()
	if len(buf) < rowLen {
		return d.decodedRows, fmt.Errorf("scanline buffer holds %d bytes, need %d", len(buf), rowLen)
	}

	// Decode a fresh MCU row whenever the buffered one is exhausted.
	if d.rowCount == 0 {
		if err := d.decodeMCURow(); err != nil {
			return d.decodedRows, err
		}
	}

	copy(buf[:rowLen], d.mcuRow[d.rowCount*d.rowStride:])

	d.rowCount = (d.rowCount + 1) % (d.vmax * 8)
	d.decodedRows++

	if d.decodedRows == d.height {
		d.state = stateEnd
	}

	return d.decodedRows, nil
}

// ReadImage decodes all remaining scanlines and returns them as one
// contiguous buffer of RowLen*height bytes.
func (d *Decoder) ReadImage() ([]byte, error) {
	if err := d.ensureMetadata(); err != nil {
		return nil, err
	}

	rowLen := d.width * d.bytesPerPixel()
	rows := d.height - d.decodedRows
	out := make([]byte, rowLen*rows)

	for i := 0; i < rows; i++ {
		if _, err := d.ReadScanline(out[i*rowLen:]); err != nil {
			return nil, err
		}
	}

	return out, nil
}
