package gif

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"time"

	"github.com/gogpu/ggshot"
	"github.com/gogpu/ggshot/canvas"
)

type state int

const (
	stateIdle state = iota
	stateStarted
	stateFinished
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateStarted:
		return "started"
	case stateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	header  = "GIF89a"
	trailer = 0x3B

	extensionIntroducer = 0x21
	graphicControlLabel = 0xF9
	applicationLabel    = 0xFF
	imageSeparator      = 0x2C

	paletteBits = 8 // 256-entry tables, also the LZW literal width

	// packed field of a color table of 256 entries: table flag, color
	// resolution 7, size 7.
	globalTablePacked = 0x80 | 0x70 | (paletteBits - 1)
	localTablePacked  = 0x80 | (paletteBits - 1)

	disposalBackground = 2
)

// Encoder writes an animated GIF frame by frame.
//
// An Encoder is not safe for concurrent use.
type Encoder struct {
	delay       time.Duration
	repeat      int
	sample      int
	transparent color.Color
	dispose     int

	state  state
	w      *bufio.Writer
	width  int
	height int
	frames int
}

// NewEncoder returns an idle encoder. By default frames have no delay, the
// animation loops forever and the quantizer uses DefaultSample.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{
		sample:  DefaultSample,
		dispose: -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start writes the GIF header to w.
func (e *Encoder) Start(w io.Writer) error {
	if e.state != stateIdle {
		return e.stateError("start")
	}
	e.w = bufio.NewWriter(w)
	if _, err := e.w.WriteString(header); err != nil {
		return fmt.Errorf("gif: write header: %w", err)
	}
	e.state = stateStarted
	ggshot.Logger().Debug("gif: started", "delay", e.delay, "repeat", e.repeat, "sample", e.sample)
	return nil
}

// AddFrame appends the flushed, cropped content of c as the next frame.
func (e *Encoder) AddFrame(c *canvas.Canvas) error {
	if c.Released() {
		return fmt.Errorf("%w: gif: frame canvas released", ggshot.ErrInvalidState)
	}
	return e.AddImage(c.Image())
}

// AddImage appends img as the next frame. The first frame fixes the size
// of the animation; later frames are drawn at the top-left corner of that
// area, cut off or padded with white. Transparent pixels are composited
// onto white.
func (e *Encoder) AddImage(img image.Image) error {
	if e.state != stateStarted {
		return e.stateError("add frame")
	}
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("%w: gif: empty frame", ggshot.ErrInvalidArgument)
	}
	first := e.frames == 0
	if first {
		e.width, e.height = img.Bounds().Dx(), img.Bounds().Dy()
		if e.width > math.MaxUint16 || e.height > math.MaxUint16 {
			return fmt.Errorf("%w: gif: frame %dx%d too large", ggshot.ErrInvalidArgument, e.width, e.height)
		}
	}

	pixels := e.rgbPixels(img)
	q := NewQuantizer(pixels, e.sample)
	palette := q.Process()
	indices := make([]byte, len(pixels)/3)
	for i := range indices {
		indices[i] = byte(q.Map(pixels[3*i], pixels[3*i+1], pixels[3*i+2])) //nolint:gosec // index < 256
	}

	transIndex := -1
	if e.transparent != nil {
		r, g, b, _ := e.transparent.RGBA()
		transIndex = q.Map(byte(r>>8), byte(g>>8), byte(b>>8)) //nolint:gosec // 8-bit channels
	}

	if first {
		e.writeScreenDescriptor()
		_, _ = e.w.Write(palette)
		if e.repeat >= 0 {
			e.writeLoopExtension()
		}
	}
	e.writeGraphicControl(transIndex)
	e.writeImageDescriptor(first)
	if !first {
		_, _ = e.w.Write(palette)
	}
	if err := e.writePixels(indices); err != nil {
		return fmt.Errorf("gif: write frame %d: %w", e.frames, err)
	}
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("gif: write frame %d: %w", e.frames, err)
	}

	e.frames++
	ggshot.Logger().Debug("gif: frame added", "index", e.frames-1, "width", e.width, "height", e.height)
	return nil
}

// Finish writes the trailer. The encoder cannot be reused afterwards.
func (e *Encoder) Finish() error {
	if e.state != stateStarted {
		return e.stateError("finish")
	}
	_ = e.w.WriteByte(trailer)
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("gif: write trailer: %w", err)
	}
	e.state = stateFinished
	ggshot.Logger().Debug("gif: finished", "frames", e.frames)
	return nil
}

// Frames returns the number of frames written so far.
func (e *Encoder) Frames() int { return e.frames }

// Size returns the logical screen size fixed by the first frame.
func (e *Encoder) Size() image.Point { return image.Pt(e.width, e.height) }

func (e *Encoder) stateError(op string) error {
	return fmt.Errorf("%w: gif: %s while %s", ggshot.ErrInvalidState, op, e.state)
}

// rgbPixels returns the logical screen area of img as packed RGB bytes.
func (e *Encoder) rgbPixels(img image.Image) []byte {
	b := img.Bounds()
	pixels := make([]byte, 0, e.width*e.height*3)
	for y := 0; y < e.height; y++ {
		for x := 0; x < e.width; x++ {
			p := image.Pt(b.Min.X+x, b.Min.Y+y)
			if !p.In(b) {
				pixels = append(pixels, 0xff, 0xff, 0xff)
				continue
			}
			c := nrgbaAt(img, p)
			pixels = append(pixels, overWhite(c.R, c.A), overWhite(c.G, c.A), overWhite(c.B, c.A))
		}
	}
	return pixels
}

func nrgbaAt(img image.Image, p image.Point) color.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n.NRGBAAt(p.X, p.Y)
	}
	return color.NRGBAModel.Convert(img.At(p.X, p.Y)).(color.NRGBA)
}

func overWhite(v, a uint8) uint8 {
	return uint8((uint32(v)*uint32(a) + 0xff*(0xff-uint32(a)) + 0x7f) / 0xff) //nolint:gosec // <= 255
}

func (e *Encoder) writeUint16(v int) {
	_ = e.w.WriteByte(byte(v))      //nolint:gosec // low byte
	_ = e.w.WriteByte(byte(v >> 8)) //nolint:gosec // high byte
}

func (e *Encoder) writeScreenDescriptor() {
	e.writeUint16(e.width)
	e.writeUint16(e.height)
	_ = e.w.WriteByte(globalTablePacked)
	_ = e.w.WriteByte(0) // background color index
	_ = e.w.WriteByte(0) // pixel aspect ratio
}

func (e *Encoder) writeLoopExtension() {
	_ = e.w.WriteByte(extensionIntroducer)
	_ = e.w.WriteByte(applicationLabel)
	_ = e.w.WriteByte(11)
	_, _ = e.w.WriteString("NETSCAPE2.0")
	_ = e.w.WriteByte(3)
	_ = e.w.WriteByte(1)
	e.writeUint16(min(e.repeat, math.MaxUint16))
	_ = e.w.WriteByte(0)
}

func (e *Encoder) writeGraphicControl(transIndex int) {
	disposal := e.dispose
	transFlag := 0
	if transIndex >= 0 {
		transFlag = 1
		if disposal < 0 {
			disposal = disposalBackground
		}
	} else {
		transIndex = 0
	}
	disposal = max(disposal, 0)

	_ = e.w.WriteByte(extensionIntroducer)
	_ = e.w.WriteByte(graphicControlLabel)
	_ = e.w.WriteByte(4)
	_ = e.w.WriteByte(byte(disposal<<2 | transFlag)) //nolint:gosec // 5 bits
	e.writeUint16(e.delayCentiseconds())
	_ = e.w.WriteByte(byte(transIndex)) //nolint:gosec // index < 256
	_ = e.w.WriteByte(0)
}

func (e *Encoder) delayCentiseconds() int {
	cs := math.Round(float64(e.delay) / float64(10*time.Millisecond))
	return int(min(cs, math.MaxUint16))
}

func (e *Encoder) writeImageDescriptor(first bool) {
	_ = e.w.WriteByte(imageSeparator)
	e.writeUint16(0)
	e.writeUint16(0)
	e.writeUint16(e.width)
	e.writeUint16(e.height)
	if first {
		_ = e.w.WriteByte(0) // global table, no interlace
	} else {
		_ = e.w.WriteByte(localTablePacked)
	}
}

func (e *Encoder) writePixels(indices []byte) error {
	if err := e.w.WriteByte(paletteBits); err != nil {
		return err
	}
	bw := &blockWriter{w: e.w}
	enc := newLZWEncoder(bw, paletteBits)
	if _, err := enc.Write(indices); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return bw.close()
}
