package canvas

import (
	"image"
	"image/color"

	"github.com/gogpu/ggshot/text"
)

// DefaultTextSize is the text size used when Style.Size is zero.
const DefaultTextSize = 12

// Style describes how text is drawn.
type Style struct {
	// Size is the font size in pixels. Zero means DefaultTextSize.
	Size float64

	// Color is the text color. Nil means opaque black.
	Color color.Color

	// Background fills the text box before the glyphs are drawn.
	// Nil leaves the box transparent.
	Background color.Color

	// Padding is the space in pixels between box edge and text.
	Padding int

	// Face overrides the default Go Regular face; Size is then ignored.
	Face *text.Face
}

func (s Style) face() *text.Face {
	if s.Face != nil {
		return s.Face
	}
	if s.Size <= 0 {
		return text.DefaultFace(DefaultTextSize)
	}
	return text.DefaultFace(s.Size)
}

func (s Style) color() color.Color {
	if s.Color == nil {
		return color.Black
	}
	return s.Color
}

// DrawRect queues a filled rectangle.
func (c *Canvas) DrawRect(r image.Rectangle, col color.Color) {
	c.queue(FillRectCommand{Rect: r, Color: col})
}

// StrokeRect queues a rectangle outline of the given width, drawn inside r.
func (c *Canvas) StrokeRect(r image.Rectangle, col color.Color, width int) {
	c.queue(StrokeRectCommand{Rect: r, Color: col, Width: width})
}

// DrawLine queues an anti-aliased line from p0 to p1.
func (c *Canvas) DrawLine(p0, p1 image.Point, col color.Color, width float64) {
	c.queue(LineCommand{From: p0, To: p1, Color: col, Width: width})
}

// DrawImage queues img to be drawn into r, resampled if sizes differ.
// img is read when the queue is flushed.
func (c *Canvas) DrawImage(r image.Rectangle, img image.Image) {
	c.queue(ImageCommand{Rect: r, Src: img})
}

// DrawText queues s with the top-left of its box at at. The layout is
// computed now, from the face's layout cache, so the written area is known
// before the glyphs are drawn.
func (c *Canvas) DrawText(at image.Point, s string, style Style) {
	face := style.face()
	c.queue(TextCommand{At: at, Layout: face.Layout(s), Face: face, Style: style})
}

// DrawLabel queues overlay text describing the region anchor. It is placed
// at flush time on the free grid point nearest the anchor and never
// extends the cropped area.
func (c *Canvas) DrawLabel(anchor image.Rectangle, s string, style Style) {
	if c.released {
		return
	}
	face := style.face()
	c.overlay = append(c.overlay, LabelCommand{Anchor: anchor, Layout: face.Layout(s), Face: face, Style: style})
}

func (c *Canvas) queue(cmd Command) {
	if c.released {
		return
	}
	c.base = append(c.base, cmd)
	c.emptyValid = false
	c.extend(cmd.Bounds())
}
